package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var tablesJSON bool

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables in the data source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		metas, err := src.ListTables(ctx)
		if err != nil {
			return err
		}

		if tablesJSON {
			return printJSON(metas)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TABLE\tROWS")
		for _, m := range metas {
			fmt.Fprintf(tw, "%s\t%d\n", m.Name, m.RowCount)
		}
		return tw.Flush()
	},
}

func init() {
	tablesCmd.Flags().BoolVar(&tablesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(tablesCmd)
}
