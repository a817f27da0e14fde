package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dataplor/dataplor-cli/internal/report"
)

var (
	reportTableName string
	reportOutput    string
	reportFormat    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a quality report for a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		snap, err := src.LoadTable(ctx, reportTableName, 0)
		if err != nil {
			return err
		}

		res, _, err := analyzeSnapshot(ctx, src, snap, "")
		if err != nil {
			return err
		}
		rep := report.Compose(res.Profile, res.Issues, &res.Score)

		if reportOutput != "" {
			f, err := os.Create(reportOutput)
			if err != nil {
				return err
			}
			defer f.Close()

			if reportFormat == "yaml" {
				if err := yaml.NewEncoder(f).Encode(rep); err != nil {
					return err
				}
			} else {
				if err := writeJSON(f, rep); err != nil {
					return err
				}
			}
			fmt.Printf("report written to %s\n", reportOutput)
			return nil
		}

		if reportFormat == "yaml" {
			return yaml.NewEncoder(os.Stdout).Encode(rep)
		}
		return printJSON(rep)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportTableName, "table", "", "table to report on (required)")
	reportCmd.Flags().StringVar(&reportOutput, "output", "", "write report to file instead of stdout")
	reportCmd.Flags().StringVar(&reportFormat, "format", "json", "output format: json or yaml")
	_ = reportCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(reportCmd)
}
