package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataplor/dataplor-cli/internal/ingest"
)

var (
	importFile  string
	importTable string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a CSV or XLSX file into the data source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		snap, err := ingest.ReadFile(importFile)
		if err != nil {
			return err
		}
		if importTable != "" {
			snap.Table = importTable
		}

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		name, err := src.SaveTable(ctx, snap, snap.Table)
		if err != nil {
			return err
		}

		zap.L().Info("imported file",
			zap.String("file", importFile),
			zap.String("table", name),
			zap.Int("rows", snap.NumRows()),
			zap.Int("columns", snap.NumCols()),
		)
		cmd.Printf("imported %s into table %s (%d rows, %d columns)\n",
			importFile, name, snap.NumRows(), snap.NumCols())
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV or XLSX file to import (required)")
	importCmd.Flags().StringVar(&importTable, "table", "", "destination table name (default derived from file name)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
