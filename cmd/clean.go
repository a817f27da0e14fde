package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataplor/dataplor-cli/internal/clean"
)

var (
	cleanTableName string
	cleanPlanPath  string
	cleanSave      bool
	cleanFormat    string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Apply a cleaning plan to a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		steps, err := clean.LoadPlan(cleanPlanPath)
		if err != nil {
			return err
		}

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		snap, err := src.LoadTable(ctx, cleanTableName, 0)
		if err != nil {
			return err
		}
		before := snap.NumRows()

		cleaned, changes := clean.NewExecutor().Apply(snap, steps)

		// Re-analyze the cleaned snapshot in memory; outlier pushdown
		// would hit the uncleaned stored table, so skip it here.
		res, _, err := analyzeSnapshot(ctx, nil, cleaned, "")
		if err != nil {
			return err
		}

		saved := ""
		if cleanSave {
			name := fmt.Sprintf("%s_cleaned_%s", cleanTableName, time.Now().Format("20060102_150405"))
			saved, err = src.SaveTable(ctx, cleaned, name)
			if err != nil {
				return err
			}
			zap.L().Info("saved cleaned table", zap.String("table", saved))
		}

		if cleanFormat == "json" {
			return printJSON(struct {
				Changes  any    `json:"changes"`
				Analysis any    `json:"analysis"`
				SavedAs  string `json:"saved_as,omitempty"`
			}{changes, res, saved})
		}

		fmt.Printf("Applied %d steps to %s: %d rows -> %d rows\n",
			len(steps), cleanTableName, before, cleaned.NumRows())
		for _, ch := range changes {
			if ch.Error != "" {
				fmt.Printf("  %s [%s]: FAILED: %s\n", ch.Step, ch.Column, ch.Error)
				continue
			}
			fmt.Printf("  %s [%s]: %d rows affected\n", ch.Step, ch.Column, ch.RowsAffected)
		}
		fmt.Printf("\nQuality after cleaning: %.1f (%s)\n", res.Score.Value, res.Score.Strategy)
		if saved != "" {
			fmt.Printf("Saved as %s\n", saved)
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanTableName, "table", "", "table to clean (required)")
	cleanCmd.Flags().StringVar(&cleanPlanPath, "plan", "", "YAML cleaning plan (required)")
	cleanCmd.Flags().BoolVar(&cleanSave, "save", false, "save the cleaned snapshot as a new table")
	cleanCmd.Flags().StringVar(&cleanFormat, "format", "table", "output format: table or json")
	_ = cleanCmd.MarkFlagRequired("table")
	_ = cleanCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(cleanCmd)
}
