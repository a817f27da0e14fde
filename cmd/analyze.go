package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dataplor/dataplor-cli/internal/model"
)

var (
	analyzeTableName string
	analyzeSample    int
	analyzeFormat    string
	analyzeScorer    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Profile, classify and score a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		snap, err := src.LoadTable(ctx, analyzeTableName, analyzeSample)
		if err != nil {
			return err
		}

		res, _, err := analyzeSnapshot(ctx, src, snap, analyzeScorer)
		if err != nil {
			return err
		}

		counts := res.Issues.Counts()
		zap.L().Info("analysis complete",
			zap.String("table", analyzeTableName),
			zap.Float64("score", res.Score.Value),
			zap.Int("critical", counts[model.SeverityCritical]),
			zap.Int("warning", counts[model.SeverityWarning]),
			zap.Int("info", counts[model.SeverityInfo]),
		)

		if analyzeFormat == "json" {
			return printJSON(res)
		}
		renderAnalysis(res)
		return nil
	},
}

func renderAnalysis(res *analysisResult) {
	prof := res.Profile
	fmt.Printf("Table %s: %d rows, %d columns\n", prof.Table, prof.RowCount, prof.ColumnCount)
	fmt.Printf("Quality score: %.1f (%s)  Completeness: %.2f%%\n",
		res.Score.Value, res.Score.Strategy, res.Score.Completeness)
	fmt.Printf("Duplicates: %d (%.2f%%)\n", prof.Duplicates.Count, prof.Duplicates.Percent)
	if prof.Coordinates != nil {
		fmt.Printf("Coordinates: %d valid, %d invalid, %d null\n",
			prof.Coordinates.ValidCount, prof.Coordinates.InvalidCount, prof.Coordinates.NullCount)
	}

	fmt.Println("\nColumns:")
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tMISSING\tDISTINCT\tOUTLIERS")
	names := make([]string, 0, len(prof.Columns))
	for name := range prof.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cp := prof.Columns[name]
		fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%d\t%d\n",
			name, cp.Dtype, cp.MissingPercent, cp.DistinctCount, cp.OutlierCount)
	}
	tw.Flush()

	all := res.Issues.All()
	if len(all) == 0 {
		fmt.Println("\nNo issues found.")
		return
	}
	fmt.Println("\nIssues:")
	for _, is := range all {
		fmt.Printf("  [%s] %s\n", is.Severity, is.Description)
	}

	if len(res.Score.Deductions) > 0 {
		fmt.Println("\nScore deductions:")
		for _, d := range res.Score.Deductions {
			fmt.Printf("  -%.1f %s (%s)\n", d.Points, d.Reason, d.Detail)
		}
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTableName, "table", "", "table to analyze (required)")
	analyzeCmd.Flags().IntVar(&analyzeSample, "sample", 0, "sample size (0 = full table)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "output format: table or json")
	analyzeCmd.Flags().StringVar(&analyzeScorer, "scorer", "", "scoring strategy: weighted or issue (default from config)")
	_ = analyzeCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(analyzeCmd)
}
