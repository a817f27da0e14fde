package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
	"github.com/dataplor/dataplor-cli/internal/profile"
	"github.com/dataplor/dataplor-cli/internal/quality"
	"github.com/dataplor/dataplor-cli/internal/schema"
	"github.com/dataplor/dataplor-cli/internal/source"
)

// analysisResult bundles the profile/classify/score pipeline output for
// one table.
type analysisResult struct {
	Profile *model.Profile  `json:"profile"`
	Issues  *model.IssueSet `json:"issues"`
	Score   model.Score     `json:"score"`
}

func openSource(ctx context.Context) (source.Source, error) {
	return source.Open(ctx, cfg.Source)
}

// analyzeSnapshot runs the full assessment pipeline over a loaded
// snapshot. The source is optional; when present, outlier counts are
// pushed down to it.
func analyzeSnapshot(ctx context.Context, src source.Source, snap *frame.Snapshot, scorerName string) (*analysisResult, schema.Hints, error) {
	hints := schema.Resolve(snap.ColumnNames(), cfg.Schema)

	var counter profile.OutlierCounter
	if src != nil {
		counter = src.CountOutliers
	}

	prof, err := profile.New(cfg.Schema, counter).Profile(ctx, snap, hints)
	if err != nil {
		return nil, hints, err
	}
	issues := quality.NewClassifier(cfg.Quality).Classify(prof, snap, hints)

	if scorerName == "" {
		scorerName = cfg.Quality.Scorer
	}
	scorer, err := quality.NewScorer(scorerName)
	if err != nil {
		return nil, hints, err
	}
	score := scorer.Score(prof, issues, hints)

	return &analysisResult{Profile: prof, Issues: issues, Score: score}, hints, nil
}

func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// snapshotRows converts a result snapshot to row maps for JSON output.
func snapshotRows(snap *frame.Snapshot) []map[string]any {
	rows := make([]map[string]any, snap.NumRows())
	for r := range rows {
		row := make(map[string]any, snap.NumCols())
		for _, col := range snap.Columns {
			row[col.Name] = col.Values[r]
		}
		rows[r] = row
	}
	return rows
}

func printSnapshotJSON(snap *frame.Snapshot) error {
	return printJSON(struct {
		Analysis string           `json:"analysis"`
		Rows     []map[string]any `json:"rows"`
	}{snap.Table, snapshotRows(snap)})
}

// renderSnapshot prints a result table in aligned columns.
func renderSnapshot(w io.Writer, snap *frame.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for i, name := range snap.ColumnNames() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, name)
	}
	fmt.Fprintln(tw)

	for r := 0; r < snap.NumRows(); r++ {
		for i, col := range snap.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			v := col.Values[r]
			if v == nil {
				fmt.Fprint(tw, "-")
			} else {
				fmt.Fprintf(tw, "%v", v)
			}
		}
		fmt.Fprintln(tw)
	}
}
