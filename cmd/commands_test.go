//go:build !integration

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
)

func TestRootCmd_Metadata(t *testing.T) {
	assert.Equal(t, "dataplor", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, strings.Fields(c.Use)[0])
	}
	for _, want := range []string{"tables", "import", "analyze", "clean", "report", "cpg", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestCommandFlags(t *testing.T) {
	for _, tc := range []struct {
		cmd   string
		flags []string
	}{
		{"tables", []string{"json"}},
		{"import", []string{"file", "table"}},
		{"analyze", []string{"table", "sample", "format", "scorer"}},
		{"clean", []string{"table", "plan", "save", "format"}},
		{"report", []string{"table", "output", "format"}},
		{"cpg", []string{"table", "format", "min-confidence", "city", "day", "min-locations", "top", "min-cluster-size"}},
		{"serve", []string{"port"}},
	} {
		cmd, _, err := rootCmd.Find([]string{tc.cmd})
		require.NoError(t, err, tc.cmd)
		for _, name := range tc.flags {
			assert.NotNil(t, cmd.Flags().Lookup(name), "%s --%s", tc.cmd, name)
		}
	}
}

func TestAnalyzeSnapshot_Pipeline(t *testing.T) {
	cfg = testConfig()

	snap, err := frame.New("places", []*frame.Column{
		{Name: "name", Values: []any{"Albertsons", "WinCo", nil, "Corner Mart"}},
		{Name: "latitude", Values: []any{43.61, 43.62, 95.0, 43.64}},
		{Name: "longitude", Values: []any{-116.20, -116.21, -116.22, -116.23}},
	})
	require.NoError(t, err)

	res, hints, err := analyzeSnapshot(context.Background(), nil, snap, "")
	require.NoError(t, err)

	assert.Equal(t, "latitude", hints.Column("latitude"))
	assert.Equal(t, 4, res.Profile.RowCount)
	require.NotNil(t, res.Profile.Coordinates)
	assert.Equal(t, 1, res.Profile.Coordinates.InvalidCount)
	assert.Equal(t, "weighted", res.Score.Strategy)
	assert.Less(t, res.Score.Value, 100.0)
}

func TestAnalyzeSnapshot_UnknownScorer(t *testing.T) {
	cfg = testConfig()

	snap, err := frame.New("places", []*frame.Column{
		{Name: "name", Values: []any{"Albertsons"}},
	})
	require.NoError(t, err)

	_, _, err = analyzeSnapshot(context.Background(), nil, snap, "bayesian")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scorer strategy")
}

func TestRenderSnapshot(t *testing.T) {
	snap, err := frame.New("out", []*frame.Column{
		{Name: "city", Values: []any{"Boise", "Nampa"}},
		{Name: "total", Values: []any{int64(6), nil}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	renderSnapshot(&buf, snap)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "city")
	assert.Contains(t, lines[0], "total")
	assert.Contains(t, lines[1], "Boise")
	assert.Contains(t, lines[1], "6")
	assert.Contains(t, lines[2], "-") // nil renders as a dash
}

func TestSnapshotRows(t *testing.T) {
	snap, err := frame.New("out", []*frame.Column{
		{Name: "city", Values: []any{"Boise"}},
		{Name: "total", Values: []any{int64(6)}},
	})
	require.NoError(t, err)

	rows := snapshotRows(snap)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"city": "Boise", "total": int64(6)}, rows[0])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, model.TableMeta{Name: "places", RowCount: 3}))
	assert.Contains(t, buf.String(), `"name": "places"`)
}
