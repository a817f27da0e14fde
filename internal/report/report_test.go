package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplor/dataplor-cli/internal/model"
)

func testIssues() *model.IssueSet {
	set := &model.IssueSet{}
	set.Add(model.Issue{
		Severity: model.SeverityCritical,
		Kind:     model.IssueHighMissingValues,
		Columns:  []string{"website"},
		Metric:   42.0,
	})
	set.Add(model.Issue{
		Severity: model.SeverityCritical,
		Kind:     model.IssueHighDuplicateRows,
		Metric:   12.0,
	})
	set.Add(model.Issue{
		Severity: model.SeverityWarning,
		Kind:     model.IssueMediumMissingValues,
		Columns:  []string{"phone"},
		Metric:   8.0,
	})
	set.Add(model.Issue{
		Severity: model.SeverityInfo,
		Kind:     model.IssueDateStoredAsString,
		Columns:  []string{"opened_date"},
		Metric:   100.0,
	})
	return set
}

func TestCompose(t *testing.T) {
	prof := &model.Profile{
		Table:    "places",
		RowCount: 100,
		Columns: map[string]model.ColumnProfile{
			"name":    {MissingPercent: 0},
			"website": {MissingPercent: 42},
		},
	}
	issues := testIssues()
	score := &model.Score{
		Strategy:     "weighted",
		Value:        61.5,
		Completeness: 79.0,
		Deductions:   []model.Deduction{{Reason: "duplicates", Points: 20}},
	}

	rep := Compose(prof, issues, score)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "places", rep.Table)
	assert.False(t, rep.GeneratedAt.IsZero())
	assert.Equal(t, 61.5, rep.QualityScore)
	assert.Equal(t, "weighted", rep.ScoreStrategy)
	assert.Equal(t, 79.0, rep.Completeness)

	assert.Equal(t, Summary{Critical: 2, Warning: 1, Info: 1}, rep.IssueSummary)
	assert.Equal(t, 100.0, rep.ColumnQuality["name"])
	assert.Equal(t, 58.0, rep.ColumnQuality["website"])
	assert.Len(t, rep.Issues, 4)
	assert.Len(t, rep.Deductions, 1)
	assert.NotEmpty(t, rep.Recommendations)
}

func TestRecommend(t *testing.T) {
	recs := Recommend(testIssues())

	assert.Contains(t, recs, "Consider dropping columns with high missing values: website")
	assert.Contains(t, recs, "Impute missing values in columns: phone")
	assert.Contains(t, recs, "Remove duplicate rows from the dataset")
	assert.Contains(t, recs, "Standardize data types in columns: opened_date")
	assert.Contains(t, recs, "Run a data profiling tool for more detailed analysis")
	assert.NotContains(t, recs, "Review near-threshold duplicate rows before distribution use")
}

func TestRecommend_WarningDuplicatesOnly(t *testing.T) {
	set := &model.IssueSet{}
	set.Add(model.Issue{
		Severity: model.SeverityWarning,
		Kind:     model.IssueMediumDuplicateRows,
		Metric:   3.0,
	})

	recs := Recommend(set)
	assert.Contains(t, recs, "Review near-threshold duplicate rows before distribution use")
}

func TestRecommend_NoIssues(t *testing.T) {
	recs := Recommend(&model.IssueSet{})
	require.Empty(t, recs)
}
