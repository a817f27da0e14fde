// Package report composes the quality report from a profile, its
// classified issues and the computed score.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dataplor/dataplor-cli/internal/model"
)

// Summary counts issues by severity.
type Summary struct {
	Critical int `json:"critical" yaml:"critical"`
	Warning  int `json:"warning" yaml:"warning"`
	Info     int `json:"info" yaml:"info"`
}

// Report is the composed quality report for one table. Each report gets
// a unique ID so exported files can be traced back to a specific run.
type Report struct {
	ID              string             `json:"report_id" yaml:"report_id"`
	Table           string             `json:"table" yaml:"table"`
	GeneratedAt     time.Time          `json:"generated_at" yaml:"generated_at"`
	QualityScore    float64            `json:"quality_score" yaml:"quality_score"`
	ScoreStrategy   string             `json:"score_strategy" yaml:"score_strategy"`
	Completeness    float64            `json:"completeness" yaml:"completeness"`
	IssueSummary    Summary            `json:"issue_summary" yaml:"issue_summary"`
	ColumnQuality   map[string]float64 `json:"column_quality" yaml:"column_quality"`
	Issues          []model.Issue      `json:"issues" yaml:"issues"`
	Deductions      []model.Deduction  `json:"deductions,omitempty" yaml:"deductions,omitempty"`
	Recommendations []string           `json:"recommendations" yaml:"recommendations"`
}

// Compose builds the report. Per-column quality is 100 minus the
// column's missing percentage.
func Compose(prof *model.Profile, issues *model.IssueSet, score *model.Score) *Report {
	counts := issues.Counts()

	colQuality := make(map[string]float64, len(prof.Columns))
	for name, cp := range prof.Columns {
		colQuality[name] = 100.0 - cp.MissingPercent
	}

	return &Report{
		ID:              uuid.NewString(),
		Table:           prof.Table,
		GeneratedAt:     time.Now().UTC(),
		QualityScore:    score.Value,
		ScoreStrategy:   score.Strategy,
		Completeness:    score.Completeness,
		IssueSummary: Summary{
			Critical: counts[model.SeverityCritical],
			Warning:  counts[model.SeverityWarning],
			Info:     counts[model.SeverityInfo],
		},
		ColumnQuality:   colQuality,
		Issues:          issues.All(),
		Deductions:      score.Deductions,
		Recommendations: Recommend(issues),
	}
}

// Recommend derives cleaning guidance from the classified issues.
func Recommend(issues *model.IssueSet) []string {
	var recs []string

	if cols := columnsOfKind(issues.Critical, missingKinds...); len(cols) > 0 {
		recs = append(recs, fmt.Sprintf("Consider dropping columns with high missing values: %s", strings.Join(cols, ", ")))
	}
	if cols := columnsOfKind(issues.Warning, missingKinds...); len(cols) > 0 {
		recs = append(recs, fmt.Sprintf("Impute missing values in columns: %s", strings.Join(cols, ", ")))
	}
	if hasKind(issues.Critical, duplicateKinds...) {
		recs = append(recs, "Remove duplicate rows from the dataset")
	} else if hasKind(issues.Warning, duplicateKinds...) {
		recs = append(recs, "Review near-threshold duplicate rows before distribution use")
	}
	if hasKind(issues.Critical, model.IssueInvalidCoordinates) {
		recs = append(recs, "Null out or re-geocode coordinates outside valid ranges")
	}
	if cols := columnsOfKind(issues.All(), model.IssueDateStoredAsString, model.IssueNumericStoredAsText); len(cols) > 0 {
		recs = append(recs, fmt.Sprintf("Standardize data types in columns: %s", strings.Join(cols, ", ")))
	}
	if cols := columnsOfKind(issues.Warning, model.IssueIncompleteAddresses); len(cols) > 0 {
		recs = append(recs, fmt.Sprintf("Standardize address formats in columns: %s", strings.Join(cols, ", ")))
	}
	if cols := columnsOfKind(issues.All(), model.IssueOutliersDetected); len(cols) > 0 {
		recs = append(recs, fmt.Sprintf("Cap outliers with the IQR method in columns: %s", strings.Join(cols, ", ")))
	}

	if len(issues.All()) > 0 {
		recs = append(recs,
			"Run a data profiling tool for more detailed analysis",
			"Document data quality issues and cleaning steps for reproducibility",
		)
	}
	return recs
}

var missingKinds = []model.IssueKind{
	model.IssueHighMissingValues, model.IssueMediumMissingValues, model.IssueLowMissingValues,
}

var duplicateKinds = []model.IssueKind{
	model.IssueHighDuplicateRows, model.IssueMediumDuplicateRows, model.IssueLowDuplicateRows,
}

func hasKind(issues []model.Issue, kinds ...model.IssueKind) bool {
	for _, is := range issues {
		for _, k := range kinds {
			if is.Kind == k {
				return true
			}
		}
	}
	return false
}

func columnsOfKind(issues []model.Issue, kinds ...model.IssueKind) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, is := range issues {
		for _, k := range kinds {
			if is.Kind != k {
				continue
			}
			for _, c := range is.Columns {
				if _, ok := seen[c]; !ok {
					seen[c] = struct{}{}
					cols = append(cols, c)
				}
			}
		}
	}
	sort.Strings(cols)
	return cols
}
