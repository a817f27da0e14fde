package quality

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
	"github.com/dataplor/dataplor-cli/internal/schema"
)

// Scorer reduces a profile and its issues to a 0-100 quality score.
type Scorer interface {
	Score(prof *model.Profile, issues *model.IssueSet, hints schema.Hints) model.Score
	Name() string
}

// NewScorer returns the named scoring strategy: "weighted" (capped
// per-dimension deductions) or "issue" (flat per-issue deductions).
func NewScorer(strategy string) (Scorer, error) {
	switch strategy {
	case "weighted":
		return &WeightedScorer{}, nil
	case "issue":
		return &IssueCountScorer{}, nil
	default:
		return nil, eris.Errorf("quality: unknown scorer strategy %q (weighted or issue)", strategy)
	}
}

// WeightedScorer is the canonical strategy: capped deductions for overall
// missingness, duplicates, invalid coordinates, and missing critical
// fields (address, business name, category, phone).
type WeightedScorer struct{}

func (s *WeightedScorer) Name() string { return "weighted" }

func (s *WeightedScorer) Score(prof *model.Profile, _ *model.IssueSet, hints schema.Hints) model.Score {
	score := 100.0
	var deductions []model.Deduction

	deduct := func(reason string, points float64, detail string) {
		if points <= 0 {
			return
		}
		score -= points
		deductions = append(deductions, model.Deduction{Reason: reason, Points: points, Detail: detail})
	}

	if prof.OverallMissingPercent > 0 {
		deduct("missing_values",
			math.Min(30, prof.OverallMissingPercent/2),
			fmt.Sprintf("%.2f%% of all cells are missing", prof.OverallMissingPercent))
	}

	if prof.Duplicates.Percent > 0 {
		deduct("duplicate_rows",
			math.Min(20, prof.Duplicates.Percent*2),
			fmt.Sprintf("%.2f%% of rows are duplicates", prof.Duplicates.Percent))
	}

	if prof.Coordinates != nil && prof.Coordinates.InvalidPercent > 0 {
		deduct("invalid_coordinates",
			math.Min(15, prof.Coordinates.InvalidPercent/2),
			fmt.Sprintf("%.2f%% of rows have out-of-range coordinates", prof.Coordinates.InvalidPercent))
	}

	// Critical CPG fields share one capped deduction.
	criticalPenalty := 0.0
	for _, role := range []schema.Role{schema.RoleAddress, schema.RoleName, schema.RoleCategory, schema.RolePhone} {
		criticalPenalty += prof.MissingPercent(hints.Column(role)) / 10
	}
	deduct("missing_critical_fields",
		math.Min(25, criticalPenalty),
		"missing values across address, name, category, and phone fields")

	score = math.Max(0, math.Min(100, score))

	return model.Score{
		Strategy:     s.Name(),
		Value:        frame.Round1(score),
		Completeness: frame.Round1(100 - prof.OverallMissingPercent),
		Deductions:   deductions,
	}
}

// IssueCountScorer is the simpler strategy: flat deductions per issue by
// severity plus a small missingness term, rounded to the nearest whole
// number.
type IssueCountScorer struct{}

func (s *IssueCountScorer) Name() string { return "issue" }

func (s *IssueCountScorer) Score(prof *model.Profile, issues *model.IssueSet, _ schema.Hints) model.Score {
	score := 100.0
	var deductions []model.Deduction

	deduct := func(reason string, points float64, detail string) {
		if points <= 0 {
			return
		}
		score -= points
		deductions = append(deductions, model.Deduction{Reason: reason, Points: points, Detail: detail})
	}

	deduct("critical_issues", 15*float64(len(issues.Critical)), fmt.Sprintf("%d critical issues", len(issues.Critical)))
	deduct("warning_issues", 5*float64(len(issues.Warning)), fmt.Sprintf("%d warning issues", len(issues.Warning)))
	deduct("info_issues", 1*float64(len(issues.Info)), fmt.Sprintf("%d info issues", len(issues.Info)))
	deduct("missing_values", 0.5*prof.OverallMissingPercent, fmt.Sprintf("%.2f%% of all cells are missing", prof.OverallMissingPercent))

	score = math.Max(0, math.Min(100, score))

	return model.Score{
		Strategy:     s.Name(),
		Value:        math.Round(score),
		Completeness: frame.Round1(100 - prof.OverallMissingPercent),
		Deductions:   deductions,
	}
}
