// Package quality classifies profiler findings into severity-tiered
// issues and reduces them to a single 0-100 score.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dataplor/dataplor-cli/internal/config"
	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
	"github.com/dataplor/dataplor-cli/internal/schema"
)

// phonePattern is the sanity check for phone-shaped strings: optional
// leading +, then 7-20 digits/dashes/parens/spaces.
var phonePattern = regexp.MustCompile(`^\+?[0-9\-\(\)\s]{7,20}$`)

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}`)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// Classifier buckets profile findings by fixed thresholds plus
// domain-specific checks against the snapshot itself.
type Classifier struct {
	cfg config.QualityConfig
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(cfg config.QualityConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify derives the issue set for a profiled snapshot. It is a pure
// function of its inputs and tolerates absent optional columns.
func (c *Classifier) Classify(prof *model.Profile, snap *frame.Snapshot, hints schema.Hints) *model.IssueSet {
	issues := &model.IssueSet{}
	if prof.RowCount == 0 {
		return issues
	}

	c.classifyMissing(prof, issues)
	c.classifyDuplicates(prof, issues)
	c.classifyCoordinates(prof, issues)
	c.classifyCriticalFields(prof, hints, issues)
	c.classifyAddresses(prof, snap, hints, issues)
	c.classifyPhones(prof, snap, hints, issues)
	c.classifyTypeSuspicions(prof, snap, hints, issues)
	c.classifyOutliers(prof, issues)
	c.classifyMissingGeo(snap, hints, issues)

	return issues
}

func (c *Classifier) classifyMissing(prof *model.Profile, issues *model.IssueSet) {
	for name, cp := range prof.Columns {
		pct := cp.MissingPercent
		switch {
		case pct > c.cfg.MissingCriticalPct:
			issues.Add(model.Issue{
				Severity:    model.SeverityCritical,
				Kind:        model.IssueHighMissingValues,
				Description: fmt.Sprintf("High percentage of missing values in column %s: %.2f%%", name, pct),
				Columns:     []string{name},
				Metric:      pct,
			})
		case pct > c.cfg.MissingWarningPct:
			issues.Add(model.Issue{
				Severity:    model.SeverityWarning,
				Kind:        model.IssueMediumMissingValues,
				Description: fmt.Sprintf("Medium percentage of missing values in column %s: %.2f%%", name, pct),
				Columns:     []string{name},
				Metric:      pct,
			})
		case pct > 0:
			issues.Add(model.Issue{
				Severity:    model.SeverityInfo,
				Kind:        model.IssueLowMissingValues,
				Description: fmt.Sprintf("Low percentage of missing values in column %s: %.2f%%", name, pct),
				Columns:     []string{name},
				Metric:      pct,
			})
		}
	}
}

func (c *Classifier) classifyDuplicates(prof *model.Profile, issues *model.IssueSet) {
	pct := prof.Duplicates.Percent
	switch {
	case pct > c.cfg.DuplicateCriticalPct:
		issues.Add(model.Issue{
			Severity:    model.SeverityCritical,
			Kind:        model.IssueHighDuplicateRows,
			Description: fmt.Sprintf("High percentage of duplicate rows: %.2f%%", pct),
			Metric:      pct,
			Details:     map[string]any{"count": prof.Duplicates.Count},
		})
	case pct > c.cfg.DuplicateWarningPct:
		issues.Add(model.Issue{
			Severity:    model.SeverityWarning,
			Kind:        model.IssueMediumDuplicateRows,
			Description: fmt.Sprintf("Medium percentage of duplicate rows: %.2f%%", pct),
			Metric:      pct,
			Details:     map[string]any{"count": prof.Duplicates.Count},
		})
	case pct > 0:
		issues.Add(model.Issue{
			Severity:    model.SeverityInfo,
			Kind:        model.IssueLowDuplicateRows,
			Description: fmt.Sprintf("Low percentage of duplicate rows: %.2f%%", pct),
			Metric:      pct,
			Details:     map[string]any{"count": prof.Duplicates.Count},
		})
	}
}

func (c *Classifier) classifyCoordinates(prof *model.Profile, issues *model.IssueSet) {
	coords := prof.Coordinates
	if coords == nil {
		return
	}
	if coords.InvalidPercent > c.cfg.InvalidCoordCriticalPct {
		issues.Add(model.Issue{
			Severity:    model.SeverityCritical,
			Kind:        model.IssueInvalidCoordinates,
			Description: fmt.Sprintf("Invalid coordinates in %.2f%% of rows", coords.InvalidPercent),
			Columns:     []string{coords.LatitudeColumn, coords.LongitudeColumn},
			Metric:      coords.InvalidPercent,
			Details:     map[string]any{"invalid_count": coords.InvalidCount, "null_count": coords.NullCount},
		})
	}
}

func (c *Classifier) classifyCriticalFields(prof *model.Profile, hints schema.Hints, issues *model.IssueSet) {
	if col := hints.Column(schema.RoleName); col != "" {
		if pct := prof.MissingPercent(col); pct > c.cfg.MissingNameCriticalPct {
			issues.Add(model.Issue{
				Severity:    model.SeverityCritical,
				Kind:        model.IssueMissingBusinessNames,
				Description: fmt.Sprintf("Missing business names in %.2f%% of rows", pct),
				Columns:     []string{col},
				Metric:      pct,
			})
		}
	}
	if col := hints.Column(schema.RoleCategory); col != "" {
		if pct := prof.MissingPercent(col); pct > c.cfg.MissingCategoryCritPct {
			issues.Add(model.Issue{
				Severity:    model.SeverityCritical,
				Kind:        model.IssueMissingCategories,
				Description: fmt.Sprintf("Missing categories in %.2f%% of rows", pct),
				Columns:     []string{col},
				Metric:      pct,
			})
		}
	}
}

func (c *Classifier) classifyAddresses(prof *model.Profile, snap *frame.Snapshot, hints schema.Hints, issues *model.IssueSet) {
	colName := hints.Column(schema.RoleAddress)
	if colName == "" {
		return
	}
	col, ok := snap.Column(colName)
	if !ok {
		return
	}

	short, empty := 0, 0
	for _, v := range col.Values {
		s, isStr := v.(string)
		if !isStr {
			continue
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			empty++
			continue
		}
		if len(trimmed) < c.cfg.MinAddressLength {
			short++
		}
	}

	pct := frame.Round2(float64(short) / float64(prof.RowCount) * 100)
	if pct > c.cfg.ShortAddressWarningPct {
		issues.Add(model.Issue{
			Severity:    model.SeverityWarning,
			Kind:        model.IssueIncompleteAddresses,
			Description: fmt.Sprintf("Potentially incomplete addresses (shorter than %d chars) in %.2f%% of rows", c.cfg.MinAddressLength, pct),
			Columns:     []string{colName},
			Metric:      pct,
			Details:     map[string]any{"count": short},
		})
	}
	if empty > 0 {
		issues.Add(model.Issue{
			Severity:    model.SeverityInfo,
			Kind:        model.IssueEmptyAddresses,
			Description: fmt.Sprintf("%d rows have an empty (non-null) address", empty),
			Columns:     []string{colName},
			Metric:      float64(empty),
		})
	}
}

func (c *Classifier) classifyPhones(prof *model.Profile, snap *frame.Snapshot, hints schema.Hints, issues *model.IssueSet) {
	colName := hints.Column(schema.RolePhone)
	if colName == "" {
		return
	}
	col, ok := snap.Column(colName)
	if !ok {
		return
	}

	invalid := 0
	for _, v := range col.Values {
		if s, isStr := v.(string); isStr && !phonePattern.MatchString(s) {
			invalid++
		}
	}
	pct := frame.Round2(float64(invalid) / float64(prof.RowCount) * 100)
	if pct > c.cfg.InvalidPhoneWarningPct {
		issues.Add(model.Issue{
			Severity:    model.SeverityWarning,
			Kind:        model.IssueInvalidPhoneNumbers,
			Description: fmt.Sprintf("Potentially invalid phone numbers in %.2f%% of rows", pct),
			Columns:     []string{colName},
			Metric:      pct,
			Details:     map[string]any{"count": invalid},
		})
	}
}

// classifyTypeSuspicions surfaces columns whose stored type looks wrong:
// low-cardinality numerics, ID strings with leading zeros, date- or
// numeric-shaped strings.
func (c *Classifier) classifyTypeSuspicions(prof *model.Profile, snap *frame.Snapshot, hints schema.Hints, issues *model.IssueSet) {
	textRoles := map[string]bool{}
	for _, r := range []schema.Role{schema.RoleName, schema.RoleAddress, schema.RoleCity, schema.RoleState} {
		if col := hints.Column(r); col != "" {
			textRoles[col] = true
		}
	}
	dateCols := map[string]bool{}
	for _, col := range hints.DateColumns {
		dateCols[col] = true
	}

	for _, col := range snap.Columns {
		cp, ok := prof.Columns[col.Name]
		if !ok {
			continue
		}
		kind := col.Kind()

		if kind == frame.KindInt || kind == frame.KindFloat {
			if cp.DistinctCount > 1 && cp.DistinctCount < c.cfg.CategoricalMaxDistinct {
				issues.Add(model.Issue{
					Severity:    model.SeverityInfo,
					Kind:        model.IssuePossiblyCategorical,
					Description: fmt.Sprintf("Column %s has only %d distinct values; possibly categorical stored as %s", col.Name, cp.DistinctCount, cp.Dtype),
					Columns:     []string{col.Name},
					Metric:      float64(cp.DistinctCount),
				})
			}
			continue
		}

		if kind != frame.KindString {
			continue
		}

		if isIDLike(col.Name) && hasLeadingZeroDigits(col) {
			issues.Add(model.Issue{
				Severity:    model.SeverityInfo,
				Kind:        model.IssueLeadingZeroID,
				Description: fmt.Sprintf("Column %s looks like an identifier with leading zeros; keep it as text", col.Name),
				Columns:     []string{col.Name},
			})
		}

		if dateCols[col.Name] && sampleMatches(col, datePattern) {
			issues.Add(model.Issue{
				Severity:    model.SeverityInfo,
				Kind:        model.IssueDateStoredAsString,
				Description: fmt.Sprintf("Column %s is possibly a date stored as string", col.Name),
				Columns:     []string{col.Name},
			})
		}

		if !textRoles[col.Name] && !dateCols[col.Name] {
			if ratio := numericStringRatio(col); ratio > 0.8 {
				issues.Add(model.Issue{
					Severity:    model.SeverityInfo,
					Kind:        model.IssueNumericStoredAsText,
					Description: fmt.Sprintf("Column %s is possibly numeric data stored as string (%.0f%% numeric)", col.Name, ratio*100),
					Columns:     []string{col.Name},
					Metric:      frame.Round2(ratio * 100),
				})
			}
		}
	}
}

func (c *Classifier) classifyOutliers(prof *model.Profile, issues *model.IssueSet) {
	var cols []string
	total := 0
	for name, cp := range prof.Columns {
		if cp.OutlierCount > 0 {
			cols = append(cols, name)
			total += cp.OutlierCount
		}
	}
	if len(cols) == 0 {
		return
	}
	issues.Add(model.Issue{
		Severity:    model.SeverityInfo,
		Kind:        model.IssueOutliersDetected,
		Description: fmt.Sprintf("IQR outliers detected in %d numeric columns (%d values)", len(cols), total),
		Columns:     cols,
		Metric:      float64(total),
	})
}

func (c *Classifier) classifyMissingGeo(snap *frame.Snapshot, hints schema.Hints, issues *model.IssueSet) {
	addrName := hints.Column(schema.RoleAddress)
	latName := hints.Column(schema.RoleLatitude)
	if addrName == "" || latName == "" {
		return
	}
	addr, ok1 := snap.Column(addrName)
	lat, ok2 := snap.Column(latName)
	if !ok1 || !ok2 {
		return
	}

	missing := 0
	for i := range addr.Values {
		s, isStr := addr.Values[i].(string)
		if addr.Values[i] != nil && (!isStr || strings.TrimSpace(s) != "") && lat.Values[i] == nil {
			missing++
		}
	}
	if missing > 0 {
		issues.Add(model.Issue{
			Severity:    model.SeverityInfo,
			Kind:        model.IssueMissingGeoForAddress,
			Description: fmt.Sprintf("%d rows have an address but no coordinates", missing),
			Columns:     []string{addrName, latName},
			Metric:      float64(missing),
		})
	}
}

func isIDLike(name string) bool {
	lc := strings.ToLower(name)
	for _, term := range []string{"id", "code", "sku", "upc", "ean", "gtin"} {
		if strings.Contains(lc, term) {
			return true
		}
	}
	return false
}

func hasLeadingZeroDigits(col *frame.Column) bool {
	for _, v := range col.Values {
		if s, ok := v.(string); ok && len(s) > 1 && s[0] == '0' && digitsOnly.MatchString(s) {
			return true
		}
	}
	return false
}

func sampleMatches(col *frame.Column, re *regexp.Regexp) bool {
	for _, v := range col.Values {
		if s, ok := v.(string); ok {
			return re.MatchString(s)
		}
	}
	return false
}

func numericStringRatio(col *frame.Column) float64 {
	numeric, total := 0, 0
	for _, v := range col.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		total++
		if digitsOnly.MatchString(strings.ReplaceAll(s, ".", "")) {
			numeric++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(numeric) / float64(total)
}
