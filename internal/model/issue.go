package model

// Severity tiers a data-quality finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// IssueKind enumerates the classifier's finding types.
type IssueKind string

const (
	IssueHighMissingValues    IssueKind = "high_missing_values"
	IssueMediumMissingValues  IssueKind = "medium_missing_values"
	IssueLowMissingValues     IssueKind = "low_missing_values"
	IssueHighDuplicateRows    IssueKind = "high_duplicate_rows"
	IssueMediumDuplicateRows  IssueKind = "medium_duplicate_rows"
	IssueLowDuplicateRows     IssueKind = "low_duplicate_rows"
	IssueInvalidCoordinates   IssueKind = "invalid_coordinates"
	IssueMissingBusinessNames IssueKind = "missing_business_names"
	IssueMissingCategories    IssueKind = "missing_categories"
	IssueIncompleteAddresses  IssueKind = "incomplete_addresses"
	IssueInvalidPhoneNumbers  IssueKind = "invalid_phone_numbers"
	IssuePossiblyCategorical  IssueKind = "possibly_categorical"
	IssueLeadingZeroID        IssueKind = "id_with_leading_zeros"
	IssueDateStoredAsString   IssueKind = "date_stored_as_string"
	IssueNumericStoredAsText  IssueKind = "numeric_stored_as_string"
	IssueOutliersDetected     IssueKind = "outliers_detected"
	IssueMissingGeoForAddress IssueKind = "missing_geo_with_address"
	IssueEmptyAddresses       IssueKind = "empty_addresses"
)

// Issue is a classified data-quality finding. Issues are derived from a
// profile, never stored; every profiling pass recomputes them in full.
type Issue struct {
	Severity    Severity       `json:"severity"`
	Kind        IssueKind      `json:"kind"`
	Description string         `json:"description"`
	Columns     []string       `json:"columns,omitempty"`
	Metric      float64        `json:"metric"`
	Details     map[string]any `json:"details,omitempty"`
}

// IssueSet partitions issues by severity.
type IssueSet struct {
	Critical []Issue `json:"critical"`
	Warning  []Issue `json:"warning"`
	Info     []Issue `json:"info"`
}

// Add places an issue into its severity bucket.
func (s *IssueSet) Add(i Issue) {
	switch i.Severity {
	case SeverityCritical:
		s.Critical = append(s.Critical, i)
	case SeverityWarning:
		s.Warning = append(s.Warning, i)
	default:
		s.Info = append(s.Info, i)
	}
}

// All returns every issue, critical first.
func (s *IssueSet) All() []Issue {
	out := make([]Issue, 0, len(s.Critical)+len(s.Warning)+len(s.Info))
	out = append(out, s.Critical...)
	out = append(out, s.Warning...)
	out = append(out, s.Info...)
	return out
}

// Counts returns per-severity issue counts.
func (s *IssueSet) Counts() map[Severity]int {
	return map[Severity]int{
		SeverityCritical: len(s.Critical),
		SeverityWarning:  len(s.Warning),
		SeverityInfo:     len(s.Info),
	}
}
