package model

import "time"

// ColumnProfile summarizes a single column at profiling time. Percentages
// are computed against the row count of the snapshot being profiled; a
// profile is never incrementally updated.
type ColumnProfile struct {
	Name           string   `json:"name"`
	Dtype          string   `json:"dtype"`
	MissingCount   int      `json:"missing_count"`
	MissingPercent float64  `json:"missing_percent"`
	DistinctCount  int      `json:"distinct_count"`
	Min            *float64 `json:"min,omitempty"`
	Max            *float64 `json:"max,omitempty"`
	Mean           *float64 `json:"mean,omitempty"`
	MinDate        string   `json:"min_date,omitempty"`
	MaxDate        string   `json:"max_date,omitempty"`
	DateRangeDays  *int     `json:"date_range_days,omitempty"`
	FormatIssues   bool     `json:"format_issues,omitempty"`
	OutlierCount   int      `json:"outlier_count,omitempty"`
}

// CoordinateStats reports latitude/longitude validity. Out-of-range and
// null coordinates are counted separately.
type CoordinateStats struct {
	LatitudeColumn  string  `json:"latitude_column"`
	LongitudeColumn string  `json:"longitude_column"`
	ValidCount      int     `json:"valid_count"`
	ValidPercent    float64 `json:"valid_percent"`
	InvalidCount    int     `json:"invalid_count"`
	InvalidPercent  float64 `json:"invalid_percent"`
	NullCount       int     `json:"null_count"`
	NullPercent     float64 `json:"null_percent"`
}

// DuplicateStats reports full-row duplicates.
type DuplicateStats struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Profile is the per-table statistical summary produced by the profiler.
type Profile struct {
	Table                 string                   `json:"table"`
	RowCount              int                      `json:"row_count"`
	ColumnCount           int                      `json:"column_count"`
	Columns               map[string]ColumnProfile `json:"columns"`
	OverallMissingPercent float64                  `json:"overall_missing_percent"`
	Duplicates            DuplicateStats           `json:"duplicate_rows"`
	Coordinates           *CoordinateStats         `json:"coordinates,omitempty"`
	GeneratedAt           time.Time                `json:"generated_at"`
}

// MissingPercent returns the missing percentage for a column, 0 when the
// column is not part of the profile.
func (p *Profile) MissingPercent(column string) float64 {
	if column == "" {
		return 0
	}
	if cp, ok := p.Columns[column]; ok {
		return cp.MissingPercent
	}
	return 0
}
