package model

// OpKind enumerates the cleaning operations.
type OpKind string

const (
	OpFillMissing       OpKind = "fill_missing"
	OpRemoveDuplicates  OpKind = "remove_duplicates"
	OpConvertType       OpKind = "convert_type"
	OpHandleOutliers    OpKind = "handle_outliers"
	OpStandardizeValues OpKind = "standardize_values"
)

// FillMethod selects how fill_missing computes replacement values.
type FillMethod string

const (
	FillConstant FillMethod = "constant"
	FillMean     FillMethod = "mean"
	FillMedian   FillMethod = "median"
	FillMode     FillMethod = "mode"
	FillForward  FillMethod = "ffill"
	FillBackward FillMethod = "bfill"
)

// CleaningStep is one declarative transform in a cleaning plan. Steps are
// applied in list order; fields beyond Op and Column are operation-specific.
type CleaningStep struct {
	Op         OpKind            `json:"op" yaml:"op"`
	Column     string            `json:"column,omitempty" yaml:"column,omitempty"`
	Value      any               `json:"value,omitempty" yaml:"value,omitempty"`
	Method     FillMethod        `json:"method,omitempty" yaml:"method,omitempty"`
	TargetType string            `json:"target_type,omitempty" yaml:"target_type,omitempty"`
	Subset     []string          `json:"subset,omitempty" yaml:"subset,omitempty"`
	Keep       string            `json:"keep,omitempty" yaml:"keep,omitempty"`
	Mapping    map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	CaseFold   string            `json:"case_fold,omitempty" yaml:"case_fold,omitempty"`
}

// ChangeRecord reports the effect of one applied (or skipped) step.
type ChangeRecord struct {
	Step         string         `json:"step"`
	Column       string         `json:"column,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
	RowsAffected int            `json:"rows_affected"`
	Error        string         `json:"error,omitempty"`
}
