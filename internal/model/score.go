package model

// Deduction records one scoring penalty and why it was applied.
type Deduction struct {
	Reason string  `json:"reason"`
	Points float64 `json:"points"`
	Detail string  `json:"detail,omitempty"`
}

// Score is the aggregate quality result for a table: a 0-100 score plus
// the completeness percentage (100 - overall missing %). Pure derivation
// from profile and issues; nothing is persisted.
type Score struct {
	Strategy     string      `json:"strategy"`
	Value        float64     `json:"score"`
	Completeness float64     `json:"completeness"`
	Deductions   []Deduction `json:"deductions,omitempty"`
}
