package model

// TableMeta describes a table available in the data source.
type TableMeta struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}
