package frame

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Kind tags the inferred type of a column.
type Kind string

const (
	KindString  Kind = "string"
	KindInt     Kind = "integer"
	KindFloat   Kind = "float"
	KindBool    Kind = "boolean"
	KindTime    Kind = "timestamp"
	KindUnknown Kind = "unknown" // all values missing
)

// Column is a single named column. A nil value marks a missing cell.
type Column struct {
	Name   string
	Values []any
}

// Snapshot is the in-memory working copy of a loaded table. It is owned by
// a single session; cleaning operations never mutate it in place, they
// produce a replacement.
type Snapshot struct {
	Table   string
	Columns []*Column
}

// New builds a Snapshot, validating that all columns have equal length.
func New(table string, cols []*Column) (*Snapshot, error) {
	if len(cols) > 0 {
		n := len(cols[0].Values)
		for _, c := range cols[1:] {
			if len(c.Values) != n {
				return nil, eris.Errorf("frame: column %s has %d rows, expected %d", c.Name, len(c.Values), n)
			}
		}
	}
	return &Snapshot{Table: table, Columns: cols}, nil
}

// NumRows returns the row count.
func (s *Snapshot) NumRows() int {
	if len(s.Columns) == 0 {
		return 0
	}
	return len(s.Columns[0].Values)
}

// NumCols returns the column count.
func (s *Snapshot) NumCols() int { return len(s.Columns) }

// ColumnNames returns column names in order.
func (s *Snapshot) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or false if absent.
func (s *Snapshot) Column(name string) (*Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Clone deep-copies the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	cols := make([]*Column, len(s.Columns))
	for i, c := range s.Columns {
		vals := make([]any, len(c.Values))
		copy(vals, c.Values)
		cols[i] = &Column{Name: c.Name, Values: vals}
	}
	return &Snapshot{Table: s.Table, Columns: cols}
}

// WithColumn returns a copy of the snapshot with the named column replaced.
// Unreplaced columns share backing slices with the original; callers must
// treat snapshots as immutable.
func (s *Snapshot) WithColumn(name string, values []any) (*Snapshot, error) {
	if len(values) != s.NumRows() {
		return nil, eris.Errorf("frame: replacement for %s has %d rows, expected %d", name, len(values), s.NumRows())
	}
	cols := make([]*Column, len(s.Columns))
	found := false
	for i, c := range s.Columns {
		if c.Name == name {
			cols[i] = &Column{Name: name, Values: values}
			found = true
		} else {
			cols[i] = c
		}
	}
	if !found {
		return nil, eris.Errorf("frame: column not found: %s", name)
	}
	return &Snapshot{Table: s.Table, Columns: cols}, nil
}

// SelectRows returns a copy keeping only the rows at the given indices,
// in the given order.
func (s *Snapshot) SelectRows(idx []int) *Snapshot {
	cols := make([]*Column, len(s.Columns))
	for i, c := range s.Columns {
		vals := make([]any, 0, len(idx))
		for _, ri := range idx {
			vals = append(vals, c.Values[ri])
		}
		cols[i] = &Column{Name: c.Name, Values: vals}
	}
	return &Snapshot{Table: s.Table, Columns: cols}
}

// RowKey builds a deduplication key for row i over the given columns
// (all columns when subset is empty).
func (s *Snapshot) RowKey(i int, subset []string) string {
	var b strings.Builder
	cols := s.Columns
	if len(subset) > 0 {
		cols = make([]*Column, 0, len(subset))
		for _, name := range subset {
			if c, ok := s.Column(name); ok {
				cols = append(cols, c)
			}
		}
	}
	for _, c := range cols {
		v := c.Values[i]
		if v == nil {
			b.WriteString("\x00")
		} else {
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteString("\x1f")
	}
	return b.String()
}

// DuplicateIndices returns indices of rows that are duplicates of an
// earlier row, considering the full row.
func (s *Snapshot) DuplicateIndices() []int {
	seen := make(map[string]struct{}, s.NumRows())
	var dups []int
	for i := 0; i < s.NumRows(); i++ {
		key := s.RowKey(i, nil)
		if _, ok := seen[key]; ok {
			dups = append(dups, i)
		} else {
			seen[key] = struct{}{}
		}
	}
	return dups
}

// MissingCount returns the number of nil cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// DistinctCount returns the number of distinct non-missing values.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{})
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		seen[fmt.Sprintf("%v", v)] = struct{}{}
	}
	return len(seen)
}

// Kind infers the column type from its non-missing values. A mix of
// integers and floats is float; any other mix degrades to string.
func (c *Column) Kind() Kind {
	var ints, floats, bools, times, strs int
	for _, v := range c.Values {
		switch v.(type) {
		case nil:
		case int, int32, int64:
			ints++
		case float32, float64:
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			strs++
		}
	}
	total := ints + floats + bools + times + strs
	switch {
	case total == 0:
		return KindUnknown
	case strs > 0:
		return KindString
	case times == total:
		return KindTime
	case bools == total:
		return KindBool
	case ints == total:
		return KindInt
	case ints+floats == total:
		return KindFloat
	default:
		return KindString
	}
}

// Float64 coerces a single cell to float64. Strings are not parsed here;
// use clean.ParseNumeric for coercion with fallback to null.
func Float64(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	default:
		return 0, false
	}
}

// Floats returns the non-missing numeric values of the column.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := Float64(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Quantile computes the q-th quantile (0..1) of values using linear
// interpolation between closest ranks, matching the convention the
// profiling SQL uses (PERCENTILE_CONT).
func Quantile(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], true
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac, true
}

// Round2 rounds to 2 decimal places.
func Round2(f float64) float64 { return math.Round(f*100) / 100 }

// Round1 rounds to 1 decimal place.
func Round1(f float64) float64 { return math.Round(f*10) / 10 }
