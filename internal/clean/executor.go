// Package clean applies declarative cleaning transforms to a table
// snapshot. Transforms are copy-on-write: the input snapshot is never
// mutated, each step yields a replacement plus a change record. A failing
// step is reported and skipped; the remaining steps still run.
package clean

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
)

// Executor applies cleaning plans.
type Executor struct {
	titleCaser cases.Caser
}

// NewExecutor creates an Executor.
func NewExecutor() *Executor {
	return &Executor{titleCaser: cases.Title(language.English)}
}

// Apply runs an ordered list of cleaning steps against a snapshot and
// returns the cleaned snapshot with one change record per step.
func (e *Executor) Apply(snap *frame.Snapshot, steps []model.CleaningStep) (*frame.Snapshot, []model.ChangeRecord) {
	current := snap
	changes := make([]model.ChangeRecord, 0, len(steps))

	for _, step := range steps {
		next, rec, err := e.applyStep(current, step)
		if err != nil {
			rec = model.ChangeRecord{
				Step:   stepLabel(step.Op),
				Column: step.Column,
				Error:  err.Error(),
			}
			zap.L().Warn("clean: step failed, skipping",
				zap.String("op", string(step.Op)),
				zap.String("column", step.Column),
				zap.Error(err),
			)
			changes = append(changes, rec)
			continue
		}
		current = next
		changes = append(changes, rec)
	}

	return current, changes
}

func (e *Executor) applyStep(snap *frame.Snapshot, step model.CleaningStep) (*frame.Snapshot, model.ChangeRecord, error) {
	switch step.Op {
	case model.OpFillMissing:
		return e.fillMissing(snap, step)
	case model.OpRemoveDuplicates:
		return e.removeDuplicates(snap, step)
	case model.OpConvertType:
		return e.convertType(snap, step)
	case model.OpHandleOutliers:
		return e.handleOutliers(snap, step)
	case model.OpStandardizeValues:
		return e.standardizeValues(snap, step)
	default:
		return nil, model.ChangeRecord{}, eris.Errorf("clean: unknown operation %q", step.Op)
	}
}

func (e *Executor) fillMissing(snap *frame.Snapshot, step model.CleaningStep) (*frame.Snapshot, model.ChangeRecord, error) {
	col, ok := snap.Column(step.Column)
	if !ok {
		return nil, model.ChangeRecord{}, eris.Errorf("clean: column not found: %s", step.Column)
	}

	method := step.Method
	if method == "" {
		method = model.FillConstant
	}

	var fill any
	switch method {
	case model.FillConstant:
		if step.Value == nil {
			return nil, model.ChangeRecord{}, eris.New("clean: fill_missing with constant requires a value")
		}
		fill = step.Value
	case model.FillMean, model.FillMedian:
		vals := col.Floats()
		if len(vals) == 0 {
			return nil, model.ChangeRecord{}, eris.Errorf("clean: fill_missing %s on non-numeric column %s", method, step.Column)
		}
		if method == model.FillMean {
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			fill = sum / float64(len(vals))
		} else {
			m, _ := frame.Quantile(vals, 0.5)
			fill = m
		}
	case model.FillMode:
		m, ok := modeValue(col)
		if !ok {
			return nil, model.ChangeRecord{}, eris.Errorf("clean: fill_missing mode on all-missing column %s", step.Column)
		}
		fill = m
	case model.FillForward, model.FillBackward:
		// Handled positionally below.
	default:
		return nil, model.ChangeRecord{}, eris.Errorf("clean: unknown fill method %q", method)
	}

	before := col.MissingCount()
	values := make([]any, len(col.Values))
	copy(values, col.Values)

	switch method {
	case model.FillForward:
		var last any
		for i, v := range values {
			if v == nil {
				values[i] = last
			} else {
				last = v
			}
		}
	case model.FillBackward:
		var next any
		for i := len(values) - 1; i >= 0; i-- {
			if values[i] == nil {
				values[i] = next
			} else {
				next = values[i]
			}
		}
	default:
		for i, v := range values {
			if v == nil {
				values[i] = fill
			}
		}
	}

	next, err := snap.WithColumn(step.Column, values)
	if err != nil {
		return nil, model.ChangeRecord{}, err
	}
	after, _ := next.Column(step.Column)

	return next, model.ChangeRecord{
		Step:   "Fill Missing Values",
		Column: step.Column,
		Params: map[string]any{
			"method": string(method),
			"value":  fmt.Sprintf("%v", fill),
		},
		RowsAffected: before - after.MissingCount(),
	}, nil
}

func (e *Executor) removeDuplicates(snap *frame.Snapshot, step model.CleaningStep) (*frame.Snapshot, model.ChangeRecord, error) {
	keep := step.Keep
	if keep == "" {
		keep = "first"
	}
	if keep != "first" && keep != "last" {
		return nil, model.ChangeRecord{}, eris.Errorf("clean: remove_duplicates keep must be first or last, got %q", keep)
	}
	for _, name := range step.Subset {
		if _, ok := snap.Column(name); !ok {
			return nil, model.ChangeRecord{}, eris.Errorf("clean: column not found: %s", name)
		}
	}

	rows := snap.NumRows()
	var keepIdx []int
	if keep == "first" {
		seen := make(map[string]struct{}, rows)
		for i := 0; i < rows; i++ {
			key := snap.RowKey(i, step.Subset)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keepIdx = append(keepIdx, i)
		}
	} else {
		seen := make(map[string]struct{}, rows)
		for i := rows - 1; i >= 0; i-- {
			key := snap.RowKey(i, step.Subset)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keepIdx = append(keepIdx, i)
		}
		sort.Ints(keepIdx)
	}

	next := snap.SelectRows(keepIdx)
	return next, model.ChangeRecord{
		Step: "Remove Duplicates",
		Params: map[string]any{
			"keep":   keep,
			"subset": step.Subset,
		},
		RowsAffected: rows - len(keepIdx),
	}, nil
}

func (e *Executor) convertType(snap *frame.Snapshot, step model.CleaningStep) (*frame.Snapshot, model.ChangeRecord, error) {
	col, ok := snap.Column(step.Column)
	if !ok {
		return nil, model.ChangeRecord{}, eris.Errorf("clean: column not found: %s", step.Column)
	}

	values := make([]any, len(col.Values))
	switch step.TargetType {
	case "date":
		for i, v := range col.Values {
			values[i] = coerceDate(v)
		}
	case "numeric":
		for i, v := range col.Values {
			values[i] = coerceNumeric(v)
		}
	case "categorical":
		for i, v := range col.Values {
			if v == nil {
				continue
			}
			values[i] = fmt.Sprintf("%v", v)
		}
	default:
		return nil, model.ChangeRecord{}, eris.Errorf("clean: convert_type target must be date, numeric, or categorical, got %q", step.TargetType)
	}

	next, err := snap.WithColumn(step.Column, values)
	if err != nil {
		return nil, model.ChangeRecord{}, err
	}
	return next, model.ChangeRecord{
		Step:   "Convert Data Type",
		Column: step.Column,
		Params: map[string]any{
			"target_type": step.TargetType,
		},
		// The whole column is processed; unparsable values become null.
		RowsAffected: snap.NumRows(),
	}, nil
}

func (e *Executor) handleOutliers(snap *frame.Snapshot, step model.CleaningStep) (*frame.Snapshot, model.ChangeRecord, error) {
	col, ok := snap.Column(step.Column)
	if !ok {
		return nil, model.ChangeRecord{}, eris.Errorf("clean: column not found: %s", step.Column)
	}

	vals := col.Floats()
	q1, ok1 := frame.Quantile(vals, 0.25)
	q3, ok3 := frame.Quantile(vals, 0.75)
	if !ok1 || !ok3 {
		return nil, model.ChangeRecord{}, eris.Errorf("clean: handle_outliers on non-numeric column %s", step.Column)
	}
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	affected := 0
	values := make([]any, len(col.Values))
	copy(values, col.Values)
	for i, v := range values {
		f, isNum := frame.Float64(v)
		if !isNum {
			continue
		}
		switch {
		case f < lower:
			values[i] = lower
			affected++
		case f > upper:
			values[i] = upper
			affected++
		}
	}

	next, err := snap.WithColumn(step.Column, values)
	if err != nil {
		return nil, model.ChangeRecord{}, err
	}
	return next, model.ChangeRecord{
		Step:   "Cap Outliers",
		Column: step.Column,
		Params: map[string]any{
			"lower_bound": lower,
			"upper_bound": upper,
		},
		RowsAffected: affected,
	}, nil
}

func (e *Executor) standardizeValues(snap *frame.Snapshot, step model.CleaningStep) (*frame.Snapshot, model.ChangeRecord, error) {
	col, ok := snap.Column(step.Column)
	if !ok {
		return nil, model.ChangeRecord{}, eris.Errorf("clean: column not found: %s", step.Column)
	}
	if len(step.Mapping) == 0 && step.CaseFold == "" {
		return nil, model.ChangeRecord{}, eris.New("clean: standardize_values requires a mapping or case_fold")
	}

	fold, err := e.caseFolder(step.CaseFold)
	if err != nil {
		return nil, model.ChangeRecord{}, err
	}

	affected := 0
	values := make([]any, len(col.Values))
	copy(values, col.Values)
	for i, v := range values {
		s, isStr := v.(string)
		if !isStr {
			continue
		}
		out := s
		if mapped, hit := step.Mapping[out]; hit {
			out = mapped
			affected++
		}
		if fold != nil {
			out = fold(out)
		}
		values[i] = out
	}

	// Recount for case-fold-only plans: rows affected is the number of
	// values that actually changed.
	if len(step.Mapping) == 0 {
		affected = 0
		for i, v := range col.Values {
			if v != values[i] {
				affected++
			}
		}
	}

	next, err := snap.WithColumn(step.Column, values)
	if err != nil {
		return nil, model.ChangeRecord{}, err
	}
	return next, model.ChangeRecord{
		Step:   "Standardize Values",
		Column: step.Column,
		Params: map[string]any{
			"mapping":   step.Mapping,
			"case_fold": step.CaseFold,
		},
		RowsAffected: affected,
	}, nil
}

func (e *Executor) caseFolder(name string) (func(string) string, error) {
	switch name {
	case "":
		return nil, nil
	case "title":
		return e.titleCaser.String, nil
	case "upper":
		return strings.ToUpper, nil
	case "lower":
		return strings.ToLower, nil
	default:
		return nil, eris.Errorf("clean: unknown case_fold %q (title, upper, lower)", name)
	}
}

func modeValue(col *frame.Column) (any, bool) {
	counts := make(map[string]int)
	first := make(map[string]any)
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		key := fmt.Sprintf("%v", v)
		counts[key]++
		if _, ok := first[key]; !ok {
			first[key] = v
		}
	}
	bestKey, best := "", 0
	for k, n := range counts {
		if n > best || (n == best && k < bestKey) {
			bestKey, best = k, n
		}
	}
	if best == 0 {
		return nil, false
	}
	return first[bestKey], true
}

func coerceNumeric(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int, int32, int64, float32, float64:
		return v
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", ""))
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil
	default:
		return nil
	}
}

var convertDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

func coerceDate(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x
	case string:
		for _, layout := range convertDateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t
			}
		}
		return nil
	default:
		return nil
	}
}

func stepLabel(op model.OpKind) string {
	switch op {
	case model.OpFillMissing:
		return "Fill Missing Values"
	case model.OpRemoveDuplicates:
		return "Remove Duplicates"
	case model.OpConvertType:
		return "Convert Data Type"
	case model.OpHandleOutliers:
		return "Cap Outliers"
	case model.OpStandardizeValues:
		return "Standardize Values"
	default:
		return string(op)
	}
}
