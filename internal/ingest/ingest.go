// Package ingest reads CSV and XLSX files into snapshots so they can be
// registered as tables in the configured source.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/dataplor/dataplor-cli/internal/frame"
)

// ReadFile loads a .csv or .xlsx file into a snapshot. The snapshot's
// table name is derived from the file name plus an import timestamp, so
// repeated imports of the same file never collide.
func ReadFile(path string) (*frame.Snapshot, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx":
		records, err = readXLSX(path)
	default:
		return nil, eris.Errorf("ingest: unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.Errorf("ingest: %s is empty", path)
	}

	snap, err := fromRecords(records)
	if err != nil {
		return nil, err
	}
	snap.Table = TableName(path, time.Now())
	return snap, nil
}

// TableName derives the destination table name from the file path.
func TableName(path string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = sanitize(base)
	return fmt.Sprintf("%s_%s", base, at.Format("20060102_150405"))
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: parse csv %s", path)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}
	if len(file.Sheets) == 0 {
		return nil, eris.Errorf("ingest: %s has no sheets", path)
	}

	// First sheet only, matching the common single-sheet export shape.
	sheet := file.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rec := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			rec[i] = cell.String()
		}
		records = append(records, rec)
	}
	return records, nil
}

// fromRecords turns a header row plus data rows into typed columns.
func fromRecords(records [][]string) (*frame.Snapshot, error) {
	header := records[0]
	if len(header) == 0 {
		return nil, eris.New("ingest: header row is empty")
	}

	cols := make([]*frame.Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		cols[i] = &frame.Column{Name: sanitize(name)}
	}

	for _, rec := range records[1:] {
		for i := range cols {
			var raw string
			if i < len(rec) {
				raw = strings.TrimSpace(rec[i])
			}
			if raw == "" {
				cols[i].Values = append(cols[i].Values, nil)
			} else {
				cols[i].Values = append(cols[i].Values, raw)
			}
		}
	}

	for _, col := range cols {
		inferColumn(col)
	}
	return frame.New("", cols)
}

// inferColumn promotes a string column to integer, float or boolean when
// every non-missing value parses; mixed columns stay as text.
func inferColumn(col *frame.Column) {
	var ints, floats, bools, present int
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		present++
		s := v.(string)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			ints++
			floats++
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			floats++
			continue
		}
		switch strings.ToLower(s) {
		case "true", "false":
			bools++
		}
	}
	if present == 0 {
		return
	}

	switch {
	case ints == present:
		for i, v := range col.Values {
			if v == nil {
				continue
			}
			n, _ := strconv.ParseInt(v.(string), 10, 64)
			col.Values[i] = n
		}
	case floats == present:
		for i, v := range col.Values {
			if v == nil {
				continue
			}
			f, _ := strconv.ParseFloat(v.(string), 64)
			col.Values[i] = f
		}
	case bools == present:
		for i, v := range col.Values {
			if v == nil {
				continue
			}
			col.Values[i] = strings.EqualFold(v.(string), "true")
		}
	}
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.':
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "table"
	}
	return out
}
