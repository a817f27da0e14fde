package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
)

// SQLiteSource implements Source over modernc.org/sqlite. This is the
// embedded analytical engine used for local assessment work.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path.
func NewSQLite(dsn string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Dialect() string { return "sqlite" }

func (s *SQLiteSource) Close() error { return s.db.Close() }

func (s *SQLiteSource) ListTables(ctx context.Context) ([]model.TableMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan table name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list tables iterate")
	}

	metas := make([]model.TableMeta, 0, len(names))
	for _, name := range names {
		var count int64
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quoteIdent(name)).Scan(&count); err != nil {
			return nil, eris.Wrapf(err, "sqlite: count rows in %s", name)
		}
		metas = append(metas, model.TableMeta{Name: name, RowCount: count})
	}
	return metas, nil
}

func (s *SQLiteSource) Columns(ctx context.Context, table string) ([]string, error) {
	if err := s.checkTable(ctx, table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: columns of %s", table)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan column name")
		}
		cols = append(cols, name)
	}
	return cols, eris.Wrap(rows.Err(), "sqlite: columns iterate")
}

func (s *SQLiteSource) LoadTable(ctx context.Context, table string, sampleSize int) (*frame.Snapshot, error) {
	if err := s.checkTable(ctx, table); err != nil {
		return nil, err
	}

	query := `SELECT * FROM ` + quoteIdent(table)
	if sampleSize > 0 {
		query += fmt.Sprintf(` LIMIT %d`, sampleSize)
	}

	snap, err := s.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	snap.Table = table
	return snap, nil
}

func (s *SQLiteSource) Query(ctx context.Context, query string, args ...any) (*frame.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query")
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *SQLiteSource) SaveTable(ctx context.Context, snap *frame.Snapshot, name string) (string, error) {
	if snap == nil || snap.NumCols() == 0 {
		return "", eris.New("sqlite: cannot save empty snapshot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback() //nolint:errcheck

	defs := make([]string, len(snap.Columns))
	placeholders := make([]string, len(snap.Columns))
	names := make([]string, len(snap.Columns))
	for i, col := range snap.Columns {
		defs[i] = quoteIdent(col.Name) + " " + columnType(col.Kind())
		placeholders[i] = "?"
		names[i] = quoteIdent(col.Name)
	}

	createSQL := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return "", eris.Wrapf(err, "sqlite: create table %s", name)
	}

	insertSQL := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(name), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: prepare insert into %s", name)
	}
	defer stmt.Close()

	rowVals := make([]any, len(snap.Columns))
	for r := 0; r < snap.NumRows(); r++ {
		for c, col := range snap.Columns {
			rowVals[c] = normalizeForWrite(col.Values[r])
		}
		if _, err := stmt.ExecContext(ctx, rowVals...); err != nil {
			return "", eris.Wrapf(err, "sqlite: insert row %d into %s", r, name)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrapf(err, "sqlite: commit save of %s", name)
	}
	return name, nil
}

// CountOutliers pulls the column's non-null values ordered and applies
// the IQR rule. SQLite has no PERCENTILE_CONT, so the quartiles are
// computed client-side and the count pushed back down.
func (s *SQLiteSource) CountOutliers(ctx context.Context, table, column string) (int, error) {
	if err := s.checkTable(ctx, table); err != nil {
		return 0, err
	}

	col := quoteIdent(column)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s`, col, quoteIdent(table), col, col),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: read %s.%s", table, column)
	}
	defer rows.Close()

	var vals []float64
	for rows.Next() {
		var f sql.NullFloat64
		if err := rows.Scan(&f); err != nil {
			return 0, eris.Wrapf(err, "sqlite: scan %s.%s", table, column)
		}
		if f.Valid {
			vals = append(vals, f.Float64)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "sqlite: outlier scan iterate")
	}

	q1, ok1 := frame.Quantile(vals, 0.25)
	q3, ok3 := frame.Quantile(vals, 0.75)
	if !ok1 || !ok3 {
		return 0, eris.Errorf("sqlite: no numeric values in %s.%s", table, column)
	}
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	var count int
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s < ? OR %s > ?`, quoteIdent(table), col, col),
		lower, upper,
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: count outliers in %s.%s", table, column)
	}
	return count, nil
}

// checkTable verifies the table exists so that a missing table surfaces
// as a labeled failure rather than a raw SQL error.
func (s *SQLiteSource) checkTable(ctx context.Context, table string) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&n)
	if err != nil {
		return eris.Wrapf(err, "sqlite: check table %s", table)
	}
	if n == 0 {
		return eris.Errorf("source: table not found: %s", table)
	}
	return nil
}

// scanRows converts a generic result set into a snapshot. Byte slices
// are normalized to strings; integral floats stay floats.
func scanRows(rows *sql.Rows) (*frame.Snapshot, error) {
	colNames, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: result columns")
	}

	cols := make([]*frame.Column, len(colNames))
	for i, name := range colNames {
		cols[i] = &frame.Column{Name: name}
	}

	for rows.Next() {
		cells := make([]any, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		for i, v := range cells {
			cols[i].Values = append(cols[i].Values, normalizeValue(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate rows")
	}

	return frame.New("", cols)
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	default:
		return v
	}
}

func normalizeForWrite(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
