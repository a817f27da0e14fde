package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
)

// Pool abstracts pgxpool.Pool for testing with pgxmock.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresSource implements Source over a pgx connection pool, for
// deployments where the location tables live in a warehouse.
type PostgresSource struct {
	pool Pool
}

// NewPostgres creates a PostgresSource with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSource{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (tests).
func NewPostgresWithPool(pool Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Dialect() string { return "postgres" }

func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresSource) ListTables(ctx context.Context) ([]model.TableMeta, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		 ORDER BY table_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tables")
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan table name")
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list tables iterate")
	}

	metas := make([]model.TableMeta, 0, len(names))
	for _, name := range names {
		var count int64
		if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+quoteIdent(name)).Scan(&count); err != nil {
			return nil, eris.Wrapf(err, "postgres: count rows in %s", name)
		}
		metas = append(metas, model.TableMeta{Name: name, RowCount: count})
	}
	return metas, nil
}

func (s *PostgresSource) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name = $1
		 ORDER BY ordinal_position`,
		table,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: columns of %s", table)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan column name")
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: columns iterate")
	}
	if len(cols) == 0 {
		return nil, eris.Errorf("source: table not found: %s", table)
	}
	return cols, nil
}

func (s *PostgresSource) LoadTable(ctx context.Context, table string, sampleSize int) (*frame.Snapshot, error) {
	// Explicit introspection first: a missing table is a labeled error.
	if _, err := s.Columns(ctx, table); err != nil {
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

func (s *PostgresSource) Query(ctx context.Context, query string, args ...any) (*frame.Snapshot, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query")
	}
	defer rows.Close()
	return scanPgxRows(rows)
}

func (s *PostgresSource) SaveTable(ctx context.Context, snap *frame.Snapshot, name string) (string, error) {
	if snap == nil || snap.NumCols() == 0 {
		return "", eris.New("postgres: cannot save empty snapshot")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", eris.Wrap(err, "postgres: begin save")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	defs := make([]string, len(snap.Columns))
	names := make([]string, len(snap.Columns))
	placeholders := make([]string, len(snap.Columns))
	for i, col := range snap.Columns {
		defs[i] = quoteIdent(col.Name) + " " + columnType(col.Kind())
		names[i] = quoteIdent(col.Name)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	createSQL := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return "", eris.Wrapf(err, "postgres: create table %s", name)
	}

	insertSQL := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(name), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	rowVals := make([]any, len(snap.Columns))
	for r := 0; r < snap.NumRows(); r++ {
		for c, col := range snap.Columns {
			rowVals[c] = col.Values[r]
		}
		if _, err := tx.Exec(ctx, insertSQL, rowVals...); err != nil {
			return "", eris.Wrapf(err, "postgres: insert row %d into %s", r, name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", eris.Wrapf(err, "postgres: commit save of %s", name)
	}
	return name, nil
}

// CountOutliers pushes the full IQR computation into the warehouse.
func (s *PostgresSource) CountOutliers(ctx context.Context, table, column string) (int, error) {
	col := quoteIdent(column)
	tbl := quoteIdent(table)
	query := fmt.Sprintf(`
		WITH stats AS (
			SELECT
				PERCENTILE_CONT(0.25) WITHIN GROUP (ORDER BY %[1]s) AS q1,
				PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY %[1]s) AS q3
			FROM %[2]s
			WHERE %[1]s IS NOT NULL
		)
		SELECT COUNT(*) FROM %[2]s, stats
		WHERE %[1]s < q1 - 1.5 * (q3 - q1) OR %[1]s > q3 + 1.5 * (q3 - q1)`,
		col, tbl,
	)

	var count int
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, eris.Wrapf(err, "postgres: count outliers in %s.%s", table, column)
	}
	return count, nil
}

func scanPgxRows(rows pgx.Rows) (*frame.Snapshot, error) {
	fields := rows.FieldDescriptions()
	cols := make([]*frame.Column, len(fields))
	for i, f := range fields {
		cols[i] = &frame.Column{Name: string(f.Name)}
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrap(err, "postgres: row values")
		}
		for i, v := range vals {
			cols[i].Values = append(cols[i].Values, normalizeValue(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate rows")
	}

	return frame.New("", cols)
}
