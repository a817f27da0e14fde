// Package source connects to the analytical data store holding the
// location tables. Two backends are supported: an embedded SQLite
// database and a Postgres warehouse, selected by config. The core
// profiler/classifier/scorer/executor never touch a Source directly;
// they operate on the in-memory snapshot it loads.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dataplor/dataplor-cli/internal/config"
	"github.com/dataplor/dataplor-cli/internal/frame"
	"github.com/dataplor/dataplor-cli/internal/model"
)

// Source is the data source connector.
type Source interface {
	// ListTables returns the tables available in the source with row counts.
	ListTables(ctx context.Context) ([]model.TableMeta, error)

	// Columns introspects the column names of a table. Absence of a
	// column is a normal branch for callers, not an error path.
	Columns(ctx context.Context, table string) ([]string, error)

	// LoadTable loads a table into a snapshot. sampleSize > 0 limits the
	// number of rows loaded.
	LoadTable(ctx context.Context, table string, sampleSize int) (*frame.Snapshot, error)

	// Query runs an arbitrary read query and returns the result set as a
	// snapshot.
	Query(ctx context.Context, sql string, args ...any) (*frame.Snapshot, error)

	// SaveTable bulk-writes a snapshot to a new table and returns its name.
	SaveTable(ctx context.Context, snap *frame.Snapshot, name string) (string, error)

	// CountOutliers counts IQR outliers for a numeric column directly
	// against the source.
	CountOutliers(ctx context.Context, table, column string) (int, error)

	// Dialect returns the SQL dialect tag ("sqlite" or "postgres") for
	// query composition.
	Dialect() string

	Close() error
}

// Open creates the configured Source backend.
func Open(ctx context.Context, cfg config.SourceConfig) (Source, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("source: unsupported driver %q", cfg.Driver)
	}
}

// columnType maps a column kind to a portable SQL type for bulk saves.
func columnType(k frame.Kind) string {
	switch k {
	case frame.KindInt:
		return "BIGINT"
	case frame.KindFloat:
		return "DOUBLE PRECISION"
	case frame.KindBool:
		return "BOOLEAN"
	case frame.KindTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
