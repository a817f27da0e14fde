package source

import (
	"context"
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplor/dataplor-cli/internal/frame"
)

func newTestPostgres(t *testing.T) (*PostgresSource, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_ListTables(t *testing.T) {
	src, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(pgxmock.NewRows([]string{"table_name"}).
			AddRow("places").
			AddRow("stores"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "places"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "stores"`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(10)))

	metas, err := src.ListTables(context.Background())
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "places", metas[0].Name)
	assert.Equal(t, int64(3), metas[0].RowCount)
	assert.Equal(t, int64(10), metas[1].RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Columns(t *testing.T) {
	src, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("places").
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}).
			AddRow("name").
			AddRow("latitude"))

	cols, err := src.Columns(context.Background(), "places")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "latitude"}, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Columns_TableNotFound(t *testing.T) {
	src, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}))

	_, err := src.Columns(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table not found: nope")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadTableSample(t *testing.T) {
	src, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("places").
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}).AddRow("name"))
	mock.ExpectQuery(`SELECT \* FROM "places" LIMIT 2`).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).
			AddRow("Albertsons").
			AddRow("WinCo"))

	snap, err := src.LoadTable(context.Background(), "places", 2)
	require.NoError(t, err)
	assert.Equal(t, "places", snap.Table)
	assert.Equal(t, 2, snap.NumRows())

	name, ok := snap.Column("name")
	require.True(t, ok)
	assert.Equal(t, []any{"Albertsons", "WinCo"}, name.Values)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountOutliers(t *testing.T) {
	src, mock := newTestPostgres(t)

	mock.ExpectQuery(`PERCENTILE_CONT`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	n, err := src.CountOutliers(context.Background(), "places", "visits")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveTable(t *testing.T) {
	src, mock := newTestPostgres(t)

	snap, err := frame.New("places", []*frame.Column{
		{Name: "name", Values: []any{"Albertsons", "WinCo"}},
		{Name: "visits", Values: []any{int64(1), int64(2)}},
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "places_clean"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`INSERT INTO "places_clean"`).
		WithArgs("Albertsons", int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO "places_clean"`).
		WithArgs("WinCo", int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	name, err := src.SaveTable(context.Background(), snap, "places_clean")
	require.NoError(t, err)
	assert.Equal(t, "places_clean", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveTable_CreateError(t *testing.T) {
	src, mock := newTestPostgres(t)

	snap, err := frame.New("places", []*frame.Column{
		{Name: "name", Values: []any{"Albertsons"}},
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "boom"`).
		WillReturnError(fmt.Errorf("permission denied"))
	mock.ExpectRollback()

	_, err = src.SaveTable(context.Background(), snap, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}
