package database

import (
	"context"
	"errors"
	"testing"

	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesRepository_Rows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSeriesRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT start, open FROM series_rows WHERE source = \$1 ORDER BY id`).
		WithArgs("kaspa_prices_btc_api.csv").
		WillReturnRows(pgxmock.NewRows([]string{"start", "open"}).
			AddRow("2024-01-01", "0.0000012").
			AddRow("2024-01-02", "0.0000013"))

	rows, err := repo.Rows(ctx, "kaspa_prices_btc_api.csv")
	require.NoError(t, err)
	assert.Equal(t, []models.RawRow{
		{Start: "2024-01-01", Open: "0.0000012"},
		{Start: "2024-01-02", Open: "0.0000013"},
	}, rows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepository_Rows_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSeriesRepository(mock)

	mock.ExpectQuery(`SELECT start, open FROM series_rows`).
		WithArgs("missing.csv").
		WillReturnError(errors.New("connection reset"))

	rows, err := repo.Rows(context.Background(), "missing.csv")
	assert.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "missing.csv")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepository_Rows_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSeriesRepository(mock)

	mock.ExpectQuery(`SELECT start, open FROM series_rows`).
		WithArgs("empty.csv").
		WillReturnRows(pgxmock.NewRows([]string{"start", "open"}))

	rows, err := repo.Rows(context.Background(), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepository_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSeriesRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM series_rows WHERE source = \$1`).
		WithArgs("a.csv").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := repo.Count(context.Background(), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeriesRepository_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSeriesRepository(mock)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS series_rows`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS series_rows`).
		WillReturnError(errors.New("permission denied"))
	assert.Error(t, repo.EnsureSchema(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTracedPool_DelegatesToPool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSeriesRepository(NewTracedPool(mock))

	mock.ExpectQuery(`SELECT start, open FROM series_rows`).
		WithArgs("a.csv").
		WillReturnRows(pgxmock.NewRows([]string{"start", "open"}).AddRow("2024-01-01", "1"))
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("a.csv").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectExec(`CREATE TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	rows, err := repo.Rows(context.Background(), "a.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	count, err := repo.Count(context.Background(), "a.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck_NotConnected(t *testing.T) {
	var db *PostgresDB
	assert.Error(t, db.HealthCheck(context.Background()))

	var rc *RedisClient
	assert.Error(t, rc.HealthCheck(context.Background()))

	assert.NotPanics(t, func() { (&PostgresDB{}).Close() })
	assert.NotPanics(t, func() { (&RedisClient{}).Close() })
}
