package database

import (
	"context"
	"fmt"

	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// SeriesSchema creates the table backing the postgres data source. Each CSV file maps to
// one source name; start and open are stored as the raw strings the CSV carried.
const SeriesSchema = `
CREATE TABLE IF NOT EXISTS series_rows (
	id BIGSERIAL PRIMARY KEY,
	source TEXT NOT NULL,
	start TEXT NOT NULL,
	open TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_series_rows_source ON series_rows (source, id)`

// SeriesRepository reads raw series rows stored in PostgreSQL.
type SeriesRepository struct {
	pool DatabasePool
}

// NewSeriesRepository creates a new series repository.
func NewSeriesRepository(pool DatabasePool) *SeriesRepository {
	return &SeriesRepository{pool: pool}
}

// EnsureSchema creates series_rows when missing.
func (r *SeriesRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, SeriesSchema); err != nil {
		return fmt.Errorf("failed to create series_rows: %w", err)
	}
	return nil
}

// Rows returns every row of a source in insertion order.
func (r *SeriesRepository) Rows(ctx context.Context, source string) ([]models.RawRow, error) {
	query := `SELECT start, open FROM series_rows WHERE source = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query series rows for %s: %w", source, err)
	}
	defer rows.Close()

	var out []models.RawRow
	for rows.Next() {
		var row models.RawRow
		if err := rows.Scan(&row.Start, &row.Open); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series rows: %w", err)
	}
	return out, nil
}

// Count returns how many rows a source holds.
func (r *SeriesRepository) Count(ctx context.Context, source string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM series_rows WHERE source = $1`
	if err := r.pool.QueryRow(ctx, query, source).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count series rows for %s: %w", source, err)
	}
	return count, nil
}
