package datasource

import (
	"context"

	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// RowReader is the subset of the series repository the postgres source needs.
type RowReader interface {
	Rows(ctx context.Context, source string) ([]models.RawRow, error)
}

// PostgresSource serves rows previously imported into series_rows.
type PostgresSource struct {
	repo RowReader
}

func NewPostgresSource(repo RowReader) *PostgresSource {
	return &PostgresSource{repo: repo}
}

func (s *PostgresSource) Rows(ctx context.Context, name string) ([]models.RawRow, error) {
	rows, err := s.repo.Rows(ctx, name)
	if err != nil {
		return nil, unavailable(name, err)
	}
	return rows, nil
}
