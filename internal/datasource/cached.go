package datasource

import (
	"context"

	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/sirupsen/logrus"
)

// RowStore is a cache of source rows keyed by name.
type RowStore interface {
	Get(ctx context.Context, name string) ([]models.RawRow, bool)
	Set(ctx context.Context, name string, rows []models.RawRow) error
}

// CachedSource is a read-through cache in front of another source. Cache write failures
// are logged and otherwise ignored.
type CachedSource struct {
	inner  Source
	store  RowStore
	logger *logrus.Logger
}

func NewCachedSource(inner Source, store RowStore, logger *logrus.Logger) *CachedSource {
	return &CachedSource{inner: inner, store: store, logger: logger}
}

func (s *CachedSource) Rows(ctx context.Context, name string) ([]models.RawRow, error) {
	if rows, ok := s.store.Get(ctx, name); ok {
		return rows, nil
	}

	rows, err := s.inner.Rows(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, name, rows); err != nil {
		s.logger.WithError(err).WithField("source", name).Warn("Failed to cache source rows")
	}
	return rows, nil
}
