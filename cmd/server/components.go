package main

import (
	"context"
	"fmt"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/api/handlers"
	"github.com/irfndi/powerlaw-overtake/internal/cache"
	"github.com/irfndi/powerlaw-overtake/internal/config"
	"github.com/irfndi/powerlaw-overtake/internal/database"
	"github.com/irfndi/powerlaw-overtake/internal/datasource"
	"github.com/irfndi/powerlaw-overtake/internal/logging"
	"github.com/sirupsen/logrus"
)

// components are the data-plane pieces chosen by configuration.
type components struct {
	source   datasource.Source
	rowCache *cache.RowCache
	checks   map[string]handlers.HealthChecker
	closers  []func()
}

// Close releases connections in reverse order of creation.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildComponents wires the configured source, optionally backed by Postgres and fronted
// by the Redis row cache.
func buildComponents(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*components, error) {
	comps := &components{checks: make(map[string]handlers.HealthChecker)}

	var repo *database.SeriesRepository
	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		comps.closers = append(comps.closers, db.Close)
		comps.checks["postgres"] = db

		repo = database.NewSeriesRepository(database.NewTracedPool(db.Pool))
		if err := repo.EnsureSchema(ctx); err != nil {
			comps.Close()
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
	}

	switch cfg.Data.Source {
	case config.SourceFile:
		src := datasource.NewFileSource(cfg.Data.Dir)
		comps.source = src
		comps.checks["source"] = src
	case config.SourceHTTP:
		src := datasource.NewHTTPSource(cfg.Data.BaseURL, config.Duration(cfg.Data.Timeout, 15*time.Second), logger)
		comps.source = src
		comps.checks["source"] = src
	case config.SourcePostgres:
		if repo == nil {
			comps.Close()
			return nil, fmt.Errorf("data source %q requires database.enabled", cfg.Data.Source)
		}
		comps.source = datasource.NewPostgresSource(repo)
		probe := fmt.Sprintf(cfg.Data.PricesHistorical, cfg.Model.DefaultAsset)
		comps.checks["source"] = handlers.HealthCheckFunc(func(ctx context.Context) error {
			n, err := repo.Count(ctx, probe)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("no rows stored for %s", probe)
			}
			return nil
		})
	default:
		comps.Close()
		return nil, fmt.Errorf("unsupported data source %q", cfg.Data.Source)
	}

	if cfg.Redis.Enabled {
		rc, err := database.NewRedisConnection(cfg.Redis, logger)
		if err != nil {
			comps.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		comps.closers = append(comps.closers, rc.Close)
		comps.checks["redis"] = rc

		comps.rowCache = cache.NewRowCache(rc.Client, config.Duration(cfg.Redis.TTL, time.Hour), logger)
		comps.source = datasource.NewCachedSource(comps.source, comps.rowCache, logger)
	}

	logging.WithComponent(logger, "components").WithFields(logrus.Fields{
		"source":   cfg.Data.Source,
		"postgres": cfg.Database.Enabled,
		"redis":    cfg.Redis.Enabled,
	}).Info("Data components ready")
	return comps, nil
}
