package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/logging"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RowCacheEntry is the stored form of one source file's rows.
type RowCacheEntry struct {
	Rows     []models.RawRow `json:"rows"`
	CachedAt time.Time       `json:"cached_at"`
}

// RowCacheStats tracks cache performance metrics
type RowCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// RowCache keeps fetched CSV rows in Redis so repeated runs skip the upstream fetch.
// Only raw source rows are cached, never projections.
type RowCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *logrus.Logger

	mu    sync.RWMutex
	stats RowCacheStats
}

// NewRowCache creates a new Redis-backed row cache.
func NewRowCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *RowCache {
	return &RowCache{
		redis:  redisClient,
		ttl:    ttl,
		prefix: "series_rows:",
		logger: logger,
	}
}

// Get returns cached rows for a source name. Redis failures count as misses.
func (c *RowCache) Get(ctx context.Context, name string) ([]models.RawRow, bool) {
	start := time.Now()
	key := c.prefix + name

	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.record(func(s *RowCacheStats) { s.Misses++ })
		logging.LogCacheOperation(c.logger, "get", key, false, time.Since(start).Milliseconds())
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error reading cached rows")
		c.record(func(s *RowCacheStats) { s.Misses++; s.Errors++ })
		return nil, false
	}

	var entry RowCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding undecodable cache entry")
		c.record(func(s *RowCacheStats) { s.Misses++; s.Errors++ })
		return nil, false
	}

	c.record(func(s *RowCacheStats) { s.Hits++ })
	logging.LogCacheOperation(c.logger, "get", key, true, time.Since(start).Milliseconds())
	return entry.Rows, true
}

// Set stores rows under the source name with the cache TTL.
func (c *RowCache) Set(ctx context.Context, name string, rows []models.RawRow) error {
	key := c.prefix + name
	data, err := json.Marshal(RowCacheEntry{Rows: rows, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("error serializing rows for %s: %w", name, err)
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.record(func(s *RowCacheStats) { s.Errors++ })
		return fmt.Errorf("error caching rows for %s: %w", name, err)
	}

	c.record(func(s *RowCacheStats) { s.Sets++ })
	c.logger.WithFields(logrus.Fields{
		"key":  key,
		"rows": len(rows),
		"ttl":  c.ttl.String(),
	}).Debug("Cached source rows")
	return nil
}

// Clear removes every cached source.
func (c *RowCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}
	c.logger.WithField("entries", len(keys)).Info("Cleared row cache")
	return nil
}

// GetStats returns a snapshot of the counters.
func (c *RowCache) GetStats() RowCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate is hits over lookups as a percentage.
func (s RowCacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func (c *RowCache) record(update func(*RowCacheStats)) {
	c.mu.Lock()
	update(&c.stats)
	c.mu.Unlock()
}
