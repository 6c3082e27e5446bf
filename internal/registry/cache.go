package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/locusaudit/merchant-validation/internal/config"
)

// CachedLookup wraps a Lookup with a Redis record cache so repeated batch
// items for the same company do not burn the provider's rate limit. Cache
// faults degrade to a direct fetch, never to a lookup failure.
type CachedLookup struct {
	delegate Lookup
	client   *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
}

// NewCachedLookup creates a caching wrapper around a registry lookup.
func NewCachedLookup(delegate Lookup, cfg config.CacheConfig, addr string, logger *slog.Logger) *CachedLookup {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	return &CachedLookup{
		delegate: delegate,
		client:   client,
		ttl:      cfg.TTL,
		logger:   logger,
	}
}

// Fetch returns the cached record when present, delegating on a miss.
// Only resolved records are cached; absence is always re-checked upstream.
func (c *CachedLookup) Fetch(ctx context.Context, taxID string) (*Record, error) {
	key := cacheKey(taxID)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var record Record
		if err := json.Unmarshal([]byte(cached), &record); err == nil {
			return &record, nil
		}
		c.logger.Warn("Discarding undecodable cached registry record", "tax_id", taxID)
	} else if err != redis.Nil {
		c.logger.Warn("Registry cache read failed", "tax_id", taxID, "error", err)
	}

	record, err := c.delegate.Fetch(ctx, taxID)
	if err != nil || record == nil {
		return record, err
	}

	encoded, err := json.Marshal(record)
	if err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("Registry cache write failed", "tax_id", taxID, "error", err)
		}
	}

	return record, nil
}

// Close releases the Redis connection.
func (c *CachedLookup) Close() error {
	return c.client.Close()
}

func cacheKey(taxID string) string {
	return fmt.Sprintf("registry:record:%s", taxID)
}
