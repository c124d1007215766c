package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const defaultCacheTTL = time.Hour

// Cache is the byte-oriented cache the cached client stores records in.
// A (nil, nil) Get is a cache miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedClient memoizes directory lookups. Directory records change rarely
// and every first-time login hits the service, so hits are served from cache
// and only misses fall through. Negative results are not cached: a student
// can appear in the directory between two login attempts.
type CachedClient struct {
	inner  Lookuper
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedClient wraps a Lookuper with a cache.
func NewCachedClient(inner Lookuper, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(netID string) string {
	return "directory:person:" + netID
}

// Lookup serves from cache when possible. Cache failures degrade to a direct
// lookup rather than failing the login.
func (c *CachedClient) Lookup(ctx context.Context, netID string) (*Person, error) {
	if cached, err := c.cache.Get(ctx, cacheKey(netID)); err != nil {
		c.logger.WarnContext(ctx, "directory cache read failed", "net_id", netID, "error", err)
	} else if cached != nil {
		var person Person
		if err := json.Unmarshal(cached, &person); err == nil {
			return &person, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable directory cache entry", "net_id", netID)
	}

	person, err := c.inner.Lookup(ctx, netID)
	if err != nil || person == nil {
		return person, err
	}

	if encoded, err := json.Marshal(person); err == nil {
		if err := c.cache.Set(ctx, cacheKey(netID), encoded, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "directory cache write failed", "net_id", netID, "error", err)
		}
	}

	return person, nil
}
