package quotes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
	"github.com/coverlane-ai/coverlane-backend/pkg/redis"
)

// Cache memoizes serialized envelopes under a request fingerprint. A backend
// outage is never surfaced to callers: Get degrades to a miss and Set to a
// no-op, so the worst case is recomputing a deterministic response.
type Cache interface {
	Get(ctx context.Context, fingerprint string) ([]byte, bool)
	Set(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration)
}

// RedisCache stores envelopes in the shared redis keyspace.
type RedisCache struct {
	client *redis.Client
	logg   *logger.Logger
}

func NewRedisCache(client *redis.Client, logg *logger.Logger) *RedisCache {
	return &RedisCache{client: client, logg: logg}
}

func (c *RedisCache) Get(ctx context.Context, fingerprint string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	value, err := c.client.Get(ctx, c.client.QuoteCacheKey(fingerprint))
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "quotes.cache_get_failed")
		}
		return nil, false
	}
	return []byte(value), true
}

func (c *RedisCache) Set(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, c.client.QuoteCacheKey(fingerprint), string(payload), ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "quotes.cache_set_failed")
	}
}

// MemoryCache is the in-process fallback used in dev and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, fingerprint string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, fingerprint)
		c.mu.Unlock()
		return nil, false
	}
	return entry.payload, true
}

func (c *MemoryCache) Set(_ context.Context, fingerprint string, payload []byte, ttl time.Duration) {
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[fingerprint] = entry
	c.mu.Unlock()
}
