// Package cache implements the gateway's TTL-bounded read-through cache.
// Every cached call-site goes through GetOrCompute with its own TTL class,
// which keeps cache policy visible at the call-site and testable in
// isolation. The cache is a convenience layer only: authoritative state
// always lives in the persistence and broker collaborators, so staleness up
// to the TTL is an accepted trade-off, not a correctness issue.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Forever is a TTL for entries that should only fall out of the cache on
// process restart or explicit invalidation (demo dispatch results).
const Forever = time.Duration(1<<63 - 1)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe in-process cache keyed by strings. Entries
// expire lazily on read. There is deliberately no single-flight collapsing:
// concurrent misses for the same key may compute twice, which is acceptable
// for the idempotent reads this cache protects and must never be relied on
// for writes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrCompute returns the live cached value for key, or invokes fn, stores
// its result for ttl, and returns it. A ttl of zero is the global disable
// switch: the cache is bypassed entirely and fn is always invoked.
// Errors from fn are never cached.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (any, error),
) (any, error) {
	if ttl == 0 {
		return fn(ctx)
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.value, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()

	return value, nil
}

// Invalidate drops the entry for key, if present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix drops all entries whose key starts with prefix. This is
// the explicit invalidation hook for otherwise-forever entries such as demo
// dispatch results keyed by plugin version.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-evicted
// expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Through is a typed wrapper around Cache.GetOrCompute for call-sites that
// want to avoid type assertions.
func Through[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	value, err := c.GetOrCompute(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}
