// Package cache implements the TTL read-through cache of the data-access
// layer. Entries hold the last successful, fully normalized result of an
// operation as JSON bytes; a failed refresh never evicts a prior entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// entry is a cached value with its expiration instant.
type entry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a goroutine-safe in-memory TTL store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get returns the cached bytes for key, or nil if absent or expired.
func (c *Cache) Get(key string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		return nil
	}
	return e.value
}

// Set stores value under key with the given TTL. A zero TTL means the entry
// never expires on its own.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry{value: value, storedAt: c.now()}
	if ttl > 0 {
		e.expiresAt = e.storedAt.Add(ttl)
	}
	c.entries[key] = e
}

// Invalidate removes every entry whose key starts with prefix.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// GetOrFetch returns the cached value for key if it is still fresh; otherwise
// it invokes fetcher, stores the result with a fresh timestamp, and returns
// it. The boolean reports whether the value came from the cache. On fetch
// failure the cache is left untouched and the error is returned.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetcher func(context.Context) (any, error)) ([]byte, bool, error) {
	if data := c.Get(key); data != nil {
		return data, true, nil
	}
	data, err := c.Refresh(ctx, key, ttl, fetcher)
	return data, false, err
}

// Refresh bypasses the freshness check, invokes fetcher, and stores the
// refreshed result.
func (c *Cache) Refresh(ctx context.Context, key string, ttl time.Duration, fetcher func(context.Context) (any, error)) ([]byte, error) {
	value, err := fetcher(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal cache value: %w", err)
	}
	c.Set(key, data, ttl)
	return data, nil
}

// SetClock overrides the cache clock. Test hook.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
