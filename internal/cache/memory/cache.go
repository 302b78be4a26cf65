// Package memory provides an in-process feed cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sotaychohdv/hdv-functions/internal/clock"
	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a mutex-guarded map with per-entry expiry.
type Cache struct {
	mu    sync.Mutex
	items map[string]entry
	clock directory.Clock
}

// NewCache constructs an empty cache. A nil clock uses the system clock.
func NewCache(c directory.Clock) *Cache {
	if c == nil {
		c = clock.System{}
	}
	return &Cache{items: make(map[string]entry), clock: c}
}

// Get returns the value for key if it has not expired.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: c.clock.Now().Add(ttl),
	}
	return nil
}
