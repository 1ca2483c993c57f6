package server

import (
	"context"
	"sync"
	"time"

	"github.com/tidybar/tidybar/internal/manager"
)

// cacheEntry holds one cached manager state with its timestamp.
type cacheEntry struct {
	state     manager.State
	timestamp time.Time
}

// scanCache provides a TTL-based cache over manager rescans, keyed on whether
// icons were requested. An icon-bearing state satisfies an icon-free request
// but not the other way around.
type scanCache struct {
	mu      sync.Mutex
	entries map[bool]cacheEntry
	ttl     time.Duration
}

// newScanCache creates a new cache. A ttl of 0 disables caching.
func newScanCache(ttl time.Duration) *scanCache {
	return &scanCache{
		entries: make(map[bool]cacheEntry),
		ttl:     ttl,
	}
}

// State returns a cached state if within TTL, otherwise rescans fresh.
func (c *scanCache) State(ctx context.Context, mgr *manager.Manager, icons bool) (manager.State, error) {
	if c.ttl == 0 {
		return mgr.Rescan(ctx, icons)
	}

	c.mu.Lock()
	if entry, ok := c.entries[icons]; ok && time.Since(entry.timestamp) < c.ttl {
		st := entry.state
		c.mu.Unlock()
		return st, nil
	}
	if !icons {
		if entry, ok := c.entries[true]; ok && time.Since(entry.timestamp) < c.ttl {
			st := entry.state
			c.mu.Unlock()
			return st, nil
		}
	}
	c.mu.Unlock()

	st, err := mgr.Rescan(ctx, icons)
	if err != nil {
		return manager.State{}, err
	}

	c.mu.Lock()
	c.entries[icons] = cacheEntry{state: st, timestamp: time.Now()}
	c.mu.Unlock()

	return st, nil
}

// InvalidateAll clears the entire cache.
func (c *scanCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[bool]cacheEntry)
}
