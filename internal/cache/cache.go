// Package cache memoizes carbon estimates per (geometry hash, date) key so
// identical requests are computed at most once per process lifetime.
package cache

import (
	"sync"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cached computation.
type Key struct {
	GeometryHash string
	Date         string // ISO-8601 date
}

func (k Key) flightKey() string {
	return k.GeometryHash + "|" + k.Date
}

// ResultCache is a process-wide, read-mostly memo of successful estimates.
// Concurrent requests for the same key share a single computation: losers
// wait for and reuse the winner's result. Failed computations are not cached,
// so a later request may retry.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[Key]*biomass.CarbonEstimate
	group   singleflight.Group
}

// New creates an empty ResultCache.
func New() *ResultCache {
	return &ResultCache{entries: make(map[Key]*biomass.CarbonEstimate)}
}

// GetOrCompute returns the cached estimate for key, invoking compute at most
// once across concurrent callers when the key is absent.
func (c *ResultCache) GetOrCompute(key Key, compute func() (*biomass.CarbonEstimate, error)) (*biomass.CarbonEstimate, error) {
	c.mu.RLock()
	if est, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return est, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key.flightKey(), func() (interface{}, error) {
		// A concurrent winner may have stored the entry between the read
		// above and this flight winning.
		c.mu.RLock()
		est, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return est, nil
		}

		est, err := compute()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = est
		c.mu.Unlock()
		return est, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*biomass.CarbonEstimate), nil
}

// Get returns the cached estimate for key without computing.
func (c *ResultCache) Get(key Key) (*biomass.CarbonEstimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	est, ok := c.entries[key]
	return est, ok
}

// Invalidate removes the entry for key, allowing recomputation.
func (c *ResultCache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
