package data

import (
	"context"
	"sync"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// MemoryPriceCache implements PriceCache using in-memory storage.
// Callers create and own it; nothing in the package keeps a shared instance.
type MemoryPriceCache struct {
	cache map[string][]types.PriceSample
	mutex sync.RWMutex
}

// NewMemoryPriceCache creates a new in-memory cache
func NewMemoryPriceCache() *MemoryPriceCache {
	return &MemoryPriceCache{
		cache: make(map[string][]types.PriceSample),
	}
}

// Get returns a copy of the cached series
func (c *MemoryPriceCache) Get(_ context.Context, q PriceQuery) ([]types.PriceSample, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	samples, exists := c.cache[q.Key()]
	if !exists {
		return nil, false
	}
	return types.CopySamples(samples), true
}

// Set stores a copy of the series
func (c *MemoryPriceCache) Set(_ context.Context, q PriceQuery, samples []types.PriceSample) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[q.Key()] = types.CopySamples(samples)
	return nil
}

// Invalidate drops one query
func (c *MemoryPriceCache) Invalidate(_ context.Context, q PriceQuery) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.cache, q.Key())
	return nil
}

// Clear removes all cached data
func (c *MemoryPriceCache) Clear(_ context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string][]types.PriceSample)
	return nil
}

// Size returns the number of cached entries
func (c *MemoryPriceCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// NopPriceCache never stores anything; every Get is a miss
type NopPriceCache struct{}

func (NopPriceCache) Get(context.Context, PriceQuery) ([]types.PriceSample, bool) { return nil, false }
func (NopPriceCache) Set(context.Context, PriceQuery, []types.PriceSample) error  { return nil }
func (NopPriceCache) Invalidate(context.Context, PriceQuery) error                { return nil }
func (NopPriceCache) Clear(context.Context) error                                 { return nil }
