package cache

import (
	"context"
	"sync"
	"time"

	"github.com/basketly/backend/internal/domain"
)

// entry is a single cached search result with its creation timestamp.
// Entries are replaced wholesale on write; freshness is judged on read.
type entry struct {
	products []domain.ProductRecord
	storedAt time.Time
}

// MemoryCache is a thread-safe in-memory product cache with TTL support.
// It is shared across all concurrent requests; requests in flight when
// Clear runs may still complete against data they already read, which is
// acceptable (eventual, not strict, consistency).
type MemoryCache struct {
	data  map[string]entry
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache with the given TTL. Expired
// entries are also swept in the background every sweepInterval so that keys
// never read again do not accumulate.
func NewMemoryCache(ttl, sweepInterval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]entry),
		ttl:  ttl,
	}

	go cache.sweepExpired(sweepInterval)

	return cache
}

// Get retrieves the cached product set for a key. The second return value
// is false on a miss or when the entry has outlived the TTL.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]domain.ProductRecord, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.data[key]
	if !exists {
		return nil, false
	}

	if time.Since(e.storedAt) >= c.ttl {
		return nil, false
	}

	return e.products, true
}

// Set stores a product set under a key, replacing any prior entry. A copy
// of the slice is stored so later mutation by the caller cannot corrupt
// cached data shared with other requests.
func (c *MemoryCache) Set(ctx context.Context, key string, products []domain.ProductRecord) {
	stored := make([]domain.ProductRecord, len(products))
	copy(stored, products)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry{
		products: stored,
		storedAt: time.Now(),
	}
}

// Clear removes all entries and returns how many were present.
func (c *MemoryCache) Clear(ctx context.Context) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cleared := len(c.data)
	c.data = make(map[string]entry)
	return cleared
}

// Size returns the current number of entries (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// sweepExpired removes expired entries from the cache periodically
func (c *MemoryCache) sweepExpired(interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		for key, e := range c.data {
			if time.Since(e.storedAt) >= c.ttl {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
