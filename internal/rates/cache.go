package rates

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTTL is how long a fetched rate stays valid. Historical rates do
// not change, the TTL only bounds memory growth and guards against a bad
// fetch lingering forever.
const DefaultTTL = 48 * time.Hour

type cacheEntry struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// Cache is a concurrency-safe (currency, date) → rate cache with TTL
// expiry. Concurrent misses for the same key may each fetch upstream;
// the overwrite is idempotent because the rate for a given key is
// effectively invariant, so no lock is held across the fetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache builds a cache with the given TTL (DefaultTTL when zero).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached rate for key if it is still live.
func (c *Cache) Get(key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return decimal.Decimal{}, false
	}
	return entry.rate, true
}

// Put stores a rate for key, stamping its expiry from now.
func (c *Cache) Put(key string, rate decimal.Decimal) {
	expiresAt := c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[key] = cacheEntry{rate: rate, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Len reports the number of entries, live or expired.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
