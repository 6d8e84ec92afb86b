// Package memory implements the in-process cache tier: a bounded LRU with
// per-entry TTL and per-prefix hit/miss/eviction counters. Keys follow the
// "<prefix>:<canonical name>" convention ("fact:ewg:water",
// "record:water"); the prefix is the first colon-separated segment.
package memory

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// entry wraps a cached value with its own expiry, since different providers
// carry different TTLs inside one cache.
type entry struct {
	value     any
	expiresAt time.Time
}

// Stats holds the counters for one key prefix. All fields are monotonic.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// prefixStats aggregates counters keyed by prefix with atomic increments.
type prefixStats struct {
	mu sync.RWMutex
	m  map[string]*statCounters
}

type statCounters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func (p *prefixStats) get(prefix string) *statCounters {
	p.mu.RLock()
	c, ok := p.m[prefix]
	p.mu.RUnlock()
	if ok {
		return c
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok = p.m[prefix]; ok {
		return c
	}
	c = &statCounters{}
	p.m[prefix] = c
	return c
}

// Cache is a concurrency-safe TTL+LRU cache. Expired entries are transparent
// misses; LRU eviction applies once size exceeds the configured maximum.
type Cache struct {
	lru     *expirable.LRU[string, entry]
	stats   *prefixStats
	nowFunc func() time.Time
}

// New constructs a Cache holding at most maxEntries values. maxTTL is the
// upper bound the underlying store enforces; individual Set calls may use
// any TTL up to it.
func New(maxEntries int, maxTTL time.Duration) *Cache {
	c := &Cache{
		stats:   &prefixStats{m: make(map[string]*statCounters)},
		nowFunc: time.Now,
	}
	c.lru = expirable.NewLRU[string, entry](maxEntries, func(key string, _ entry) {
		c.stats.get(prefixOf(key)).evictions.Add(1)
	}, maxTTL)
	return c
}

func prefixOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// Get returns the cached value for key, or ok=false on a miss. An entry past
// its per-entry TTL counts as a miss and is removed.
func (c *Cache) Get(key string) (any, bool) {
	counters := c.stats.get(prefixOf(key))
	e, ok := c.lru.Get(key)
	if !ok {
		counters.misses.Add(1)
		return nil, false
	}
	if c.nowFunc().After(e.expiresAt) {
		c.lru.Remove(key)
		counters.misses.Add(1)
		return nil, false
	}
	counters.hits.Add(1)
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.lru.Add(key, entry{value: value, expiresAt: c.nowFunc().Add(ttl)})
}

// Remove drops key if present.
func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

// Len returns the number of live entries, including any not yet purged
// after TTL expiry.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// StatsFor returns a snapshot of the counters for one key prefix.
func (c *Cache) StatsFor(prefix string) Stats {
	counters := c.stats.get(prefix)
	return Stats{
		Hits:      counters.hits.Load(),
		Misses:    counters.misses.Load(),
		Evictions: counters.evictions.Load(),
	}
}

// TotalStats returns counters summed across all prefixes.
func (c *Cache) TotalStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	var total Stats
	for _, counters := range c.stats.m {
		total.Hits += counters.hits.Load()
		total.Misses += counters.misses.Load()
		total.Evictions += counters.evictions.Load()
	}
	return total
}
