// Package cache implements the process-wide classification cache: a TTL plus
// capacity bounded store keyed by normalized-message hash. One instance is
// created at wiring time and passed by reference into the classifier; it is
// safe for concurrent use by overlapping turns.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/dvitale/gias/core"
)

const (
	// DefaultCapacity is the entry limit before eviction kicks in.
	DefaultCapacity = 1000
	// DefaultTTL is how long an entry stays valid after insertion.
	DefaultTTL = 10 * time.Minute
	// evictFraction of the capacity is dropped (oldest first) on overflow.
	evictFraction = 0.20
)

// Stats exposes hit/miss/eviction counters for observability.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

type entry struct {
	value    core.IntentCandidate
	inserted time.Time
}

// Cache is a TTL+capacity keyed store for classification results.
//
// Contract:
//   - expired entries are treated as misses and removed on read
//   - on overflow beyond capacity the oldest 20% by insertion time is evicted
//   - candidates carrying the reserved unrecognized intent are never stored,
//     so an unlucky turn is always retried fresh.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	capacity int
	ttl      time.Duration
	stats    Stats
	now      func() time.Time
}

// Options configures a Cache.
type Options struct {
	Capacity int
	TTL      time.Duration
}

// New constructs a Cache with optional overrides.
func New(optFns ...func(o *Options)) *Cache {
	opts := Options{Capacity: DefaultCapacity, TTL: DefaultTTL}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cache{
		entries:  make(map[string]entry, opts.Capacity),
		capacity: opts.Capacity,
		ttl:      opts.TTL,
		now:      time.Now,
	}
}

// Get returns the cached candidate for key. Expired entries count as misses
// and are removed in place.
func (c *Cache) Get(key string) (core.IntentCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return core.IntentCandidate{}, false
	}
	if c.now().Sub(e.inserted) > c.ttl {
		delete(c.entries, key)
		c.stats.Misses++
		return core.IntentCandidate{}, false
	}
	c.stats.Hits++
	return e.value, true
}

// Set stores a candidate under key. Unrecognized results are silently
// ignored; storing over an existing key refreshes its insertion time.
func (c *Cache) Set(key string, value core.IntentCandidate) {
	if value.Intent == core.IntentUnrecognized {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{value: value, inserted: c.now()}
}

// evictOldestLocked drops the oldest evictFraction of entries by insertion
// time. Caller holds the lock.
func (c *Cache) evictOldestLocked() {
	n := int(float64(c.capacity) * evictFraction)
	if n < 1 {
		n = 1
	}
	type keyed struct {
		key      string
		inserted time.Time
	}
	all := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, keyed{k, e.inserted})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].inserted.Before(all[j].inserted) })
	if n > len(all) {
		n = len(all)
	}
	for _, k := range all[:n] {
		delete(c.entries, k.key)
	}
	c.stats.Evictions += int64(n)
}

// Len returns the current number of live entries, expired ones included
// until their next read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
