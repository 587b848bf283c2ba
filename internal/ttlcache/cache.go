// Package ttlcache is a small capacity-bounded key/value cache whose entries
// expire a fixed time after they were stored.
package ttlcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	stored time.Time
}

// Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]entry[V]
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New returns a cache holding at most capacity entries, each valid for ttl.
// A capacity below 1 is treated as 1; a ttl of zero or less never expires.
func New[K comparable, V any](capacity int, ttl time.Duration, opts ...Option) *Cache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		entries:  make(map[K]entry[V], capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      o.now,
	}
}

func (c *Cache[K, V]) expired(e entry[V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.stored) > c.ttl
}

// Get returns the value stored under key. An expired entry is removed and
// reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e, c.now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Has reports whether key holds a live entry.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores value under key with a fresh timestamp. Storing a new key in a
// full cache first evicts an expired entry if there is one, otherwise the
// oldest entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		c.evict(now)
	}
	c.entries[key] = entry[V]{value: value, stored: now}
}

func (c *Cache[K, V]) evict(now time.Time) {
	var (
		victim K
		oldest time.Time
		found  bool
	)
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			return
		}
		if !found || e.stored.Before(oldest) {
			victim, oldest, found = k, e.stored, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}

// Delete removes key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Cleanup removes all expired entries and returns how many were removed.
func (c *Cache[K, V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
