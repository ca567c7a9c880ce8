// Package cache keeps recent search results for a limited time. Each entry
// expires on its own; a full cache drops expired entries first, then the
// entry stored longest ago.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	stored time.Time
}

// TTLCache is a bounded, thread-safe map whose entries expire ttl after they
// were stored.
type TTLCache[K comparable, V any] struct {
	mu         sync.Mutex
	data       map[K]entry[V]
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

// New creates a cache. A maxEntries <= 0 means unbounded.
func New[K comparable, V any](ttl time.Duration, maxEntries int) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data:       make(map[K]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *TTLCache[K, V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.stored) >= c.ttl
}

// Get returns the value stored under key unless it has expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e, c.now()) {
		delete(c.data, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, making room first when the cache is full.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.pruneLocked(now)
		if len(c.data) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.data[key] = entry[V]{value: value, stored: now}
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Prune drops every expired entry and returns how many were dropped.
func (c *TTLCache[K, V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(c.now())
}

func (c *TTLCache[K, V]) pruneLocked(now time.Time) int {
	n := 0
	for k, e := range c.data {
		if c.expired(e, now) {
			delete(c.data, k)
			n++
		}
	}
	return n
}

func (c *TTLCache[K, V]) evictOldestLocked() {
	var (
		oldest K
		at     time.Time
		found  bool
	)
	for k, e := range c.data {
		if !found || e.stored.Before(at) {
			oldest, at, found = k, e.stored, true
		}
	}
	if found {
		delete(c.data, oldest)
	}
}

// Invalidate drops every entry.
func (c *TTLCache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]entry[V])
}

// Len returns the number of entries, expired ones included until they are
// pruned.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
