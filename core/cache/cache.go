// Package cache keeps the records extracted from recent snapshots, keyed by
// work and document digest, so an unchanged document is parsed once.
package cache

import (
	"container/list"
	"sync"

	"github.com/FocuswithJustin/writings/core/writings"
)

// Key identifies one snapshot of one work.
type Key struct {
	Work   string
	Digest string
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Snapshots int   `json:"snapshots"`
	Records   int   `json:"records"`
}

// Config bounds the cache. Zero means unlimited.
type Config struct {
	// MaxSnapshots is the number of record sets kept.
	MaxSnapshots int

	// MaxRecords is the total number of records kept across all sets.
	MaxRecords int
}

// DefaultConfig keeps a few snapshots per work and roughly two copies of
// the full corpus.
func DefaultConfig() Config {
	return Config{MaxSnapshots: 16, MaxRecords: 6000}
}

type entry struct {
	key     Key
	records []writings.Writing
}

// RecordCache is a thread-safe least-recently-used cache of record sets.
type RecordCache struct {
	mu      sync.Mutex
	config  Config
	entries map[Key]*list.Element
	order   *list.List // front = most recently used
	records int
	stats   Stats
}

// NewRecordCache creates a record cache.
func NewRecordCache(config Config) *RecordCache {
	if config.MaxSnapshots < 0 {
		config.MaxSnapshots = 0
	}
	if config.MaxRecords < 0 {
		config.MaxRecords = 0
	}
	return &RecordCache{
		config:  config,
		entries: make(map[Key]*list.Element),
		order:   list.New(),
	}
}

// NewDefaultRecordCache creates a record cache with DefaultConfig.
func NewDefaultRecordCache() *RecordCache {
	return NewRecordCache(DefaultConfig())
}

// Get returns the records parsed from the given snapshot of work.
func (c *RecordCache) Get(work, digest string) ([]writings.Writing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[Key{work, digest}]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*entry).records, true
}

// Put stores records under a snapshot. The slice must not be modified
// afterwards. A set larger than MaxRecords is not kept.
func (c *RecordCache) Put(work, digest string, records []writings.Writing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.MaxRecords > 0 && len(records) > c.config.MaxRecords {
		return
	}
	key := Key{work, digest}
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		c.records += len(records) - len(e.records)
		e.records = records
		c.order.MoveToFront(el)
	} else {
		c.entries[key] = c.order.PushFront(&entry{key: key, records: records})
		c.records += len(records)
	}

	for c.overLimit() {
		c.removeElement(c.order.Back())
		c.stats.Evictions++
	}
}

func (c *RecordCache) overLimit() bool {
	if c.order.Len() <= 1 {
		return false
	}
	return (c.config.MaxSnapshots > 0 && c.order.Len() > c.config.MaxSnapshots) ||
		(c.config.MaxRecords > 0 && c.records > c.config.MaxRecords)
}

func (c *RecordCache) removeElement(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.entries, e.key)
	c.records -= len(e.records)
}

// Forget drops every snapshot of work and returns how many were dropped.
func (c *RecordCache) Forget(work string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, el := range c.entries {
		if key.Work == work {
			c.removeElement(el)
			n++
		}
	}
	return n
}

// Clear empties the cache.
func (c *RecordCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*list.Element)
	c.order.Init()
	c.records = 0
}

// Len returns the number of cached snapshots.
func (c *RecordCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache statistics.
func (c *RecordCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Snapshots = c.order.Len()
	s.Records = c.records
	return s
}
