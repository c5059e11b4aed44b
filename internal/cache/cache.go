// Package cache provides result caching for the compiler dispatcher.
//
// Identical (language, code, stdin) triples are answered from memory instead
// of going back to the remote compiler APIs. The cache:
//
//  1. Keys entries by Fingerprint (language + xxhash of code and stdin)
//  2. Keeps at most one entry per fingerprint, overwriting on store
//  3. Evicts after every store: oldest entries beyond the size cap first,
//     then anything older than the maximum age
//  4. Treats entries older than the maximum age as misses on lookup
//
// Nothing is written to disk; the cache lives as long as the process.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/Norgate-AV/labrun/internal/execution"
)

const (
	// DefaultMaxEntries is the default number of retained results
	DefaultMaxEntries = 100

	// DefaultMaxAge is the default lifetime of a cached result
	DefaultMaxAge = 5 * time.Minute
)

// Cache holds execution results keyed by fingerprint
type Cache struct {
	mu         sync.Mutex
	entries    map[string]Entry
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time

	hits   int64
	misses int64
}

// New creates a new cache instance
// Zero or negative limits fall back to DefaultMaxEntries and DefaultMaxAge
func New(maxEntries int, maxAge time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Cache{
		entries:    make(map[string]Entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Lookup retrieves a cached result by fingerprint
// Returns false on a miss or when the entry has expired
func (c *Cache) Lookup(fingerprint string) (*execution.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		c.misses++
		return nil, false
	}

	if c.now().Sub(entry.InsertedAt) > c.maxAge {
		delete(c.entries, fingerprint)
		c.misses++
		return nil, false
	}

	c.hits++
	result := entry.Result

	return &result, true
}

// Store saves a result, replacing any entry with the same fingerprint,
// then evicts
func (c *Cache) Store(fingerprint string, result execution.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = Entry{
		Fingerprint: fingerprint,
		Result:      result,
		InsertedAt:  c.now(),
	}

	c.evictLocked()
}

// Prune runs eviction without storing anything
func (c *Cache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked()
}

// evictLocked drops the oldest entries beyond the size cap, then every
// entry older than the maximum age
func (c *Cache) evictLocked() {
	if excess := len(c.entries) - c.maxEntries; excess > 0 {
		entries := make([]Entry, 0, len(c.entries))
		for _, e := range c.entries {
			entries = append(entries, e)
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].InsertedAt.Before(entries[j].InsertedAt)
		})

		for _, e := range entries[:excess] {
			delete(c.entries, e.Fingerprint)
		}
	}

	now := c.now()
	for fp, e := range c.entries {
		if now.Sub(e.InsertedAt) > c.maxAge {
			delete(c.entries, fp)
		}
	}
}

// Len returns the number of retained entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear removes all cache entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
