// Package cache provides a TTL cache for upstream query results.
package cache

import (
	"sync"
	"time"

	"github.com/mwhitfield/rulewatch/internal/model"
)

// entry is a cached document list with its storage time.
type entry struct {
	storedAt time.Time
	docs     []model.Document
}

// Cache maps query keys to document lists with a fixed expiry window.
// Expiry is checked on read; stale entries are shadowed by the next Put
// on the same key rather than actively swept. There is no capacity
// bound; query cardinality is expected to stay small.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given expiry window.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a cache with a fixed clock source, for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached documents for key, or false if the key is
// absent or the entry has expired.
func (c *Cache) Get(key string) ([]model.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.docs, true
}

// Put stores docs under key with the current timestamp, replacing any
// previous entry wholesale.
func (c *Cache) Put(key string, docs []model.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{storedAt: c.now(), docs: docs}
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
