package cache

import (
	"sync"
	"time"
)

// key identifies one cached listing: an organization/provider pair.
type key struct {
	Org      string
	Provider string
}

// entry holds one fetched listing and when it was fetched.
type entry[T any] struct {
	Records   []T
	FetchedAt time.Time
}

// SessionCache holds the most recently fetched inventory per
// (organization, provider) for the duration of one user session. There is no
// eviction beyond Clear/ClearAll: cached data dies with the session. The
// mutex only guards map access from concurrent HTTP handlers; there is no
// broader coordination model.
type SessionCache[T any] struct {
	mu      sync.RWMutex
	entries map[key]entry[T]
}

// New returns an empty session cache.
func New[T any]() *SessionCache[T] {
	return &SessionCache[T]{entries: make(map[key]entry[T])}
}

// Put stores records for (org, provider), replacing any previous entry and
// stamping the fetch time. The slice is copied so later mutation by the
// caller cannot corrupt the cache.
func (c *SessionCache[T]) Put(org, provider string, records []T) {
	copied := make([]T, len(records))
	copy(copied, records)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{Org: org, Provider: provider}] = entry[T]{
		Records:   copied,
		FetchedAt: time.Now(),
	}
}

// Get returns the cached records for (org, provider) in insertion order,
// the fetch timestamp, and whether an entry exists.
func (c *SessionCache[T]) Get(org, provider string) ([]T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key{Org: org, Provider: provider}]
	if !ok {
		return nil, time.Time{}, false
	}
	records := make([]T, len(e.Records))
	copy(records, e.Records)
	return records, e.FetchedAt, true
}

// Clear removes all entries belonging to one organization. Invoked on
// organization switch; other organizations' entries are untouched.
func (c *SessionCache[T]) Clear(org string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Org == org {
			delete(c.entries, k)
		}
	}
}

// ClearAll removes every entry. Invoked on session end.
func (c *SessionCache[T]) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]entry[T])
}

// Len reports the number of cached entries.
func (c *SessionCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
