package cache

import (
	"slices"
	"sync"
	"time"

	"feedsync/features/feed"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Entry is the most recent fetch for a (source, sort mode) pair.
type Entry struct {
	Items     []feed.Item
	FetchedAt time.Time
}

// ItemCache holds unfiltered items per (source, sort mode). Hidden and blocked
// filtering is applied by readers, so filter changes never need a re-fetch.
type ItemCache struct {
	clock   clockwork.Clock
	mu      sync.RWMutex
	entries map[feed.Key]Entry
}

// NewItemCache creates an empty cache. A nil clock means the real clock.
func NewItemCache(clock clockwork.Clock) *ItemCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ItemCache{
		clock:   clock,
		entries: make(map[feed.Key]Entry),
	}
}

// Get returns a copy of the cached entry.
func (c *ItemCache) Get(src feed.Source, mode feed.SortMode) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[feed.KeyOf(src, mode)]
	if !ok {
		return Entry{}, false
	}
	return Entry{Items: slices.Clone(e.Items), FetchedAt: e.FetchedAt}, true
}

// Put replaces the entry and stamps it with the current time.
func (c *ItemCache) Put(src feed.Source, mode feed.SortMode, items []feed.Item) {
	now := c.clock.Now()

	c.mu.Lock()
	c.entries[feed.KeyOf(src, mode)] = Entry{Items: slices.Clone(items), FetchedAt: now}
	c.mu.Unlock()

	log.Trace().
		Str("source", src.Path()).
		Str("sort", mode.String()).
		Int("items", len(items)).
		Msg("Cached items")
}

// IsStale is true when no entry exists or the entry is at least maxAge old.
func (c *ItemCache) IsStale(src feed.Source, mode feed.SortMode, maxAge time.Duration) bool {
	c.mu.RLock()
	e, ok := c.entries[feed.KeyOf(src, mode)]
	c.mu.RUnlock()

	if !ok {
		return true
	}
	return c.clock.Since(e.FetchedAt) >= maxAge
}

// Invalidate drops every sort mode entry of src.
func (c *ItemCache) Invalidate(src feed.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.BelongsTo(src) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached pairs.
func (c *ItemCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
