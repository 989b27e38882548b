// Package ledger records the item ids a viewer dismissed, per source and sort mode.
//
// Hide state is matched per sort mode against the list on screen, but it propagates
// across every sort mode of the same source: item ids are stable across sort modes, so
// an item dismissed under one tab stays dismissed wherever it resurfaces.
package ledger

import (
	"slices"
	"sync"

	"feedsync/features/feed"
)

type Ledger struct {
	mu   sync.RWMutex
	sets map[feed.Key]*idSet
}

func New() *Ledger {
	return &Ledger{sets: make(map[feed.Key]*idSet)}
}

func (l *Ledger) ensure(k feed.Key) *idSet {
	s, ok := l.sets[k]
	if !ok {
		s = newIDSet()
		l.sets[k] = s
	}
	return s
}

// Hide records a viewer dismissal. It reports whether the id was newly added.
func (l *Ledger) Hide(src feed.Source, mode feed.SortMode, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensure(feed.KeyOf(src, mode)).add(id)
}

// Unhide restores a single item under one sort mode.
func (l *Ledger) Unhide(src feed.Source, mode feed.SortMode, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sets[feed.KeyOf(src, mode)]
	if !ok {
		return false
	}
	return s.delete(id)
}

func (l *Ledger) IsHidden(src feed.Source, mode feed.SortMode, id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.sets[feed.KeyOf(src, mode)]
	return ok && s.has(id)
}

// Reconcile aligns the hidden set of (src, mode) with a freshly fetched list.
// Ids hidden under any other known sort mode of src that appear in current are adopted,
// then ids no longer present in current are pruned. It reports whether state changed.
func (l *Ledger) Reconcile(src feed.Source, mode feed.SortMode, current []feed.Item) bool {
	present := feed.IDSet(current)
	own := feed.KeyOf(src, mode)

	l.mu.Lock()
	defer l.mu.Unlock()

	target := l.ensure(own)
	changed := false

	for _, k := range l.siblings(own, src) {
		for _, id := range l.sets[k].order {
			if _, ok := present[id]; ok && target.add(id) {
				changed = true
			}
		}
	}

	if target.retain(present) {
		changed = true
	}

	return changed
}

// siblings lists the other known sort mode keys of src in a stable order.
func (l *Ledger) siblings(own feed.Key, src feed.Source) []feed.Key {
	var keys []feed.Key
	for k := range l.sets {
		if k != own && k.BelongsTo(src) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Hidden returns the hidden ids of (src, mode) in the order they were hidden.
func (l *Ledger) Hidden(src feed.Source, mode feed.SortMode) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.sets[feed.KeyOf(src, mode)]
	if !ok {
		return nil
	}
	return s.ids()
}

func (l *Ledger) Count(src feed.Source, mode feed.SortMode) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if s, ok := l.sets[feed.KeyOf(src, mode)]; ok {
		return s.len()
	}
	return 0
}

// Total counts hidden ids across every source and sort mode.
func (l *Ledger) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for _, s := range l.sets {
		total += s.len()
	}
	return total
}

// Purge forgets every hidden id.
func (l *Ledger) Purge() {
	l.mu.Lock()
	l.sets = make(map[feed.Key]*idSet)
	l.mu.Unlock()
}
