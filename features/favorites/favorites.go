// Package favorites keeps the viewer's favorite sources.
package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"feedsync/features/feed"
)

var ErrDecodeRecord = errors.New("failed to decode favorites record")

type Favorite struct {
	Path    string `json:"path"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	AddedAt int64  `json:"timestamp"` // unix milliseconds
}

// List is an insertion-ordered set of favorites keyed by path.
type List struct {
	mu    sync.RWMutex
	items []Favorite
}

func New(favs ...Favorite) *List {
	l := &List{}
	for _, f := range favs {
		if f.Path != "" && l.index(f.Path) < 0 {
			l.items = append(l.items, f)
		}
	}
	return l
}

func (l *List) index(path string) int {
	return slices.IndexFunc(l.items, func(f Favorite) bool { return f.Path == path })
}

func newFavorite(src feed.Source, now time.Time) Favorite {
	return Favorite{
		Path:    src.Path(),
		Label:   src.DisplayName(),
		Type:    src.Type(),
		AddedAt: now.UnixMilli(),
	}
}

// Add appends src unless it is already a favorite. It reports whether the list changed.
func (l *List) Add(src feed.Source, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index(src.Path()) >= 0 {
		return false
	}
	l.items = append(l.items, newFavorite(src, now))
	return true
}

func (l *List) Remove(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(path)
	if i < 0 {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	return true
}

// Toggle removes src when present and adds it otherwise. It returns the new membership.
func (l *List) Toggle(src feed.Source, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.index(src.Path()); i >= 0 {
		l.items = slices.Delete(l.items, i, i+1)
		return false
	}
	l.items = append(l.items, newFavorite(src, now))
	return true
}

func (l *List) Contains(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index(path) >= 0
}

// Sorted returns the favorites most recently added first.
func (l *List) Sorted() []Favorite {
	l.mu.RLock()
	out := slices.Clone(l.items)
	l.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b Favorite) int {
		switch {
		case a.AddedAt > b.AddedAt:
			return -1
		case a.AddedAt < b.AddedAt:
			return 1
		}
		return 0
	})
	return out
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Encode serialises the list in insertion order.
func (l *List) Encode() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	items := l.items
	if items == nil {
		items = []Favorite{}
	}
	return json.Marshal(items)
}

func Decode(data []byte) (*List, error) {
	if len(data) == 0 {
		return New(), nil
	}

	var favs []Favorite
	if err := json.Unmarshal(data, &favs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeRecord, err)
	}
	return New(favs...), nil
}
