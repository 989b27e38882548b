package engine

import (
	"context"

	"feedsync/features/favorites"
	"feedsync/features/feed"
)

// ToggleFavorite flips the favorite state of the active source and returns it.
func (e *Engine) ToggleFavorite(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source.IsZero() {
		return false, ErrNoSource
	}
	on := e.favorites.Toggle(e.source, e.clock.Now())
	e.persistFavoritesLocked(ctx)
	return on, nil
}

// AddFavorite adds the source named by input. It reports whether the list changed.
func (e *Engine) AddFavorite(ctx context.Context, input string) (bool, error) {
	src, err := feed.NewSource(input)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.favorites.Add(src, e.clock.Now()) {
		return false, nil
	}
	e.persistFavoritesLocked(ctx)
	return true, nil
}

func (e *Engine) RemoveFavorite(ctx context.Context, path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.favorites.Remove(path) {
		return false
	}
	e.persistFavoritesLocked(ctx)
	return true
}

// Favorites lists favorites, most recently added first.
func (e *Engine) Favorites() []favorites.Favorite {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.favorites.Sorted()
}

func (e *Engine) IsFavorite(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.favorites.Contains(path)
}
