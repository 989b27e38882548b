package engine

import (
	"context"

	"feedsync/features/blocklist"
	"feedsync/features/feed"
	"feedsync/features/reconcile"
	"feedsync/features/timer"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

func timerStates() []string {
	return lo.Map(timer.States, func(s timer.State, _ int) string { return string(s) })
}

// keepLocked is the visibility predicate for the active pair.
func (e *Engine) keepLocked() reconcile.Filter {
	src, mode := e.source, e.sort
	return func(it feed.Item) bool {
		return !e.ledger.IsHidden(src, mode, it.ID) && !e.blocked.Matches(it.OriginDomain)
	}
}

func (e *Engine) visibleLocked() []feed.Item {
	keep := e.keepLocked()
	return lo.Filter(e.displayed, func(it feed.Item, _ int) bool { return keep(it) })
}

// mutateFilter applies a hide or block change and emits what it did to the visible list.
func (e *Engine) mutateFilter(mutate func() bool) (bool, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false, ErrClosed
	}

	before := e.visibleLocked()
	changed := mutate()
	if !changed {
		e.mu.Unlock()
		return false, nil
	}
	after := e.visibleLocked()
	src, mode := e.source, e.sort
	e.mu.Unlock()

	transitions := reconcile.Diff(before, after, nil)
	if reconcile.Changed(transitions) {
		e.emitTransitions(src, mode, transitions)
	}
	return true, nil
}

// Hide dismisses an item under the active pair.
func (e *Engine) Hide(ctx context.Context, id string) (bool, error) {
	if e.activeSource().IsZero() {
		return false, ErrNoSource
	}
	return e.mutateFilter(func() bool {
		if !e.ledger.Hide(e.source, e.sort, id) {
			return false
		}
		e.persistHiddenLocked(ctx)
		log.Debug().Str("source", e.source.Path()).Str("sort", e.sort.String()).Str("item", id).Msg("Item hidden")
		return true
	})
}

// Unhide restores a dismissed item under the active pair.
func (e *Engine) Unhide(ctx context.Context, id string) (bool, error) {
	if e.activeSource().IsZero() {
		return false, ErrNoSource
	}
	return e.mutateFilter(func() bool {
		if !e.ledger.Unhide(e.source, e.sort, id) {
			return false
		}
		e.persistHiddenLocked(ctx)
		return true
	})
}

// PurgeHidden forgets every hidden item of every source and returns how many there were.
func (e *Engine) PurgeHidden(ctx context.Context) (int, error) {
	var purged int
	_, err := e.mutateFilter(func() bool {
		purged = e.ledger.Total()
		if purged == 0 {
			return false
		}
		e.ledger.Purge()
		e.persistHiddenLocked(ctx)
		log.Info().Int("purged", purged).Msg("Hidden items restored")
		return true
	})
	return purged, err
}

// Hidden returns the hidden ids of the active pair.
func (e *Engine) Hidden() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source.IsZero() {
		return nil
	}
	return e.ledger.Hidden(e.source, e.sort)
}

// HiddenTotal counts hidden ids across all sources.
func (e *Engine) HiddenTotal() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Total()
}

// Block adds a blocked origin and returns its normalised form. Blocking an already
// blocked domain is not an error.
func (e *Engine) Block(ctx context.Context, domain string) (string, error) {
	var (
		normalized string
		addErr     error
	)
	_, err := e.mutateFilter(func() bool {
		var added bool
		normalized, added, addErr = e.blocked.Add(domain)
		if addErr != nil || !added {
			return false
		}
		e.persistBlockedLocked(ctx)
		log.Info().Str("domain", normalized).Msg("Origin blocked")
		return true
	})
	if err != nil {
		return "", err
	}
	return normalized, addErr
}

func (e *Engine) Unblock(ctx context.Context, domain string) (bool, error) {
	return e.mutateFilter(func() bool {
		if !e.blocked.Remove(domain) {
			return false
		}
		e.persistBlockedLocked(ctx)
		log.Info().Str("domain", blocklist.Normalize(domain)).Msg("Origin unblocked")
		return true
	})
}

func (e *Engine) Blocked() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blocked.Domains()
}

func (e *Engine) activeSource() feed.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}
