package engine

import (
	"context"
	"errors"

	"feedsync/features/feed"
	"feedsync/features/gateway"
	"feedsync/features/reconcile"
	"feedsync/internal/collector"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SetSource activates the source named by input and shows it under the active sort
// mode. Setting the already active source is a no-op.
func (e *Engine) SetSource(ctx context.Context, input string) error {
	src, err := feed.NewSource(input)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.source.Equal(src) {
		e.mu.Unlock()
		return nil
	}

	e.source = src
	e.displayed = nil
	e.inError = false
	e.timer.Restart()
	e.mu.Unlock()

	log.Info().Str("source", src.Path()).Bool("composite", src.IsComposite()).Msg("Source activated")

	return e.show(ctx)
}

// SetSortMode switches the active sort mode. Switching to the active one is a no-op.
func (e *Engine) SetSortMode(ctx context.Context, mode feed.SortMode) error {
	if !mode.IsValid() {
		return feed.ErrUnknownSortMode
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.sort == mode {
		e.mu.Unlock()
		return nil
	}

	e.sort = mode
	e.displayed = nil
	e.timer.Reset()
	active := !e.source.IsZero()
	e.mu.Unlock()

	if !active {
		return nil
	}
	return e.show(ctx)
}

// show displays cached items for the active pair right away and loads only when
// nothing is cached, the entry is stale, or the last load failed.
func (e *Engine) show(ctx context.Context) error {
	mc := collector.GetMetricsCollector()

	e.mu.Lock()
	src, mode := e.source, e.sort
	entry, cached := e.cache.Get(src, mode)
	stale := e.cache.IsStale(src, mode, e.maxAge)

	var transitions []reconcile.Transition
	switch {
	case !cached:
		mc.IncrementCacheLookup("miss")
	case stale:
		mc.IncrementCacheLookup("stale")
	default:
		mc.IncrementCacheLookup("fresh")
	}
	if cached {
		transitions = e.displayLocked(ctx, entry.Items)
	}
	needsLoad := !cached || stale || e.inError
	e.mu.Unlock()

	if cached {
		e.emitTransitions(src, mode, transitions)
	}

	if !needsLoad {
		log.Debug().Str("source", src.Path()).Str("sort", mode.String()).Msg("Showing fresh cached items")
		return nil
	}
	return e.load(ctx, TriggerViewer)
}

// Load runs a foreground load for the active pair.
func (e *Engine) Load(ctx context.Context) error {
	return e.load(ctx, TriggerViewer)
}

// Refresh drops every cached sort mode of the active source before loading, so the
// following prefetch walk refetches the siblings too.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	src := e.source
	if !src.IsZero() && !e.closed {
		e.cache.Invalidate(src)
	}
	e.mu.Unlock()

	return e.load(ctx, TriggerViewer)
}

// Retry is the viewer's explicit retry after a failed load.
func (e *Engine) Retry(ctx context.Context) error {
	return e.load(ctx, TriggerViewer)
}

func (e *Engine) load(ctx context.Context, trigger Trigger) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.source.IsZero() {
		e.mu.Unlock()
		return ErrNoSource
	}
	src, mode := e.source, e.sort
	e.loadSeq++
	seq := e.loadSeq
	e.inflight++
	e.mu.Unlock()

	state := LoadState{
		ID:       uuid.NewString(),
		Source:   src.Path(),
		SortMode: mode,
		Trigger:  trigger,
	}
	logger := log.With().
		Str("load_id", state.ID).
		Str("source", src.Path()).
		Str("sort", mode.String()).
		Str("trigger", string(trigger)).
		Logger()

	state.Phase = LoadStarted
	e.notifier.OnLoadStateChange(state)
	logger.Debug().Msg("Foreground load started")

	items, err := e.fetcher.Fetch(ctx, src, mode)

	e.mu.Lock()
	e.inflight--

	if !e.source.Equal(src) {
		e.mu.Unlock()
		logger.Debug().Msg("Discarding load result, source changed")
		return ErrSourceChanged
	}

	current := seq == e.loadSeq && mode == e.sort

	if err != nil {
		if !current {
			e.mu.Unlock()
			logger.Debug().Err(err).Msg("Superseded load failed")
			return err
		}
		e.inError = true
		e.timer.Failed()
		e.mu.Unlock()

		state.Phase = LoadFailed
		state.Kind = gateway.KindOf(err)
		state.Error = err.Error()
		e.notifier.OnLoadStateChange(state)
		logger.Warn().Err(err).Str("kind", string(state.Kind)).Msg("Foreground load failed")
		return err
	}

	e.cache.Put(src, mode, items)

	if !current {
		e.mu.Unlock()
		logger.Debug().Int("items", len(items)).Msg("Superseded load cached without display")
		return nil
	}

	transitions := e.displayLocked(ctx, items)
	e.inError = false
	e.timer.Succeeded()
	e.startPrefetchLocked(src, mode)
	e.mu.Unlock()

	state.Phase = LoadSucceeded
	state.Items = len(items)
	e.notifier.OnLoadStateChange(state)
	e.emitTransitions(src, mode, transitions)

	logger.Info().
		Int("items", len(items)).
		Interface("transitions", reconcile.Summary(transitions)).
		Msg("Foreground load finished")
	return nil
}

// displayLocked replaces the displayed list, reconciling the ledger first so the diff
// sees the adopted and pruned hidden ids.
func (e *Engine) displayLocked(ctx context.Context, items []feed.Item) []reconcile.Transition {
	if e.ledger.Reconcile(e.source, e.sort, items) {
		e.persistHiddenLocked(ctx)
	}

	transitions := reconcile.Diff(e.displayed, items, e.keepLocked())
	e.displayed = items
	return transitions
}

func (e *Engine) startPrefetchLocked(src feed.Source, mode feed.SortMode) {
	if e.prefetch == nil || e.closed {
		return
	}

	task := e.prefetch.Run(src, mode, e.modes)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_ = task.Wait()
	}()
}

// Tick advances the refresh timer by one tick. When the timer fires, a foreground load
// starts in the background; Wait joins it.
func (e *Engine) Tick(ctx context.Context) {
	fire, snap := e.timer.Tick()

	collector.GetMetricsCollector().SetTimerState(string(snap.State), timerStates())
	e.notifier.OnTimerTick(snap.Elapsed, snap.Interval, snap.ErrorState())

	if !fire {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		// Close must not wait on a timer load for longer than the fetch takes to cancel.
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(e.ctx, cancel)
		defer stop()

		if err := e.load(lctx, TriggerTimer); err != nil && !errors.Is(err, ErrSourceChanged) {
			log.Debug().Err(err).Msg("Timer refresh failed")
		}
	}()
}

func (e *Engine) emitTransitions(src feed.Source, mode feed.SortMode, transitions []reconcile.Transition) {
	mc := collector.GetMetricsCollector()
	for kind, count := range reconcile.Summary(transitions) {
		mc.AddTransitions(string(kind), count)
	}
	e.notifier.OnTransitions(src, mode, transitions)
}
