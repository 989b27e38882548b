// Package engine is the feed synchronisation engine: one object owning the item cache,
// hidden-item ledger, blocked origins, favorites and refresh timer for the active
// (source, sort mode) pair.
//
// Every state mutation happens under a single lock and runs to completion, network
// fetches and prefetch pacing happen outside of it. Hosts drive the engine through its
// exported operations and observe it through a Notifier.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"feedsync/features/blocklist"
	"feedsync/features/cache"
	"feedsync/features/favorites"
	"feedsync/features/feed"
	"feedsync/features/gateway"
	"feedsync/features/ledger"
	"feedsync/features/prefetch"
	"feedsync/features/storage"
	"feedsync/features/timer"
	"feedsync/internal/config"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoSource      = errors.New("no active source")
	ErrSourceChanged = errors.New("source changed while loading")
	ErrClosed        = errors.New("engine closed")
)

type Options struct {
	Fetcher  gateway.Fetcher
	Store    storage.Store
	Notifier Notifier
	Clock    clockwork.Clock
	Config   config.EngineConfig
}

// State is a snapshot of the engine's observable state.
type State struct {
	ActiveSource   string        `json:"active_source"`
	ActiveSortMode feed.SortMode `json:"active_sort"`
	DisplayName    string        `json:"display_name,omitempty"`
	TimerState     timer.State   `json:"timer_state"`
	TimerElapsed   int           `json:"timer_elapsed"`
	TimerInterval  int           `json:"timer_interval"`
	InErrorState   bool          `json:"in_error_state"`
	Loading        bool          `json:"loading"`
	Visible        int           `json:"visible"`
	Hidden         int           `json:"hidden"`
	IsFavorite     bool          `json:"is_favorite"`
}

type Engine struct {
	mu sync.Mutex

	fetcher  gateway.Fetcher
	store    storage.Store
	notifier Notifier
	clock    clockwork.Clock
	modes    []feed.SortMode
	maxAge   time.Duration

	cache     *cache.ItemCache
	ledger    *ledger.Ledger
	blocked   *blocklist.Set
	favorites *favorites.List
	timer     *timer.Timer
	prefetch  *prefetch.Scheduler

	source    feed.Source
	sort      feed.SortMode
	displayed []feed.Item
	inError   bool
	loadSeq   uint64
	inflight  int
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an engine. A nil Store keeps everything in memory, a nil Notifier drops
// notifications and a nil Clock uses the real clock.
func New(opts Options) (*Engine, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("engine requires a fetcher")
	}

	modes, err := feed.ParseSortModes(opts.Config.SortModes)
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		fetcher:   opts.Fetcher,
		store:     opts.Store,
		notifier:  notifier,
		clock:     clock,
		modes:     modes,
		maxAge:    opts.Config.RefreshInterval,
		cache:     cache.NewItemCache(clock),
		ledger:    ledger.New(),
		blocked:   blocklist.New(),
		favorites: favorites.New(),
		timer:     timer.New(opts.Config.RefreshTicks()),
		sort:      modes[0],
		ctx:       ctx,
		cancel:    cancel,
	}

	if opts.Config.Prefetch {
		e.prefetch = prefetch.New(opts.Fetcher, e.cache, prefetchHost{e}, prefetch.Options{
			Delay:  opts.Config.PrefetchDelay,
			MaxAge: e.maxAge,
		})
	}

	return e, nil
}

// Open reads the durable records once. Missing records start empty; unreadable ones
// are logged and also start empty.
func (e *Engine) Open(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if data, ok := e.loadRecord(ctx, storage.RecordHidden); ok {
		if l, err := ledger.Decode(data); err != nil {
			e.persistenceFailure(storage.RecordHidden, err)
		} else {
			e.ledger = l
		}
	}

	if data, ok := e.loadRecord(ctx, storage.RecordBlocked); ok {
		if s, err := blocklist.Decode(data); err != nil {
			e.persistenceFailure(storage.RecordBlocked, err)
		} else {
			e.blocked = s
		}
	}

	if data, ok := e.loadRecord(ctx, storage.RecordFavorites); ok {
		if f, err := favorites.Decode(data); err != nil {
			e.persistenceFailure(storage.RecordFavorites, err)
		} else {
			e.favorites = f
		}
	}

	log.Info().
		Int("hidden", e.ledger.Total()).
		Int("blocked", e.blocked.Len()).
		Int("favorites", e.favorites.Len()).
		Msg("Engine state restored")
}

// SortModes returns the configured sort modes in prefetch order.
func (e *Engine) SortModes() []feed.SortMode {
	return append([]feed.SortMode(nil), e.modes...)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.timer.Snapshot()
	st := State{
		ActiveSource:   e.source.Path(),
		ActiveSortMode: e.sort,
		TimerState:     snap.State,
		TimerElapsed:   snap.Elapsed,
		TimerInterval:  snap.Interval,
		InErrorState:   e.inError,
		Loading:        e.inflight > 0,
	}
	if !e.source.IsZero() {
		st.DisplayName = e.source.DisplayName()
		st.Visible = len(e.visibleLocked())
		st.Hidden = e.ledger.Count(e.source, e.sort)
		st.IsFavorite = e.favorites.Contains(e.source.Path())
	}
	return st
}

// Visible returns the displayed items with hidden and blocked ones removed.
func (e *Engine) Visible() []feed.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibleLocked()
}

// Wait blocks until background loads and prefetch walks started so far are done.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops background work. The store is owned by the caller.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	// No walk is submitted once closed is set, so the scheduler can be cancelled before
	// joining the goroutines that wait on its walks.
	if e.prefetch != nil {
		e.prefetch.Close()
	}
	e.wg.Wait()
}

// prefetchHost gives the prefetch scheduler a view of the active source.
type prefetchHost struct {
	e *Engine
}

func (h prefetchHost) Active(src feed.Source) bool {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	return !h.e.closed && h.e.source.Equal(src)
}

func (h prefetchHost) Commit(src feed.Source, mode feed.SortMode, items []feed.Item) bool {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	if h.e.closed || !h.e.source.Equal(src) {
		return false
	}
	h.e.cache.Put(src, mode, items)
	return true
}
