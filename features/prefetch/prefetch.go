// Package prefetch backfills the sibling sort modes of a source after a foreground load.
package prefetch

import (
	"context"
	"time"

	"feedsync/features/cache"
	"feedsync/features/feed"
	"feedsync/features/gateway"
	"feedsync/internal/collector"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Host owns the notion of the active source. Commit must check and write atomically
// with respect to source switches.
type Host interface {
	Active(src feed.Source) bool
	Commit(src feed.Source, mode feed.SortMode, items []feed.Item) bool
}

type Options struct {
	// Delay paces requests; zero disables pacing.
	Delay time.Duration
	// MaxAge is the staleness window a cached sibling must be within to be skipped.
	MaxAge time.Duration
}

// Scheduler runs prefetch walks one at a time on a single-worker pool.
type Scheduler struct {
	pool    pond.Pool
	fetcher gateway.Fetcher
	cache   *cache.ItemCache
	host    Host
	limiter *rate.Limiter
	maxAge  time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(fetcher gateway.Fetcher, items *cache.ItemCache, host Host, opts Options) *Scheduler {
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		pool:    pond.NewPool(1),
		fetcher: fetcher,
		cache:   items,
		host:    host,
		limiter: rate.NewLimiter(limit, 1),
		maxAge:  opts.MaxAge,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run queues a walk over modes for src, skipping loaded. Walks never overlap.
func (s *Scheduler) Run(src feed.Source, loaded feed.SortMode, modes []feed.SortMode) pond.Task {
	candidates := make([]feed.SortMode, 0, len(modes))
	for _, m := range modes {
		if m != loaded {
			candidates = append(candidates, m)
		}
	}

	return s.pool.Submit(func() {
		s.walk(src, candidates)
	})
}

func (s *Scheduler) walk(src feed.Source, candidates []feed.SortMode) {
	mc := collector.GetMetricsCollector()
	logger := log.With().Str("source", src.Path()).Logger()

	for _, mode := range candidates {
		if !s.host.Active(src) {
			mc.IncrementPrefetch("cancelled")
			logger.Debug().Str("sort", mode.String()).Msg("Prefetch walk cancelled, source changed")
			return
		}

		if !s.cache.IsStale(src, mode, s.maxAge) {
			mc.IncrementPrefetch("fresh")
			continue
		}

		if err := s.limiter.Wait(s.ctx); err != nil {
			mc.IncrementPrefetch("cancelled")
			return
		}

		if !s.host.Active(src) {
			mc.IncrementPrefetch("cancelled")
			return
		}

		items, err := s.fetcher.Fetch(s.ctx, src, mode)
		if err != nil {
			mc.IncrementPrefetch("failed")
			logger.Debug().Err(err).Str("sort", mode.String()).Msg("Prefetch failed")
			continue
		}

		if len(items) == 0 {
			mc.IncrementPrefetch("empty")
			continue
		}

		if !s.host.Commit(src, mode, items) {
			mc.IncrementPrefetch("discarded")
			logger.Debug().Str("sort", mode.String()).Msg("Prefetch result discarded, source changed")
			return
		}

		mc.IncrementPrefetch("cached")
		logger.Trace().Str("sort", mode.String()).Int("items", len(items)).Msg("Prefetched")
	}
}

// Close cancels in-flight waits and fetches and waits for queued walks to drain.
func (s *Scheduler) Close() {
	s.cancel()
	s.pool.StopAndWait()
}
