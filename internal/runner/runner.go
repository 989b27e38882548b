// Package runner drives periodic engine work with a gocron scheduler.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrFailedToCreateScheduler = errors.New("failed to create scheduler")
	ErrTickerAlreadyExists     = errors.New("ticker already registered")
	ErrTickerNotFound          = errors.New("ticker not registered")
	ErrFailedToCreateJob       = errors.New("failed to create job")
	ErrInvalidInterval         = errors.New("tick interval must be positive")
)

// Ticker is advanced once per interval. The engine's refresh timer is one.
type Ticker interface {
	Tick(ctx context.Context)
}

// Runner manages the scheduled tickers.
type Runner struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	tickers   map[string]Ticker
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
}

type Option func(*[]gocron.SchedulerOption)

// WithClock swaps the scheduler clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(opts *[]gocron.SchedulerOption) {
		*opts = append(*opts, gocron.WithClock(clock))
	}
}

func NewRunner(options ...Option) (*Runner, error) {
	opts := []gocron.SchedulerOption{
		gocron.WithLocation(time.UTC),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		),
	}
	for _, o := range options {
		o(&opts)
	}

	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create scheduler")
		return nil, ErrFailedToCreateScheduler
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		scheduler: scheduler,
		jobs:      make(map[string]gocron.Job),
		tickers:   make(map[string]Ticker),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// RegisterTicker schedules t every interval. A tick that is still running when the
// next one is due is rescheduled, never run concurrently.
func (r *Runner) RegisterTicker(name string, t Ticker, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickers[name]; exists {
		log.Error().Str("ticker", name).Msg("Ticker already registered")
		return ErrTickerAlreadyExists
	}

	job, err := r.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.executeTick, name),
		gocron.WithName("tick_"+name),
		gocron.WithTags("tick", name),
	)
	if err != nil {
		log.Error().Err(err).Str("ticker", name).Msg("Failed to schedule ticker")
		return fmt.Errorf("%w: %w", ErrFailedToCreateJob, err)
	}

	r.tickers[name] = t
	r.jobs[name] = job

	log.Debug().
		Str("ticker", name).
		Dur("interval", interval).
		Msg("Ticker registered with scheduler")

	return nil
}

// Start begins the scheduler
func (r *Runner) Start() {
	r.scheduler.Start()
	log.Info().Int("jobs", len(r.jobs)).Msg("Scheduler started")
}

// Stop halts the scheduler and cancels the context handed to running ticks.
func (r *Runner) Stop(ctx context.Context) error {
	r.cancel()

	done := make(chan error, 1)
	go func() { done <- r.scheduler.Shutdown() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns the next scheduled tick of name.
func (r *Runner) NextRun(name string) (time.Time, error) {
	r.mu.RLock()
	job, exists := r.jobs[name]
	r.mu.RUnlock()

	if !exists {
		return time.Time{}, ErrTickerNotFound
	}
	return job.NextRun()
}
