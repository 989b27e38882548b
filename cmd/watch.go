package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"feedsync/features/engine"
	"feedsync/features/feed"
	"feedsync/internal/runner"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// WatchCommand follows one listing in the terminal until interrupted.
var WatchCommand = &cli.Command{
	Name:    "watch",
	Aliases: []string{"w"},
	Usage:   "Follow a listing in the terminal",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Source path, e.g. golang or /user/<name>/m/<list>.",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"o"},
			Usage:   "Sort mode: [hot, new, rising, controversial, top].",
		},
	},
	Action: watch,
}

func watch(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, newTerminalNotifier(color.Output))
	if err != nil {
		return err
	}
	defer s.Close()

	if name := c.String("sort"); name != "" {
		mode, err := feed.ParseSortMode(name)
		if err != nil {
			return err
		}
		if err := s.engine.SetSortMode(ctx, mode); err != nil {
			return err
		}
	}

	if err := s.engine.SetSource(ctx, c.String("source")); err != nil {
		log.Warn().Err(err).Msg("Initial load failed, retrying on the refresh interval")
	}

	r, err := runner.InitializeRunner(s.engine, s.cfg.Engine.TickInterval)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.ShutdownRunner(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to stop scheduler runner")
		}
	}()

	if err := r.RegisterTicker(RetryTicker, errorRetrier{engine: s.engine}, s.cfg.Engine.RefreshInterval); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Msg("Watch stopped")
	return nil
}

// RetryTicker is the runner job that stands in for the viewer's retry button: a failed
// load pauses the refresh timer until someone retries.
const RetryTicker = "retry"

type retryEngine interface {
	State() engine.State
	Retry(ctx context.Context) error
}

// errorRetrier retries the active pair only while the engine is in the error state.
type errorRetrier struct {
	engine retryEngine
}

func (r errorRetrier) Tick(ctx context.Context) {
	if !r.engine.State().InErrorState {
		return
	}
	if err := r.engine.Retry(ctx); err != nil {
		log.Debug().Err(err).Msg("Retry failed")
	}
}
