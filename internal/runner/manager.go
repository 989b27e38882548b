package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const RefreshTicker = "refresh"

var (
	ErrRunnerCreate  = errors.New("failed to create runner")
	ErrRunnerNotInit = errors.New("runner not initialized")
)

var (
	globalRunner *Runner
	initOnce     sync.Once
	initError    error
)

// InitializeRunner creates the global runner, registers the refresh ticker and starts it.
func InitializeRunner(refresh Ticker, interval time.Duration) (*Runner, error) {
	initOnce.Do(func() {
		r, err := NewRunner()
		if err != nil {
			log.Err(err).Msg("Failed to create runner")
			initError = ErrRunnerCreate
			return
		}

		if err := r.RegisterTicker(RefreshTicker, refresh, interval); err != nil {
			initError = errors.Join(ErrRunnerCreate, err)
			return
		}

		globalRunner = r
		globalRunner.Start()
		log.Info().Dur("interval", interval).Msg("Global scheduler runner initialized and started")
	})

	return globalRunner, initError
}

// GetRunner returns the global runner instance
func GetRunner() (*Runner, error) {
	if globalRunner == nil {
		log.Error().Msg("Runner not initialized")
		return nil, ErrRunnerNotInit
	}
	return globalRunner, nil
}

// ShutdownRunner stops the global runner
func ShutdownRunner(ctx context.Context) error {
	if globalRunner == nil {
		return nil
	}
	return globalRunner.Stop(ctx)
}
