package runner

import (
	"github.com/rs/zerolog/log"
)

// executeTick is the task gocron runs for every registered ticker.
func (r *Runner) executeTick(name string) {
	r.mu.RLock()
	t, exists := r.tickers[name]
	r.mu.RUnlock()

	if !exists {
		log.Error().Str("ticker", name).Msg("Ticker not found in registry")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("ticker", name).Msg("Ticker panicked")
		}
	}()

	t.Tick(r.ctx)
}
