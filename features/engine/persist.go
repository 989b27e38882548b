package engine

import (
	"context"
	"errors"

	"feedsync/features/storage"
	"feedsync/internal/collector"

	"github.com/rs/zerolog/log"
)

// loadRecord reads a record. It reports false when the record is absent or unreadable.
func (e *Engine) loadRecord(ctx context.Context, name string) ([]byte, bool) {
	if e.store == nil {
		return nil, false
	}

	data, err := e.store.Load(ctx, name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, false
	case err != nil:
		e.persistenceFailure(name, err)
		return nil, false
	}
	return data, true
}

func (e *Engine) saveRecord(ctx context.Context, name string, encode func() ([]byte, error)) {
	if e.store == nil {
		return
	}

	data, err := encode()
	if err == nil {
		err = e.store.Save(ctx, name, data)
	}
	if err != nil {
		e.persistenceFailure(name, err)
	}
}

// persistenceFailure never propagates: memory stays authoritative for the session.
func (e *Engine) persistenceFailure(name string, err error) {
	collector.GetMetricsCollector().IncrementPersistenceFailure(name)
	log.Error().Err(err).Str("record", name).Msg("PERSISTENCE_FAILURE")
}

func (e *Engine) persistHiddenLocked(ctx context.Context) {
	e.saveRecord(ctx, storage.RecordHidden, e.ledger.Encode)
}

func (e *Engine) persistBlockedLocked(ctx context.Context) {
	e.saveRecord(ctx, storage.RecordBlocked, e.blocked.Encode)
}

func (e *Engine) persistFavoritesLocked(ctx context.Context) {
	e.saveRecord(ctx, storage.RecordFavorites, e.favorites.Encode)
}
