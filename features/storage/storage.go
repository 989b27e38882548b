// Package storage persists the engine's named records.
package storage

import (
	"context"
	"errors"
	"fmt"

	"feedsync/internal/config"
	"feedsync/internal/db"
)

// Record names. They match the keys the browser client used for local storage.
const (
	RecordHidden    = "hiddenPosts"
	RecordBlocked   = "blockedSources"
	RecordFavorites = "redditFlowFavorites"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrPersistence   = errors.New("persistence failure")
	ErrClosed        = errors.New("store closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store is a key/value store of whole records. Backend failures wrap ErrPersistence.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "badger":
		return NewBadgerStore(cfg.BadgerPath, cfg.InMemory)
	case "sqlite":
		conn, err := db.Connect(db.WithPath(cfg.SQLitePath), db.WithInMemory(cfg.InMemory))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		return NewSQLStore(conn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func persistenceError(op, name string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPersistence, op, name, err)
}
