package cmd

import (
	"context"
	"errors"

	"feedsync/features/engine"
	"feedsync/features/gateway"
	"feedsync/features/storage"
	"feedsync/internal/colly"
	"feedsync/internal/config"

	"github.com/rs/zerolog/log"
)

// session is an opened engine together with the store it persists to.
type session struct {
	cfg    *config.Config
	engine *engine.Engine
	store  storage.Store
}

func newGateway(cfg *config.Config) (*gateway.Gateway, error) {
	cc, err := colly.InitCollyClient()
	if err != nil {
		return nil, err
	}
	return gateway.New(cc, cfg.Upstream), nil
}

// openSession builds the engine from config and restores its durable records.
func openSession(ctx context.Context, notifier engine.Notifier) (*session, error) {
	if err := config.InitConfig(); err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return nil, err
	}
	cfg := config.GetConfig()

	gw, err := newGateway(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Store)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
		return nil, err
	}

	eng, err := engine.New(engine.Options{
		Fetcher:  gw,
		Store:    store,
		Notifier: notifier,
		Config:   cfg.Engine,
	})
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	eng.Open(ctx)

	return &session{cfg: cfg, engine: eng, store: store}, nil
}

func (s *session) Close() {
	s.engine.Close()
	if err := s.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close store")
	}
}
