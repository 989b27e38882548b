package cmd

import (
	"context"

	"feedsync/features/web"
	"feedsync/features/web/stream"
	"feedsync/internal/runner"
	"feedsync/internal/telemetry"

	"github.com/ory/graceful"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// WebServer is the CLI command that starts the web API server.
var WebServer = &cli.Command{
	Name:    "serve",
	Aliases: []string{"s"},
	Usage:   "Start the web API and event stream",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source to activate at startup.",
		},
	},
	Action: serve,
}

func serve(c *cli.Context) (err error) {
	hub := stream.NewHub()
	s, err := openSession(c.Context, hub)
	if err != nil {
		return err
	}
	defer s.Close()
	cfg := s.cfg

	shutdownTelemetry, err := telemetry.InitTelemetry(c.Context, cfg.Telemetry, Version)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize telemetry")
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down telemetry")
		}
	}()

	app, err := web.NewApplication(&cfg.Server, cfg.Telemetry.ServiceName, s.engine, hub)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create web application")
		return err
	}

	if src := c.String("source"); src != "" {
		if err := s.engine.SetSource(c.Context, src); err != nil {
			log.Warn().Err(err).Str("source", src).Msg("Initial load failed")
		}
	}

	if _, err := runner.InitializeRunner(s.engine, cfg.Engine.TickInterval); err != nil {
		log.Error().Err(err).Msg("Failed to initialize scheduler runner")
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := runner.ShutdownRunner(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to stop scheduler runner")
		}
	}()

	server := graceful.WithDefaults(app.Echo.Server)
	// Event streams outlive the default write timeout.
	server.ReadTimeout = cfg.Server.ReadTimeout
	server.WriteTimeout = cfg.Server.WriteTimeout
	log.Info().Msgf("Starting server on %s", server.Addr)

	if err = graceful.Graceful(server.ListenAndServe, server.Shutdown); err != nil {
		log.Error().Err(err).Msg("Failed to start server")
		return err
	}

	log.Info().Msg("Server stopped gracefully.")
	return nil
}
