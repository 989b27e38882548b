package health

import (
	"net/http"

	"feedsync/features/engine"
	"feedsync/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MapHealth sets up a healthcheck endpoint if enabled in config.
func MapHealth(e *echo.Echo, cfg config.ServerConfig, eng *engine.Engine) {
	if !cfg.HealthCheck {
		log.Info().Msg("Health check disabled")
		return
	}
	g := e.Group("/health")
	g.GET("/status", StatusCheck(eng))
	log.Info().Msg("Health check enabled at /health/status")
}

// StatusCheck reports "ok" unless the engine is paused on a failed load, which is
// reported as "degraded" with the same 200 status.
func StatusCheck(eng *engine.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		state := eng.State()
		status := "ok"
		if state.InErrorState {
			status = "degraded"
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":      status,
			"source":      state.ActiveSource,
			"timer_state": state.TimerState,
		})
	}
}
