package web

import (
	"net/http"

	"feedsync/features/web/handlers/blocked"
	"feedsync/features/web/handlers/events"
	"feedsync/features/web/handlers/favorites"
	"feedsync/features/web/handlers/health"
	"feedsync/features/web/handlers/listing"
	"feedsync/features/web/handlers/problem"

	"github.com/labstack/echo/v4"
)

func (app *Application) ConfigureRoutes() error {
	e := app.Echo

	app.MapHome()

	api := e.Group("/api")
	if err := listing.MapRoutes(api, app.engine); err != nil {
		return err
	}
	if err := blocked.MapRoutes(api, app.engine); err != nil {
		return err
	}
	if err := favorites.MapRoutes(api, app.engine); err != nil {
		return err
	}
	if app.hub != nil {
		if err := events.MapRoutes(api, app.engine, app.hub); err != nil {
			return err
		}
	}

	problem.MapRoutes(e)
	health.MapHealth(e, *app.config, app.engine)

	return nil
}

func (app *Application) MapHome() {
	app.Echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Welcome to feedsync")
	})
}
