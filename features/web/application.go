package web

import (
	"errors"
	"strconv"
	"sync"

	"net/http"
	"net/http/pprof"
	rpprof "runtime/pprof"

	"feedsync/features/engine"
	"feedsync/features/web/middlewares"
	"feedsync/features/web/stream"
	"feedsync/internal/collector"
	"feedsync/internal/config"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/unrolled/secure"
	"github.com/ziflex/lecho/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Application errors
var (
	ErrApplicationNotInitialized = errors.New("application not initialized")
	ErrEngineRequired            = errors.New("engine is required")
	ErrRoutesMapFailed           = errors.New("routes configuration failed")
)

var (
	onceApplication sync.Once
	application     *Application

	// echoprometheus registers its collectors on the default registry, so it may only be
	// built once per process.
	promMiddleware = sync.OnceValue(func() echo.MiddlewareFunc {
		return echoprometheus.NewMiddleware("echo")
	})
)

// Application holds the Echo instance serving one engine and its event hub.
type Application struct {
	Echo   *echo.Echo
	config *config.ServerConfig
	logger *lecho.Logger
	engine *engine.Engine
	hub    *stream.Hub
	name   string
}

func (app *Application) Engine() *engine.Engine { return app.engine }

func (app *Application) Hub() *stream.Hub { return app.hub }

// GetApplication retrieves the process-wide Application.
func GetApplication() (*Application, error) {
	if application == nil {
		return nil, ErrApplicationNotInitialized
	}
	return application, nil
}

// NewApplication builds the process-wide Application once. Later calls return the first
// one.
func NewApplication(cfg *config.ServerConfig, serviceName string, eng *engine.Engine, hub *stream.Hub) (*Application, error) {
	var initErr error
	onceApplication.Do(func() {
		application, initErr = New(cfg, serviceName, eng, hub)
	})
	if application == nil && initErr == nil {
		initErr = ErrApplicationNotInitialized
	}
	return application, initErr
}

// New wires middlewares and routes for eng. A nil hub disables /api/events.
func New(cfg *config.ServerConfig, serviceName string, eng *engine.Engine, hub *stream.Hub) (*Application, error) {
	if eng == nil {
		return nil, ErrEngineRequired
	}
	if serviceName == "" {
		serviceName = "feedsync"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.Addr = ":" + strconv.Itoa(cfg.Port)
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	app := &Application{
		Echo:   e,
		config: cfg,
		engine: eng,
		hub:    hub,
		name:   serviceName,
	}

	app.configureLogger()
	app.configureMiddleware()

	if err := app.ConfigureRoutes(); err != nil {
		log.Err(err).Msg("Routes configuration error")
		return nil, ErrRoutesMapFailed
	}

	if cfg.Pprof {
		app.ConfigurePprof()
	}

	collector.GetMetricsCollector().ExposeWebMetrics(e)

	log.Info().Str("address", e.Server.Addr).Msg("Server configured")
	return app, nil
}

func (app *Application) configureMiddleware() {
	e := app.Echo

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	e.Use(otelecho.Middleware(app.name))
	e.Use(promMiddleware())

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		BrowserXssFilter:   true,
		ContentTypeNosniff: true,
	})
	e.Use(echo.WrapMiddleware(secureMiddleware.Handler))

	e.Use(lecho.Middleware(lecho.Config{Logger: app.logger}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     app.config.AllowOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestedWith,
			echo.HeaderAuthorization,
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	e.Use(middlewares.RequestLogger())
	e.Pre(middleware.RemoveTrailingSlash())

	middlewares.ConfigureValidator(e)
}

func (app *Application) configureLogger() {
	lechoLogger := lecho.From(log.Logger, lecho.WithTimestamp())
	app.Echo.Logger = lechoLogger
	app.logger = lechoLogger
}

func (app *Application) ConfigurePprof() {
	pprofGroup := app.Echo.Group("/debug/pprof")

	pprofGroup.GET("", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	pprofGroup.GET("/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	pprofGroup.GET("/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	pprofGroup.GET("/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	pprofGroup.GET("/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))

	for _, profile := range rpprof.Profiles() {
		name := profile.Name()
		pprofGroup.GET("/"+name, echo.WrapHandler(pprof.Handler(name)))
	}
	log.Info().Msg("pprof endpoints enabled at /debug/pprof")
}
