// Package listing serves the active listing: source and sort selection, refresh and the
// hidden-item ledger.
package listing

import (
	"context"
	"errors"
	"net/http"

	"feedsync/features/engine"
	"feedsync/features/feed"
	"feedsync/features/gateway"
	"feedsync/features/web/handlers/response"

	"github.com/labstack/echo/v4"
)

var ErrEngineRequired = errors.New("listing routes need an engine")

type SourceInput struct {
	Path string `json:"path" validate:"required"`
}

type SortInput struct {
	Sort string `json:"sort" validate:"required,oneof=hot new rising controversial top"`
}

type ItemsOutput struct {
	Source   string        `json:"source"`
	SortMode feed.SortMode `json:"sort"`
	Items    []feed.Item   `json:"items"`
	Hidden   int           `json:"hidden"`
}

type Handler struct {
	engine *engine.Engine
}

func MapRoutes(g *echo.Group, eng *engine.Engine) error {
	if eng == nil {
		return ErrEngineRequired
	}
	h := &Handler{engine: eng}

	g.GET("/state", h.State)
	g.PUT("/source", h.SetSource)
	g.PUT("/sort", h.SetSort)
	g.POST("/refresh", h.Refresh)
	g.GET("/items", h.Items)
	g.POST("/items/:id/hide", h.Hide)
	g.DELETE("/items/:id/hide", h.Unhide)
	g.GET("/hidden", h.Hidden)
	g.DELETE("/hidden", h.Purge)

	return nil
}

// engineContext detaches engine work from the request so a client disconnect does not
// turn an in-flight fetch into a network failure.
func engineContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func (h *Handler) State(c echo.Context) error {
	return response.Success(c, h.engine.State())
}

func (h *Handler) SetSource(c echo.Context) error {
	var in SourceInput
	if err := c.Bind(&in); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return response.BadRequest(c, err.Error())
	}

	return h.afterLoad(c, h.engine.SetSource(engineContext(c), in.Path))
}

func (h *Handler) SetSort(c echo.Context) error {
	var in SortInput
	if err := c.Bind(&in); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return response.BadRequest(c, err.Error())
	}

	mode, err := feed.ParseSortMode(in.Sort)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return h.afterLoad(c, h.engine.SetSortMode(engineContext(c), mode))
}

// Refresh reloads the active pair. With ?hard=true every cached sort mode of the source
// is dropped first.
func (h *Handler) Refresh(c echo.Context) error {
	if c.QueryParam("hard") == "true" {
		return h.afterLoad(c, h.engine.Refresh(engineContext(c)))
	}
	return h.afterLoad(c, h.engine.Load(engineContext(c)))
}

// afterLoad answers with the engine state. A superseded load is not the caller's
// failure, the newer request reports the outcome.
func (h *Handler) afterLoad(c echo.Context, err error) error {
	if err == nil || errors.Is(err, engine.ErrSourceChanged) {
		return response.Success(c, h.engine.State())
	}
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return response.ErrorWithDetails(c, http.StatusBadGateway, err.Error(), map[string]any{
			"kind":  gwErr.Kind,
			"state": h.engine.State(),
		})
	}
	return response.FromError(c, err)
}

func (h *Handler) Items(c echo.Context) error {
	state := h.engine.State()
	return response.Success(c, ItemsOutput{
		Source:   state.ActiveSource,
		SortMode: state.ActiveSortMode,
		Items:    h.engine.Visible(),
		Hidden:   state.Hidden,
	})
}

func (h *Handler) Hide(c echo.Context) error {
	changed, err := h.engine.Hide(engineContext(c), c.Param("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, map[string]any{"id": c.Param("id"), "changed": changed})
}

func (h *Handler) Unhide(c echo.Context) error {
	changed, err := h.engine.Unhide(engineContext(c), c.Param("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, map[string]any{"id": c.Param("id"), "changed": changed})
}

func (h *Handler) Hidden(c echo.Context) error {
	return response.Success(c, map[string]any{
		"ids":   h.engine.Hidden(),
		"total": h.engine.HiddenTotal(),
	})
}

func (h *Handler) Purge(c echo.Context) error {
	purged, err := h.engine.PurgeHidden(engineContext(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, map[string]int{"purged": purged})
}
