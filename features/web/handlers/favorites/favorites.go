package favorites

import (
	"errors"
	"net/http"

	"feedsync/features/engine"
	"feedsync/features/web/handlers/response"

	"github.com/labstack/echo/v4"
)

var ErrEngineRequired = errors.New("favorites routes need an engine")

type FavoriteInput struct {
	Path string `json:"path" validate:"required"`
}

type Handler struct {
	engine *engine.Engine
}

func MapRoutes(g *echo.Group, eng *engine.Engine) error {
	if eng == nil {
		return ErrEngineRequired
	}
	h := &Handler{engine: eng}

	g.GET("/favorites", h.List)
	g.POST("/favorites", h.Add)
	g.DELETE("/favorites", h.Remove)
	g.POST("/favorites/toggle", h.Toggle)
	return nil
}

func (h *Handler) List(c echo.Context) error {
	return response.Success(c, h.engine.Favorites())
}

func (h *Handler) Add(c echo.Context) error {
	var in FavoriteInput
	if err := c.Bind(&in); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return response.BadRequest(c, err.Error())
	}

	added, err := h.engine.AddFavorite(c.Request().Context(), in.Path)
	if err != nil {
		return response.FromError(c, err)
	}
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	return c.JSON(code, map[string]any{
		"success": true,
		"data":    map[string]any{"path": in.Path, "added": added},
	})
}

// Remove takes the path from the query string since composite paths contain slashes.
func (h *Handler) Remove(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return response.BadRequest(c, "path query parameter is required")
	}
	if !h.engine.RemoveFavorite(c.Request().Context(), path) {
		return response.NotFound(c, "not a favorite", path)
	}
	return response.Success(c, map[string]string{"path": path})
}

func (h *Handler) Toggle(c echo.Context) error {
	on, err := h.engine.ToggleFavorite(c.Request().Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, map[string]bool{"favorite": on})
}
