package blocked

import (
	"errors"
	"net/http"

	"feedsync/features/engine"
	"feedsync/features/web/handlers/response"

	"github.com/labstack/echo/v4"
)

var ErrEngineRequired = errors.New("blocked routes need an engine")

type BlockInput struct {
	Domain string `json:"domain" validate:"required"`
}

type Handler struct {
	engine *engine.Engine
}

func MapRoutes(g *echo.Group, eng *engine.Engine) error {
	if eng == nil {
		return ErrEngineRequired
	}
	h := &Handler{engine: eng}

	g.GET("/blocked", h.List)
	g.POST("/blocked", h.Add)
	g.DELETE("/blocked/:domain", h.Remove)
	return nil
}

func (h *Handler) List(c echo.Context) error {
	return response.Success(c, h.engine.Blocked())
}

func (h *Handler) Add(c echo.Context) error {
	var in BlockInput
	if err := c.Bind(&in); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := c.Validate(&in); err != nil {
		return response.BadRequest(c, err.Error())
	}

	domain, err := h.engine.Block(c.Request().Context(), in.Domain)
	if err != nil {
		return response.FromError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"data":    map[string]string{"domain": domain},
	})
}

func (h *Handler) Remove(c echo.Context) error {
	domain := c.Param("domain")
	removed, err := h.engine.Unblock(c.Request().Context(), domain)
	if err != nil {
		return response.FromError(c, err)
	}
	if !removed {
		return response.NotFound(c, "domain is not blocked", domain)
	}
	return response.Success(c, map[string]string{"domain": domain})
}
