package response

import (
	"errors"
	"net/http"

	"feedsync/features/blocklist"
	"feedsync/features/engine"
	"feedsync/features/feed"
	"feedsync/features/gateway"

	"github.com/labstack/echo/v4"
)

// Success returns a standardized success response
func Success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

// Error returns a standardized error response
func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]any{
		"success": false,
		"error":   message,
	})
}

// ErrorWithDetails returns an error response with additional details
func ErrorWithDetails(c echo.Context, code int, message string, details any) error {
	return c.JSON(code, map[string]any{
		"success": false,
		"error":   message,
		"details": details,
	})
}

func NotFound(c echo.Context, message string, input string) error {
	return c.JSON(http.StatusNotFound, map[string]any{
		"success": false,
		"error":   message,
		"input":   input,
	})
}

func BadRequest(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, message)
}

// FromError maps an engine error onto a status code. Fetch failures carry their kind so
// clients can tell a blocked network from an upstream error.
func FromError(c echo.Context, err error) error {
	var gwErr *gateway.Error
	switch {
	case errors.As(err, &gwErr):
		return ErrorWithDetails(c, http.StatusBadGateway, err.Error(), map[string]any{
			"kind":   gwErr.Kind,
			"status": gwErr.StatusCode,
		})
	case errors.Is(err, feed.ErrEmptySource),
		errors.Is(err, feed.ErrUnknownSortMode),
		errors.Is(err, blocklist.ErrEmptyDomain),
		errors.Is(err, blocklist.ErrPublicSuffix):
		return BadRequest(c, err.Error())
	case errors.Is(err, engine.ErrNoSource), errors.Is(err, engine.ErrSourceChanged):
		return Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrClosed):
		return Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		return Error(c, http.StatusInternalServerError, err.Error())
	}
}
