// Package events streams engine notifications to the browser as server-sent events.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"feedsync/features/engine"
	"feedsync/features/web/stream"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const keepAliveInterval = 15 * time.Second

var ErrHubRequired = errors.New("event routes need an engine and a hub")

type Handler struct {
	engine *engine.Engine
	hub    *stream.Hub
}

func MapRoutes(g *echo.Group, eng *engine.Engine, hub *stream.Hub) error {
	if eng == nil || hub == nil {
		return ErrHubRequired
	}
	h := &Handler{engine: eng, hub: hub}
	g.GET("/events", h.Stream)
	return nil
}

// Stream opens with a state event, then relays hub events until the client leaves.
func (h *Handler) Stream(c echo.Context) error {
	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, stream.Event{Type: stream.EventState, Data: h.engine.State()}); err != nil {
		return nil
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, ev); err != nil {
				log.Debug().Err(err).Msg("Event stream closed")
				return nil
			}
		}
	}
}

func writeEvent(w *echo.Response, ev stream.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
