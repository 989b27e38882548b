// Package stream fans engine notifications out to server-sent-event subscribers.
package stream

import (
	"sync"

	"feedsync/features/engine"
	"feedsync/features/feed"
	"feedsync/features/reconcile"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 64

const (
	EventTransitions = "transitions"
	EventLoad        = "load"
	EventTick        = "tick"
	EventState       = "state"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type TransitionsData struct {
	Source      string                 `json:"source"`
	SortMode    feed.SortMode          `json:"sort"`
	Transitions []reconcile.Transition `json:"transitions"`
	Summary     map[reconcile.Kind]int `json:"summary"`
}

type TickData struct {
	Elapsed    int  `json:"elapsed"`
	Interval   int  `json:"interval"`
	ErrorState bool `json:"error_state"`
}

// Hub is an engine.Notifier. Slow subscribers lose events rather than block the engine.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

var _ engine.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it and closes
// the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	id := xid.New().String()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	log.Debug().Str("subscriber", id).Msg("Event subscriber connected")

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
			log.Debug().Str("subscriber", id).Msg("Event subscriber disconnected")
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber with room for it.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Debug().Str("subscriber", id).Str("event", ev.Type).Msg("Subscriber buffer full, event dropped")
		}
	}
}

func (h *Hub) OnTransitions(src feed.Source, mode feed.SortMode, transitions []reconcile.Transition) {
	h.Publish(Event{Type: EventTransitions, Data: TransitionsData{
		Source:      src.Path(),
		SortMode:    mode,
		Transitions: transitions,
		Summary:     reconcile.Summary(transitions),
	}})
}

func (h *Hub) OnLoadStateChange(state engine.LoadState) {
	h.Publish(Event{Type: EventLoad, Data: state})
}

func (h *Hub) OnTimerTick(elapsed, interval int, errorState bool) {
	h.Publish(Event{Type: EventTick, Data: TickData{Elapsed: elapsed, Interval: interval, ErrorState: errorState}})
}
