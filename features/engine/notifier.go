package engine

import (
	"feedsync/features/feed"
	"feedsync/features/gateway"
	"feedsync/features/reconcile"
)

type LoadPhase string

const (
	LoadStarted   LoadPhase = "started"
	LoadSucceeded LoadPhase = "succeeded"
	LoadFailed    LoadPhase = "failed"
)

type Trigger string

const (
	TriggerViewer Trigger = "viewer"
	TriggerTimer  Trigger = "timer"
)

// LoadState describes one foreground load at a phase boundary.
type LoadState struct {
	ID       string        `json:"id"`
	Source   string        `json:"source"`
	SortMode feed.SortMode `json:"sort"`
	Phase    LoadPhase     `json:"phase"`
	Trigger  Trigger       `json:"trigger"`
	Items    int           `json:"items,omitempty"`
	Kind     gateway.Kind  `json:"error_kind,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Notifier receives everything the engine makes observable. Calls are made without
// the engine lock held, so implementations may call back into the engine.
type Notifier interface {
	OnTransitions(src feed.Source, mode feed.SortMode, transitions []reconcile.Transition)
	OnLoadStateChange(state LoadState)
	OnTimerTick(elapsed, interval int, errorState bool)
}

// NopNotifier ignores every notification.
type NopNotifier struct{}

func (NopNotifier) OnTransitions(feed.Source, feed.SortMode, []reconcile.Transition) {}
func (NopNotifier) OnLoadStateChange(LoadState)                                      {}
func (NopNotifier) OnTimerTick(int, int, bool)                                       {}

// Notifiers fans notifications out in order.
type Notifiers []Notifier

func (ns Notifiers) OnTransitions(src feed.Source, mode feed.SortMode, transitions []reconcile.Transition) {
	for _, n := range ns {
		n.OnTransitions(src, mode, transitions)
	}
}

func (ns Notifiers) OnLoadStateChange(state LoadState) {
	for _, n := range ns {
		n.OnLoadStateChange(state)
	}
}

func (ns Notifiers) OnTimerTick(elapsed, interval int, errorState bool) {
	for _, n := range ns {
		n.OnTimerTick(elapsed, interval, errorState)
	}
}
