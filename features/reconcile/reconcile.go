// Package reconcile classifies how items moved between two successive lists.
// It only names the transition; timing and animation belong to presentation.
package reconcile

import (
	"feedsync/features/feed"

	"github.com/samber/lo"
)

type Kind string

const (
	Enter    Kind = "ENTER"
	Exit     Kind = "EXIT"
	MoveUp   Kind = "MOVE_UP"
	MoveDown Kind = "MOVE_DOWN"
	Stable   Kind = "STABLE"
)

// Kinds lists every transition kind.
var Kinds = []Kind{Enter, Exit, MoveUp, MoveDown, Stable}

type Transition struct {
	ItemID string    `json:"item_id"`
	Kind   Kind      `json:"kind"`
	Item   feed.Item `json:"item"`
}

// Filter decides whether an item is visible. A nil Filter keeps everything.
type Filter func(feed.Item) bool

// Diff filters both lists with keep and classifies every visible item.
// Transitions follow current's order, then exits in previous's order.
func Diff(previous, current []feed.Item, keep Filter) []Transition {
	if keep != nil {
		previous = lo.Filter(previous, func(it feed.Item, _ int) bool { return keep(it) })
		current = lo.Filter(current, func(it feed.Item, _ int) bool { return keep(it) })
	}

	prevIndex := indexByID(previous)
	currIndex := indexByID(current)

	transitions := make([]Transition, 0, len(current)+len(previous))

	for i, it := range current {
		t := Transition{ItemID: it.ID, Item: it}
		j, existed := prevIndex[it.ID]
		switch {
		case !existed:
			t.Kind = Enter
		case i < j:
			t.Kind = MoveUp
		case i > j:
			t.Kind = MoveDown
		default:
			t.Kind = Stable
		}
		transitions = append(transitions, t)
	}

	for _, it := range previous {
		if _, ok := currIndex[it.ID]; !ok {
			transitions = append(transitions, Transition{ItemID: it.ID, Kind: Exit, Item: it})
		}
	}

	return transitions
}

func indexByID(items []feed.Item) map[string]int {
	index := make(map[string]int, len(items))
	for i, it := range items {
		if _, dup := index[it.ID]; !dup {
			index[it.ID] = i
		}
	}
	return index
}

// Summary counts transitions per kind.
func Summary(transitions []Transition) map[Kind]int {
	return lo.CountValuesBy(transitions, func(t Transition) Kind { return t.Kind })
}

// Changed reports whether any transition is not Stable.
func Changed(transitions []Transition) bool {
	return lo.SomeBy(transitions, func(t Transition) bool { return t.Kind != Stable })
}
