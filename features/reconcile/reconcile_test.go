package reconcile

import (
	"testing"

	"feedsync/features/feed"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func items(ids ...string) []feed.Item {
	out := make([]feed.Item, len(ids))
	for i, id := range ids {
		out[i] = feed.Item{ID: id, OriginDomain: id + ".example"}
	}
	return out
}

type kinded struct {
	ID   string
	Kind Kind
}

func kinds(ts []Transition) []kinded {
	out := make([]kinded, len(ts))
	for i, t := range ts {
		out[i] = kinded{t.ItemID, t.Kind}
	}
	return out
}

func TestDiff(t *testing.T) {
	testCases := []struct {
		name     string
		previous []feed.Item
		current  []feed.Item
		keep     Filter
		expected []kinded
	}{
		{
			name:     "reorder with enter and exit",
			previous: items("a", "b", "c"),
			current:  items("b", "a", "d"),
			expected: []kinded{{"b", MoveUp}, {"a", MoveDown}, {"d", Enter}, {"c", Exit}},
		},
		{
			name:     "identical lists are stable",
			previous: items("a", "b", "c"),
			current:  items("a", "b", "c"),
			expected: []kinded{{"a", Stable}, {"b", Stable}, {"c", Stable}},
		},
		{
			name:     "first load enters everything",
			previous: nil,
			current:  items("a", "b"),
			expected: []kinded{{"a", Enter}, {"b", Enter}},
		},
		{
			name:     "empty current exits in previous order",
			previous: items("a", "b"),
			current:  nil,
			expected: []kinded{{"a", Exit}, {"b", Exit}},
		},
		{
			name:     "filtered items do not shift positions",
			previous: items("h", "a", "b"),
			current:  items("a", "h", "b"),
			keep:     func(it feed.Item) bool { return it.ID != "h" },
			expected: []kinded{{"a", Stable}, {"b", Stable}},
		},
		{
			name:     "filter applies to both lists",
			previous: items("a", "x"),
			current:  items("x", "a", "y"),
			keep:     func(it feed.Item) bool { return it.ID != "x" },
			expected: []kinded{{"a", Stable}, {"y", Enter}},
		},
		{
			name:     "multiple exits keep previous order",
			previous: items("a", "b", "c", "d"),
			current:  items("c"),
			expected: []kinded{{"c", MoveUp}, {"a", Exit}, {"b", Exit}, {"d", Exit}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := kinds(Diff(tc.previous, tc.current, tc.keep))
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffCarriesItems(t *testing.T) {
	ts := Diff(items("a"), items("b"), nil)

	assert.Equal(t, "b.example", ts[0].Item.OriginDomain)
	assert.Equal(t, "a.example", ts[1].Item.OriginDomain)
}

func TestSummaryAndChanged(t *testing.T) {
	ts := Diff(items("a", "b", "c"), items("b", "a", "d"), nil)

	assert.Equal(t, map[Kind]int{MoveUp: 1, MoveDown: 1, Enter: 1, Exit: 1}, Summary(ts))
	assert.True(t, Changed(ts))

	stable := Diff(items("a", "b"), items("a", "b"), nil)
	assert.False(t, Changed(stable))
	assert.False(t, Changed(nil))
}
