package ledger

import (
	"encoding/json"
	"testing"

	"feedsync/features/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var golang = feed.MustSource("golang")

func items(ids ...string) []feed.Item {
	out := make([]feed.Item, len(ids))
	for i, id := range ids {
		out[i] = feed.Item{ID: id}
	}
	return out
}

func TestHideIsScopedPerSortMode(t *testing.T) {
	l := New()
	assert.True(t, l.Hide(golang, feed.SortHot, "x"))
	assert.False(t, l.Hide(golang, feed.SortHot, "x"), "second hide is a no-op")

	assert.True(t, l.IsHidden(golang, feed.SortHot, "x"))
	assert.False(t, l.IsHidden(golang, feed.SortNew, "x"))
	assert.False(t, l.IsHidden(feed.MustSource("rust"), feed.SortHot, "x"))
}

func TestReconcileAdoptsAcrossSortModes(t *testing.T) {
	l := New()
	l.Hide(golang, feed.SortHot, "x")

	changed := l.Reconcile(golang, feed.SortNew, items("a", "x", "b"))

	assert.True(t, changed)
	assert.True(t, l.IsHidden(golang, feed.SortNew, "x"))
	assert.True(t, l.IsHidden(golang, feed.SortHot, "x"), "source tab keeps its own entry")
}

func TestReconcileIgnoresOtherSources(t *testing.T) {
	l := New()
	l.Hide(feed.MustSource("rust"), feed.SortHot, "x")

	changed := l.Reconcile(golang, feed.SortNew, items("x"))

	assert.False(t, changed)
	assert.False(t, l.IsHidden(golang, feed.SortNew, "x"))
}

func TestReconcilePrunesVanishedIDs(t *testing.T) {
	l := New()
	l.Hide(golang, feed.SortHot, "x")
	l.Hide(golang, feed.SortHot, "y")

	changed := l.Reconcile(golang, feed.SortHot, items("y", "z"))

	assert.True(t, changed)
	assert.False(t, l.IsHidden(golang, feed.SortHot, "x"))
	assert.True(t, l.IsHidden(golang, feed.SortHot, "y"))
	assert.Equal(t, []string{"y"}, l.Hidden(golang, feed.SortHot))
}

func TestReconcilePruneOnlyTouchesOwnSortMode(t *testing.T) {
	l := New()
	l.Hide(golang, feed.SortHot, "x")

	l.Reconcile(golang, feed.SortNew, items("a"))

	assert.True(t, l.IsHidden(golang, feed.SortHot, "x"))
}

func TestReconcileUnchanged(t *testing.T) {
	l := New()
	l.Hide(golang, feed.SortHot, "x")

	assert.False(t, l.Reconcile(golang, feed.SortHot, items("x", "y")))
	assert.False(t, l.Reconcile(golang, feed.SortTop, items("a")))
}

func TestUnhidePurgeAndCounts(t *testing.T) {
	l := New()
	l.Hide(golang, feed.SortHot, "x")
	l.Hide(golang, feed.SortHot, "y")
	l.Hide(golang, feed.SortTop, "z")

	assert.Equal(t, 2, l.Count(golang, feed.SortHot))
	assert.Equal(t, 3, l.Total())

	assert.True(t, l.Unhide(golang, feed.SortHot, "x"))
	assert.False(t, l.Unhide(golang, feed.SortHot, "x"))
	assert.False(t, l.Unhide(golang, feed.SortRising, "x"))
	assert.Equal(t, 1, l.Count(golang, feed.SortHot))

	l.Purge()
	assert.Zero(t, l.Total())
	assert.False(t, l.IsHidden(golang, feed.SortTop, "z"))
}

func TestEncodeDecode(t *testing.T) {
	l := New()
	l.Hide(golang, feed.SortHot, "b")
	l.Hide(golang, feed.SortHot, "a")
	l.Hide(feed.MustSource("/user/alice/m/news"), feed.SortTop, "c")

	data, err := l.Encode()
	require.NoError(t, err)

	var record map[string]map[string][]string
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, []string{"b", "a"}, record["golang"]["hot"], "ids keep hide order")
	assert.Equal(t, []string{"c"}, record["/user/alice/m/news"]["top"])

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, decoded.Hidden(golang, feed.SortHot))
	assert.True(t, decoded.IsHidden(feed.MustSource("/user/alice/m/news"), feed.SortTop, "c"))
}

func TestDecodeLegacyFormat(t *testing.T) {
	data := []byte(`{"golang":["a","b"],"rust":{"new":["c"]}}`)

	l, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, l.Hidden(golang, feed.SortHot))
	assert.True(t, l.IsHidden(feed.MustSource("rust"), feed.SortNew, "c"))
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	l, err := Decode(nil)
	require.NoError(t, err)
	assert.Zero(t, l.Total())

	_, err = Decode([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrDecodeRecord)

	_, err = Decode([]byte(`{"golang":42}`))
	assert.ErrorIs(t, err, ErrDecodeRecord)
}
