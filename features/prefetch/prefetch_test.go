package prefetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"feedsync/features/cache"
	"feedsync/features/feed"
	"feedsync/features/gateway"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Source string
	Sort   feed.SortMode
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  []call
	fail   map[feed.SortMode]error
	onCall func(src feed.Source, mode feed.SortMode)
}

func (f *fakeFetcher) Fetch(_ context.Context, src feed.Source, mode feed.SortMode) ([]feed.Item, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Source: src.Path(), Sort: mode})
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(src, mode)
	}
	if err := f.fail[mode]; err != nil {
		return nil, err
	}
	return []feed.Item{{ID: src.Path() + "-" + string(mode)}}, nil
}

func (f *fakeFetcher) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeHost struct {
	mu     sync.Mutex
	active feed.Source
	cache  *cache.ItemCache
}

func (h *fakeHost) Active(src feed.Source) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active.Equal(src)
}

func (h *fakeHost) Commit(src feed.Source, mode feed.SortMode, items []feed.Item) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active.Equal(src) {
		return false
	}
	h.cache.Put(src, mode, items)
	return true
}

func (h *fakeHost) Switch(src feed.Source) {
	h.mu.Lock()
	h.active = src
	h.mu.Unlock()
}

func setup(t *testing.T, f *fakeFetcher, active feed.Source) (*Scheduler, *fakeHost, *cache.ItemCache, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	items := cache.NewItemCache(clock)
	host := &fakeHost{active: active, cache: items}
	s := New(f, items, host, Options{MaxAge: time.Minute})
	t.Cleanup(s.Close)
	return s, host, items, clock
}

func TestWalkSkipsLoadedMode(t *testing.T) {
	src := feed.MustSource("golang")
	f := &fakeFetcher{}
	s, _, items, _ := setup(t, f, src)

	require.NoError(t, s.Run(src, feed.SortHot, feed.SortModes).Wait())

	assert.Equal(t, []call{
		{"golang", feed.SortNew},
		{"golang", feed.SortRising},
		{"golang", feed.SortControversial},
		{"golang", feed.SortTop},
	}, f.Calls())
	assert.Equal(t, 4, items.Len())
}

func TestWalkSkipsFreshEntries(t *testing.T) {
	src := feed.MustSource("golang")
	f := &fakeFetcher{}
	s, _, items, clock := setup(t, f, src)

	items.Put(src, feed.SortNew, []feed.Item{{ID: "cached"}})
	items.Put(src, feed.SortTop, []feed.Item{{ID: "cached"}})
	clock.Advance(30 * time.Second)

	require.NoError(t, s.Run(src, feed.SortHot, feed.SortModes).Wait())

	assert.Equal(t, []call{
		{"golang", feed.SortRising},
		{"golang", feed.SortControversial},
	}, f.Calls())

	e, ok := items.Get(src, feed.SortNew)
	require.True(t, ok)
	assert.Equal(t, "cached", e.Items[0].ID)
}

func TestWalkRefetchesStaleEntries(t *testing.T) {
	src := feed.MustSource("golang")
	f := &fakeFetcher{}
	s, _, items, clock := setup(t, f, src)

	items.Put(src, feed.SortNew, []feed.Item{{ID: "old"}})
	clock.Advance(time.Minute)

	require.NoError(t, s.Run(src, feed.SortHot, []feed.SortMode{feed.SortHot, feed.SortNew}).Wait())

	e, ok := items.Get(src, feed.SortNew)
	require.True(t, ok)
	assert.Equal(t, "golang-new", e.Items[0].ID)
}

func TestWalkContinuesAfterFailure(t *testing.T) {
	src := feed.MustSource("golang")
	f := &fakeFetcher{fail: map[feed.SortMode]error{
		feed.SortNew: &gateway.Error{Kind: gateway.KindHTTP, StatusCode: 500, Err: errors.New("boom")},
	}}
	s, _, items, _ := setup(t, f, src)

	require.NoError(t, s.Run(src, feed.SortHot, feed.SortModes).Wait())

	assert.Len(t, f.Calls(), 4)
	_, ok := items.Get(src, feed.SortNew)
	assert.False(t, ok)
	_, ok = items.Get(src, feed.SortRising)
	assert.True(t, ok)
}

func TestWalkStopsWhenSourceChanges(t *testing.T) {
	s1 := feed.MustSource("golang")
	s2 := feed.MustSource("rust")
	f := &fakeFetcher{}
	s, host, items, _ := setup(t, f, s1)

	// The switch lands while the first prefetch request is in flight.
	f.onCall = func(src feed.Source, mode feed.SortMode) {
		if mode == feed.SortNew {
			host.Switch(s2)
		}
	}

	require.NoError(t, s.Run(s1, feed.SortHot, feed.SortModes).Wait())

	assert.Equal(t, []call{{"golang", feed.SortNew}}, f.Calls())
	for _, mode := range feed.SortModes {
		_, ok := items.Get(s1, mode)
		assert.False(t, ok, "no write for %s after the switch", mode)
	}
}

func TestWalkNotStartedForInactiveSource(t *testing.T) {
	f := &fakeFetcher{}
	s, _, items, _ := setup(t, f, feed.MustSource("rust"))

	require.NoError(t, s.Run(feed.MustSource("golang"), feed.SortHot, feed.SortModes).Wait())

	assert.Empty(t, f.Calls())
	assert.Zero(t, items.Len())
}

func TestWalksRunSequentially(t *testing.T) {
	src := feed.MustSource("golang")
	f := &fakeFetcher{}
	s, _, _, _ := setup(t, f, src)

	first := s.Run(src, feed.SortHot, []feed.SortMode{feed.SortHot, feed.SortNew})
	second := s.Run(src, feed.SortTop, []feed.SortMode{feed.SortTop, feed.SortRising})
	require.NoError(t, first.Wait())
	require.NoError(t, second.Wait())

	assert.Equal(t, []call{
		{"golang", feed.SortNew},
		{"golang", feed.SortRising},
	}, f.Calls())
}

func TestPacingDelaysSecondRequest(t *testing.T) {
	src := feed.MustSource("golang")
	f := &fakeFetcher{}
	clock := clockwork.NewFakeClock()
	items := cache.NewItemCache(clock)
	s := New(f, items, &fakeHost{active: src, cache: items}, Options{Delay: 50 * time.Millisecond, MaxAge: time.Minute})
	t.Cleanup(s.Close)

	startedAt := time.Now()
	require.NoError(t, s.Run(src, feed.SortHot, []feed.SortMode{feed.SortNew, feed.SortTop, feed.SortRising}).Wait())

	assert.Len(t, f.Calls(), 3)
	assert.GreaterOrEqual(t, time.Since(startedAt), 90*time.Millisecond)
}
