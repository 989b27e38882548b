package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"feedsync/features/engine"
	"feedsync/features/feed"
	"feedsync/features/gateway"
	"feedsync/features/web/stream"
	"feedsync/internal/config"
	"feedsync/internal/logger"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitializeTestLogger()
	m.Run()
}

type stubFetcher struct {
	mu        sync.Mutex
	responses map[feed.Key][]feed.Item
	failures  map[feed.Key]gateway.Kind
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		responses: make(map[feed.Key][]feed.Item),
		failures:  make(map[feed.Key]gateway.Kind),
	}
}

func (f *stubFetcher) set(path string, mode feed.SortMode, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	its := make([]feed.Item, 0, len(ids))
	for _, id := range ids {
		its = append(its, feed.Item{ID: id, Title: "title " + id, OriginDomain: id + ".example.com"})
	}
	f.responses[feed.KeyOf(feed.MustSource(path), mode)] = its
}

func (f *stubFetcher) fail(path string, mode feed.SortMode, kind gateway.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[feed.KeyOf(feed.MustSource(path), mode)] = kind
}

func (f *stubFetcher) Fetch(_ context.Context, src feed.Source, mode feed.SortMode) ([]feed.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := feed.KeyOf(src, mode)
	if kind, ok := f.failures[key]; ok {
		return nil, &gateway.Error{Kind: kind, URL: src.Path(), Err: errors.New("stub failure")}
	}
	if its, ok := f.responses[key]; ok && len(its) > 0 {
		return its, nil
	}
	return nil, &gateway.Error{Kind: gateway.KindEmptyResult, URL: src.Path(), Err: gateway.ErrEmptyResult}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func newTestApp(t *testing.T, fetcher *stubFetcher) *Application {
	t.Helper()

	hub := stream.NewHub()
	eng, err := engine.New(engine.Options{
		Fetcher:  fetcher,
		Clock:    clockwork.NewFakeClock(),
		Notifier: hub,
		Config: config.EngineConfig{
			RefreshInterval: time.Minute,
			TickInterval:    time.Second,
			SortModes:       []string{"hot", "new"},
		},
	})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	app, err := New(&config.ServerConfig{Port: 8082, HealthCheck: true}, "feedsync-test", eng, hub)
	require.NoError(t, err)
	return app
}

func do(t *testing.T, app *Application, method, target, body string) (int, envelope) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := New(&config.ServerConfig{}, "", nil, nil)
	assert.ErrorIs(t, err, ErrEngineRequired)
}

func TestSetSourceShowsItems(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set("golang", feed.SortHot, "a", "b")
	app := newTestApp(t, fetcher)

	code, env := do(t, app, http.MethodPut, "/api/source", `{"path":"golang"}`)
	require.Equal(t, http.StatusOK, code)
	state := decode[engine.State](t, env.Data)
	assert.Equal(t, "golang", state.ActiveSource)
	assert.Equal(t, 2, state.Visible)

	code, env = do(t, app, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, code)
	out := decode[struct {
		Source string      `json:"source"`
		Items  []feed.Item `json:"items"`
	}](t, env.Data)
	assert.Equal(t, "golang", out.Source)
	assert.Equal(t, []string{"a", "b"}, feed.IDs(out.Items))
}

func TestRequestValidation(t *testing.T) {
	app := newTestApp(t, newStubFetcher())

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"missing path", http.MethodPut, "/api/source", `{}`},
		{"blank path", http.MethodPut, "/api/source", `{"path":"  "}`},
		{"unknown sort", http.MethodPut, "/api/sort", `{"sort":"best"}`},
		{"missing domain", http.MethodPost, "/api/blocked", `{}`},
		{"public suffix", http.MethodPost, "/api/blocked", `{"domain":"co.uk"}`},
		{"malformed body", http.MethodPost, "/api/favorites", `{`},
		{"favorite without path", http.MethodDelete, "/api/favorites", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, app, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestFailedLoadReportsKind(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.fail("golang", feed.SortHot, gateway.KindNetworkBlocked)
	app := newTestApp(t, fetcher)

	code, env := do(t, app, http.MethodPut, "/api/source", `{"path":"golang"}`)
	require.Equal(t, http.StatusBadGateway, code)
	details := decode[struct {
		Kind  gateway.Kind `json:"kind"`
		State engine.State `json:"state"`
	}](t, env.Details)
	assert.Equal(t, gateway.KindNetworkBlocked, details.Kind)
	assert.True(t, details.State.InErrorState)

	fetcher.set("golang", feed.SortHot, "a")
	fetcher.mu.Lock()
	delete(fetcher.failures, feed.KeyOf(feed.MustSource("golang"), feed.SortHot))
	fetcher.mu.Unlock()

	code, env = do(t, app, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[engine.State](t, env.Data).InErrorState)
}

func TestOperationsWithoutSource(t *testing.T) {
	app := newTestApp(t, newStubFetcher())

	for _, target := range []string{"/api/items/a/hide", "/api/favorites/toggle", "/api/refresh"} {
		code, _ := do(t, app, http.MethodPost, target, "")
		assert.Equal(t, http.StatusConflict, code, target)
	}
}

func TestSortSwitch(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set("golang", feed.SortHot, "a", "b")
	fetcher.set("golang", feed.SortNew, "c")
	app := newTestApp(t, fetcher)

	code, _ := do(t, app, http.MethodPut, "/api/source", `{"path":"golang"}`)
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, app, http.MethodPut, "/api/sort", `{"sort":"new"}`)
	require.Equal(t, http.StatusOK, code)
	state := decode[engine.State](t, env.Data)
	assert.Equal(t, feed.SortNew, state.ActiveSortMode)
	assert.Equal(t, 1, state.Visible)
}

func TestHideUnhideAndPurge(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set("golang", feed.SortHot, "a", "b")
	app := newTestApp(t, fetcher)
	do(t, app, http.MethodPut, "/api/source", `{"path":"golang"}`)

	code, env := do(t, app, http.MethodPost, "/api/items/b/hide", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["changed"])

	_, env = do(t, app, http.MethodGet, "/api/hidden", "")
	hidden := decode[struct {
		IDs   []string `json:"ids"`
		Total int      `json:"total"`
	}](t, env.Data)
	assert.Equal(t, []string{"b"}, hidden.IDs)
	assert.Equal(t, 1, hidden.Total)

	code, _ = do(t, app, http.MethodDelete, "/api/items/b/hide", "")
	require.Equal(t, http.StatusOK, code)
	do(t, app, http.MethodPost, "/api/items/a/hide", "")

	code, env = do(t, app, http.MethodDelete, "/api/hidden", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]int{"purged": 1}, decode[map[string]int](t, env.Data))
}

func TestBlockedRoutes(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set("golang", feed.SortHot, "a", "b")
	app := newTestApp(t, fetcher)
	do(t, app, http.MethodPut, "/api/source", `{"path":"golang"}`)

	code, env := do(t, app, http.MethodPost, "/api/blocked", `{"domain":"https://A.example.com/path"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, map[string]string{"domain": "a.example.com"}, decode[map[string]string](t, env.Data))

	_, env = do(t, app, http.MethodGet, "/api/items", "")
	out := decode[struct {
		Items []feed.Item `json:"items"`
	}](t, env.Data)
	assert.Equal(t, []string{"b"}, feed.IDs(out.Items))

	_, env = do(t, app, http.MethodGet, "/api/blocked", "")
	assert.Equal(t, []string{"a.example.com"}, decode[[]string](t, env.Data))

	code, _ = do(t, app, http.MethodDelete, "/api/blocked/a.example.com", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, app, http.MethodDelete, "/api/blocked/a.example.com", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFavoriteRoutes(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set("golang", feed.SortHot, "a")
	app := newTestApp(t, fetcher)
	do(t, app, http.MethodPut, "/api/source", `{"path":"golang"}`)

	code, env := do(t, app, http.MethodPost, "/api/favorites/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]bool{"favorite": true}, decode[map[string]bool](t, env.Data))

	code, _ = do(t, app, http.MethodPost, "/api/favorites", `{"path":"user/alice/m/reading"}`)
	assert.Equal(t, http.StatusCreated, code)
	code, _ = do(t, app, http.MethodPost, "/api/favorites", `{"path":"golang"}`)
	assert.Equal(t, http.StatusOK, code)

	_, env = do(t, app, http.MethodGet, "/api/favorites", "")
	paths := []string{}
	for _, f := range decode[[]map[string]any](t, env.Data) {
		paths = append(paths, f["path"].(string))
	}
	assert.ElementsMatch(t, []string{"golang", "/user/alice/m/reading"}, paths)

	code, _ = do(t, app, http.MethodDelete, "/api/favorites?path=/user/alice/m/reading", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, app, http.MethodDelete, "/api/favorites?path=/user/alice/m/reading", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthAndProblemRoutes(t *testing.T) {
	app := newTestApp(t, newStubFetcher())

	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	code, env := do(t, app, http.MethodGet, "/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", env.Error)

	rec = httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventStream(t *testing.T) {
	app := newTestApp(t, newStubFetcher())
	srv := httptest.NewServer(app.Echo)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				events <- name
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case name := <-events:
			return name
		case <-time.After(2 * time.Second):
			return "timeout"
		}
	}

	require.Equal(t, stream.EventState, next())
	app.Hub().OnTimerTick(1, 60, false)
	assert.Equal(t, stream.EventTick, next())
}
