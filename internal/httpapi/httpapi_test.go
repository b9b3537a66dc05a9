package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"joetracker-engine/internal/cache"
	"joetracker-engine/internal/config"
	"joetracker-engine/internal/domain"
	"joetracker-engine/internal/events"
	"joetracker-engine/internal/refresh"
	"joetracker-engine/internal/report"
	"joetracker-engine/internal/store"
)

var testNow = time.Date(2025, time.October, 1, 12, 0, 0, 0, time.UTC) // ISO week 40

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

type testEnv struct {
	deps    Deps
	handler http.Handler
	cfgPath string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := store.OpenMigrated(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = store.SavePostings(context.Background(), db.Pool, []domain.Posting{
		{SourceID: "joe:1", Title: "Assistant Professors", Section: "US: Full-Time Academic", DateActive: day(2024, time.September, 15), OpeningCount: 2},
		{SourceID: "joe:2", Title: "Economist", Section: "Nonacademic", DateActive: day(2024, time.October, 20), OpeningCount: 1},
		{SourceID: "joe:3", Title: "Three Lecturers", Section: "US: Full-Time Academic", DateActive: day(2023, time.September, 20), OpeningCount: 3},
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.App.DataDir = dir
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, config.SaveAtomic(cfgPath, cfg))

	var cv atomic.Value
	cv.Store(cfg)

	hub := events.NewHub()
	datasets := cache.NewDatasets(time.Minute)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scraped"), 0o755))

	d := Deps{
		DB:          db.Pool,
		Hub:         hub,
		CfgVal:      &cv,
		UserCfgPath: cfgPath,
		LoadCfg:     func() (config.Config, error) { return config.Load(cfgPath) },
		Datasets:    datasets,
		Refresher: &refresh.Service{
			DB:      db.Pool,
			DataDir: dir,
			Cache:   datasets,
			Events:  hub,
		},
		Now: func() time.Time { return testNow },
	}
	return testEnv{deps: d, handler: NewHandler(NewMux(d)), cfgPath: cfgPath}
}

func (e testEnv) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestData(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/data", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ds := decode[domain.Dataset](t, rec)
	assert.Equal(t, 3, ds.Metadata.TotalPostings)
	require.Contains(t, ds.Sections, "all_sections")

	all := ds.Sections["all_sections"]
	assert.Equal(t, 3, all["2024"].Total)
	assert.Equal(t, 3, all["2023"].Total)
	assert.Equal(t, 1, env.deps.Datasets.Len())
}

func TestSeries(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/series?section=us_academic&years=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[seriesResponse](t, rec)
	assert.Equal(t, "us_academic", got.Section)
	require.Len(t, got.Series, 1)
	assert.Equal(t, 2, got.Series["2024"].Total)

	rec = env.do(t, http.MethodGet, "/api/series?section=bogus", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "unknown_section", apiErr.Error.Code)
	assert.NotEmpty(t, apiErr.Error.RequestID)

	rec = env.do(t, http.MethodGet, "/api/series?years=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComparison(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/comparison", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[comparisonResponse](t, rec)
	assert.Equal(t, "all_sections", got.Section)
	assert.Equal(t, 40, got.Week)
	assert.Equal(t, []report.YearTotal{
		{Year: 2023, Openings: 3, Total: 3},
		{Year: 2024, Openings: 2, Total: 3},
	}, got.Years)

	rec = env.do(t, http.MethodGet, "/api/comparison?week=45", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[comparisonResponse](t, rec)
	assert.Equal(t, 3, got.Years[1].Openings)

	for _, w := range []string{"0", "58", "x"} {
		rec = env.do(t, http.MethodGet, "/api/comparison?week="+w, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "week=%s", w)
	}
}

func TestSections(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/sections", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]sectionInfo](t, rec)
	require.Len(t, got, len(config.Default().Sections))
	assert.Equal(t, "all_sections", got[0].Key)
	assert.Equal(t, []int{2023, 2024}, got[0].Years)
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>JOE Market Tracker</title>")

	rec = env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/data", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[map[string]any](t, rec)
	assert.Equal(t, true, got["ok"])
	assert.EqualValues(t, 3, got["postings"])
	assert.NotContains(t, got, "last_run")
}

func TestConfig(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[config.Config](t, rec)
	assert.Equal(t, 38471, cfg.App.Port)

	rec = env.do(t, http.MethodGet, "/config/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[config.Validation](t, rec).Errors)

	bad := cfg
	bad.App.Port = 0
	body, _ := json.Marshal(bad)
	rec = env.do(t, http.MethodPut, "/config", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[config.Validation](t, rec).Errors)

	rec = env.do(t, http.MethodPut, "/config", []byte(`{"nope":1}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Prime the cache, then change the title.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/data", nil).Code)
	require.Equal(t, 1, env.deps.Datasets.Len())

	sub := env.deps.Hub.Subscribe()
	defer env.deps.Hub.Unsubscribe(sub)

	cfg.Site.Title = "  Market Watch "
	body, _ = json.Marshal(cfg)
	rec = env.do(t, http.MethodPut, "/config", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Market Watch", decode[config.Config](t, rec).Site.Title)
	assert.Equal(t, "Market Watch", currentConfig(env.deps.CfgVal).Site.Title)
	assert.Equal(t, 0, env.deps.Datasets.Len())

	select {
	case msg := <-sub:
		assert.Contains(t, msg, events.TypeConfigUpdated)
	case <-time.After(time.Second):
		t.Fatal("no config event")
	}

	onDisk, err := config.Load(env.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "Market Watch", onDisk.Site.Title)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/refresh", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return env.deps.Refresher.Status().LastOkAt != ""
	}, 5*time.Second, 20*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/refresh/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[refresh.Status](t, rec)
	assert.False(t, st.Running)
	assert.Empty(t, st.LastError)

	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.Contains(t, decode[map[string]any](t, rec), "last_run")
}

func TestCheckpoint_LocalOnly(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/db/checkpoint", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/db/checkpoint", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestShutdownHandler(t *testing.T) {
	srv := &http.Server{}
	h := ShutdownHandler("secret", srv)

	cases := []struct {
		name   string
		method string
		remote string
		token  string
		want   int
	}{
		{"wrong method", http.MethodGet, "127.0.0.1:1", "secret", http.StatusMethodNotAllowed},
		{"remote", http.MethodPost, "10.0.0.2:1", "secret", http.StatusForbidden},
		{"no token", http.MethodPost, "127.0.0.1:1", "", http.StatusUnauthorized},
		{"bad token", http.MethodPost, "[::1]:1", "nope", http.StatusUnauthorized},
		{"ok", http.MethodPost, "127.0.0.1:1", "secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/shutdown", nil)
			req.RemoteAddr = tc.remote
			if tc.token != "" {
				req.Header.Set("X-Shutdown-Token", tc.token)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := NewHandler(panicky)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-42", decode[APIError](t, rec).Error.RequestID)

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "null")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	ok := NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, RequestIDFrom(r.Context()))
	}))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id")
	rec = httptest.NewRecorder()
	ok.ServeHTTP(rec, req)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 32)
}

func TestLocalOrigin(t *testing.T) {
	for origin, want := range map[string]bool{
		"http://localhost:8000":  true,
		"http://127.0.0.1:38471": true,
		"http://[::1]:3000":      true,
		"null":                   true,
		"https://aeaweb.org":     false,
		"file:///tmp/index.html": false,
		"garbage":                false,
	} {
		assert.Equal(t, want, localOrigin(origin), origin)
	}
}

func TestEvents(t *testing.T) {
	hub := events.NewHub()
	// Through the full chain so flushes must pass the access-log writer.
	srv := httptest.NewServer(NewHandler(http.HandlerFunc(EventsHandler{Hub: hub}.ServeSSE)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	nextData := func() string {
		for {
			line, err := br.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}

	assert.Contains(t, nextData(), `"type":"ping"`)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(events.MakeEvent("", events.TypeDataRefreshed, map[string]int{"added": 2}))
	assert.Contains(t, nextData(), events.TypeDataRefreshed)

	// Closing the hub ends the stream.
	hub.Close()
	_, err = io.ReadAll(br)
	assert.NoError(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, ln) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
