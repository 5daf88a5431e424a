package metrics_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yallapost/internal/app"
	"yallapost/internal/config"
	"yallapost/internal/metrics"
	"yallapost/internal/storage"
)

func newApp(t *testing.T) *app.App {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"message": "success",
			"user":    map[string]string{"_id": "u1", "name": "Mona"},
		})
	}))
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		BaseURL:        backend.URL,
		RequestTimeout: time.Second,
		PageSize:       40,
		TokenStore:     config.TokenStoreMemory,
	}

	a, err := app.New(t.Context(), cfg, slog.New(slog.DiscardHandler), app.Options{Store: storage.NewMemory("tok")})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) }) //nolint:errcheck

	_, err = a.Session.AwaitProfile(t.Context())
	require.NoError(t, err)
	return a
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()

	resp, err := http.Get(srv.URL + path) //nolint:noctx
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	logger := slog.New(slog.DiscardHandler)

	collector := &metrics.Collector{Logger: logger, App: a}
	require.NoError(t, collector.Init(t.Context()))
	collector.Collect()

	s := &metrics.Server{Logger: logger, Config: a.Config, App: a}
	require.NoError(t, s.Init(t.Context()))

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	status, _ := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, status)

	status, body := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "yalla_api_request_latency")
	require.Contains(t, body, `path="/users/profile-data"`)
	require.Contains(t, body, "yalla_session_authenticated 1")
	require.Contains(t, body, "yalla_query_cache_entries")
}

func TestCollector_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	collector := &metrics.Collector{Logger: slog.New(slog.DiscardHandler), App: a, Interval: time.Millisecond}
	require.NoError(t, collector.Init(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, collector.Run(ctx))
}
