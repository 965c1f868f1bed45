package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
	customMiddleware "pricepulse/internal/middleware"
	sharedtest "pricepulse/internal/shared/testutil"
	"pricepulse/internal/storage"
	api "pricepulse/pkg/contracts/api/v1"
	"pricepulse/pkg/contracts/domain"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	logger, _ := sharedtest.NewTestLogger(t)

	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Server.RateLimit.Enabled = false
	paths, err := cfg.NewPaths()
	require.NoError(t, err)

	return &Runtime{Config: cfg, Paths: paths, Logger: logger}
}

func TestRouterEndpoints(t *testing.T) {
	rt := newTestRuntime(t)
	repo, err := storage.NewSQLiteRepository(rt.Paths.DatabaseFile)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	started := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveRun(context.Background(), domain.RunRecord{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Succeeded:  4,
		Total:      4,
		OutputFile: "integrated_data.xlsx",
	}))

	require.NoError(t, os.WriteFile(filepath.Join(rt.Paths.DashboardDir, config.ExchangeDashboardFile), []byte("<html></html>"), 0644))

	srv := httptest.NewServer(NewApplication(rt, repo).Router)
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	tests := []struct {
		name       string
		path       string
		wantStatus int
		check      func(t *testing.T, resp *http.Response)
	}{
		{
			name:       "healthz reports storage",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp *http.Response) {
				var body api.HealthResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, api.StorageOK, body.Storage)
			},
		},
		{
			name:       "root redirects to dashboards",
			path:       "/",
			wantStatus: http.StatusTemporaryRedirect,
			check: func(t *testing.T, resp *http.Response) {
				assert.Equal(t, "/dashboards", resp.Header.Get("Location"))
			},
		},
		{
			name:       "dashboard list",
			path:       "/dashboards",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp *http.Response) {
				var body api.DashboardList
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, 1, body.Count)
			},
		},
		{
			name:       "run history",
			path:       "/api/runs",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp *http.Response) {
				var body api.RunList
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				require.Len(t, body.Runs, 1)
				assert.Equal(t, "run-1", body.Runs[0].ID)
			},
		},
		{
			name:       "unknown route is a problem",
			path:       "/nope",
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, resp *http.Response) {
				assert.Contains(t, resp.Header.Get("Content-Type"), "json")
			},
		},
		{
			name:       "metrics",
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get(customMiddleware.RequestIDHeader))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			if tt.check != nil {
				tt.check(t, resp)
			}
		})
	}
}

func TestRateLimitSparesProbes(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Config.Server.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}

	router := NewApplication(rt, nil).Router
	get := func(path string) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/dashboards"))
	assert.Equal(t, http.StatusTooManyRequests, get("/dashboards"))
	assert.Equal(t, http.StatusOK, get("/healthz"))
}

func TestRunsWithoutRepository(t *testing.T) {
	rt := newTestRuntime(t)
	rec := httptest.NewRecorder()
	NewApplication(rt, nil).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	rt := newTestRuntime(t)
	a := NewApplication(rt, nil)
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewRuntime(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	yaml := "paths:\n  work_dir: " + dir + "\nlogging:\n  output: console\ntelemetry:\n  metrics: false\nstorage:\n  enabled: true\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(yaml), 0644))

	rt, err := NewRuntime(Options{ConfigFile: cfgFile})
	require.NoError(t, err)
	defer rt.Shutdown(context.Background())

	assert.Equal(t, dir, rt.Paths.WorkDir)
	assert.Nil(t, rt.Metrics)
	assert.NotNil(t, rt.Logger)

	repo, err := rt.OpenRepository()
	require.NoError(t, err)
	require.NotNil(t, repo)
	defer repo.Close()
	assert.FileExists(t, filepath.Join(dir, config.DefaultDatabaseFile))

	rt.Config.Storage.Enabled = false
	none, err := rt.OpenRepository()
	require.NoError(t, err)
	assert.Nil(t, none)
}
