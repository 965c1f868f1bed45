package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/dataprocessing"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/services"
	sharedtest "pricepulse/internal/shared/testutil"
	"pricepulse/internal/storage"
	api "pricepulse/pkg/contracts/api/v1"
	"pricepulse/pkg/contracts/domain"
)

type testServer struct {
	router chi.Router
	repo   *storage.SQLiteRepository
	dir    string
}

func newTestServer(t *testing.T, withStorage bool) *testServer {
	t.Helper()
	logger, _ := sharedtest.NewTestLogger(t)
	errorHandler := apperrors.NewErrorHandler(logger, false)
	dir := t.TempDir()

	var (
		repo     *storage.SQLiteRepository
		runStore services.RunStore
	)
	if withStorage {
		var err error
		repo, err = storage.NewSQLiteRepository(filepath.Join(dir, "data", "pulse.db"))
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		runStore = repo
	}

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.Get("/healthz", NewHealthHandler(services.NewHealthService(nil, logger), logger).HealthCheck)
	r.Mount("/dashboards", NewDashboardHandler(services.NewDashboardService(dir, logger), logger, errorHandler).Routes())
	r.Route("/api", func(r chi.Router) {
		r.Mount("/runs", NewRunHandler(services.NewRunService(runStore, logger), logger, errorHandler).Routes())
		r.Get("/summary", NewSummaryHandler(services.NewSummaryService(dir, 2015, logger), dataprocessing.PriorRecord, logger, errorHandler).GetSummary)
	})
	r.Handle("/metrics", NewMetricsHandler(nil))

	return &testServer{router: r, repo: repo, dir: dir}
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, false)
	rec := srv.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, api.StorageDisabled, resp.Storage)
}

func TestRunsEndpoints(t *testing.T) {
	srv := newTestServer(t, true)
	ctx := context.Background()
	started := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b"} {
		require.NoError(t, srv.repo.SaveRun(ctx, domain.RunRecord{
			ID:         id,
			StartedAt:  started.Add(time.Duration(i) * time.Hour),
			FinishedAt: started.Add(time.Duration(i)*time.Hour + time.Minute),
			Succeeded:  1,
			Total:      2,
			OutputFile: "integrated_data.xlsx",
			Steps: []domain.StepOutcome{
				{StepID: "fx", Name: "Exchange Rate Scraper", Status: "completed", Records: 24},
				{StepID: "bls", Name: "BLS Data Scraper", Status: "failed", Error: "exit status 1"},
			},
		}))
	}

	t.Run("list", func(t *testing.T) {
		rec := srv.get(t, "/api/runs")
		require.Equal(t, http.StatusOK, rec.Code)
		var list api.RunList
		decode(t, rec, &list)
		require.Equal(t, 2, list.Count)
		assert.Equal(t, "run-b", list.Runs[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		rec := srv.get(t, "/api/runs?limit=1")
		require.Equal(t, http.StatusOK, rec.Code)
		var list api.RunList
		decode(t, rec, &list)
		assert.Equal(t, 1, list.Count)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := srv.get(t, "/api/runs?limit=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("one run", func(t *testing.T) {
		rec := srv.get(t, "/api/runs/run-a")
		require.Equal(t, http.StatusOK, rec.Code)
		var run domain.RunRecord
		decode(t, rec, &run)
		assert.Equal(t, "run-a", run.ID)
		require.Len(t, run.Steps, 2)
		assert.Equal(t, "bls", run.Steps[1].StepID)
	})

	t.Run("unknown run is a problem", func(t *testing.T) {
		rec := srv.get(t, "/api/runs/nope")
		require.Equal(t, http.StatusNotFound, rec.Code)
		var problem map[string]any
		decode(t, rec, &problem)
		assert.Equal(t, apperrors.TypeNotFound, problem["type"])
		assert.EqualValues(t, http.StatusNotFound, problem["status"])
	})
}

func TestRunsWithoutStorage(t *testing.T) {
	srv := newTestServer(t, false)
	rec := srv.get(t, "/api/runs")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDashboardEndpoints(t *testing.T) {
	srv := newTestServer(t, false)
	page := "<!DOCTYPE html><html><body>rubber</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(srv.dir, "rubber_price_visualization.html"), []byte(page), 0644))

	rec := srv.get(t, "/dashboards")
	require.Equal(t, http.StatusOK, rec.Code)
	var list api.DashboardList
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "/dashboards/rubber_price_visualization.html", list.Dashboards[0].URL)

	rec = srv.get(t, "/dashboards/rubber_price_visualization.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, page, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = srv.get(t, "/dashboards/exchange_rate_visualization.html")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.get(t, "/dashboards/..%5Csecret.html")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	csvDir := filepath.Join(srv.dir, "csv_output")
	require.NoError(t, os.MkdirAll(csvDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(csvDir, "Exchange_Rates.csv"),
		[]byte("Year,Month,Exchange_Rate\n2020,3,0.90\n2020,5,0.99\n"), 0644))

	tests := []struct {
		query      string
		wantStatus int
		wantPct    bool
	}{
		{query: "", wantStatus: http.StatusOK, wantPct: true},
		{query: "?prior=calendar", wantStatus: http.StatusOK, wantPct: false},
		{query: "?prior=weekly", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run("prior"+tt.query, func(t *testing.T) {
			rec := srv.get(t, "/api/summary"+tt.query)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp api.SummaryResponse
			decode(t, rec, &resp)
			for _, fam := range resp.Families {
				if fam.Family != "exchange" {
					assert.NotEmpty(t, fam.Error)
					continue
				}
				require.Len(t, fam.Comparisons, 1)
				assert.Equal(t, tt.wantPct, fam.Comparisons[0].PriorMonth.PctChange != nil)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	rec := srv.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
