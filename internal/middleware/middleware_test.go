package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "pricepulse/internal/errors"
	"pricepulse/internal/infrastructure"
	sharedtest "pricepulse/internal/shared/testutil"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen, traceID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = chimw.GetReqID(r.Context())
				traceID = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, traceID)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	logger, handler := sharedtest.NewTestLogger(t)
	h := RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, http.StatusInternalServerError, p.Status)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), p.Trace)
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestRateLimiter(t *testing.T) {
	logger, _ := sharedtest.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 2, logger)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestTimeout(t *testing.T) {
	logger, _ := sharedtest.NewTestLogger(t)

	t.Run("handler gives up", func(t *testing.T) {
		h := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("fast handler", func(t *testing.T) {
		h := Timeout(time.Second, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasDeadline := r.Context().Deadline()
			assert.True(t, hasDeadline)
			w.WriteHeader(http.StatusAccepted)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://cdn.jsdelivr.net")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestTelemetryUsesRoutePattern(t *testing.T) {
	logger, _ := sharedtest.NewTestLogger(t)
	r := chi.NewRouter()
	r.Use(Telemetry(nil, logger))

	r.Get("/api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/runs/abc", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{"/api/runs/{id}"}
	routed := req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	assert.Equal(t, "/api/runs/{id}", getRoutePattern(routed))
	assert.Equal(t, "unmatched", getRoutePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestProblemFromStatus(t *testing.T) {
	tests := []struct {
		status int
		typ    string
	}{
		{http.StatusNotFound, apierrors.TypeNotFound},
		{http.StatusTooManyRequests, apierrors.TypeRateLimit},
		{http.StatusGatewayTimeout, apierrors.TypeTimeout},
		{http.StatusTeapot, "/errors/unknown"},
	}
	for _, tt := range tests {
		p := ProblemFromStatus(tt.status, "detail", "trace")
		assert.Equal(t, tt.typ, p.Type)
		assert.Equal(t, tt.status, p.Status)
		assert.Equal(t, "trace", p.Trace)
	}
}

func TestQueryParamValidator(t *testing.T) {
	logger, _ := sharedtest.NewTestLogger(t)
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	t.Run("int", func(t *testing.T) {
		tests := []struct {
			query string
			want  int
			ok    bool
		}{
			{"", 50, true},
			{"limit=10", 10, true},
			{"limit=0", 0, false},
			{"limit=1000", 0, false},
			{"limit=ten", 0, false},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			got, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), "limit", 1, 500, 50)
			assert.Equal(t, tt.ok, ok, tt.query)
			assert.Equal(t, tt.want, got, tt.query)
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code, tt.query)
			}
		}
	})

	t.Run("enum", func(t *testing.T) {
		allowed := []string{"record", "calendar"}
		rec := httptest.NewRecorder()
		got, ok := v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?prior=calendar", nil), "prior", allowed, "record")
		assert.True(t, ok)
		assert.Equal(t, "calendar", got)

		rec = httptest.NewRecorder()
		_, ok = v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?prior=weekly", nil), "prior", allowed, "record")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("filename", func(t *testing.T) {
		tests := []struct {
			name string
			ok   bool
		}{
			{"commodity_visualization.html", true},
			{"", false},
			{"..", false},
			{"../secret.html", false},
			{`a\b.html`, false},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			ok := v.ValidateFilename(rec, httptest.NewRequest(http.MethodGet, "/", nil), "name", tt.name)
			assert.Equal(t, tt.ok, ok, tt.name)
		}
	})
}
