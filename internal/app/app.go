package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"pricepulse/internal/config"
	"pricepulse/internal/dataprocessing"
	apperrors "pricepulse/internal/errors"
	"pricepulse/internal/infrastructure"
	customMiddleware "pricepulse/internal/middleware"
	"pricepulse/internal/services"
	"pricepulse/internal/storage"
	handlers "pricepulse/internal/transport/http"
)

// Application is the preview server
type Application struct {
	Config     *config.Config
	Paths      *config.Paths
	Logger     *slog.Logger
	Router     *chi.Mux
	Server     *http.Server
	Repository *storage.SQLiteRepository
	Metrics    *infrastructure.PipelineMetrics

	prometheus http.Handler
}

// NewApplication builds the router and server. repo may be nil, in which
// case the run history endpoints answer 503.
func NewApplication(rt *Runtime, repo *storage.SQLiteRepository) *Application {
	a := &Application{
		Config:     rt.Config,
		Paths:      rt.Paths,
		Logger:     rt.Logger,
		Repository: repo,
		Metrics:    rt.Metrics,
	}
	if rt.OTel != nil {
		a.prometheus = rt.OTel.PrometheusHTTP
	}

	a.setupRouter()
	a.createServer()
	return a
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	errorHandler := apperrors.NewErrorHandler(a.Logger, false)

	// Typed nil pointers must not reach the service interfaces
	var (
		runStore services.RunStore
		pinger   services.Pinger
	)
	if a.Repository != nil {
		runStore = a.Repository
		pinger = a.Repository
	}

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Telemetry(a.Metrics, a.Logger))
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Probes and scraping stay outside the rate limit
	healthHandler := handlers.NewHealthHandler(services.NewHealthService(pinger, a.Logger), a.Logger)
	r.Get("/healthz", healthHandler.HealthCheck)
	r.Handle("/metrics", handlers.NewMetricsHandler(a.prometheus))

	r.Group(func(r chi.Router) {
		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboards", http.StatusTemporaryRedirect)
		})

		dashboardHandler := handlers.NewDashboardHandler(
			services.NewDashboardService(a.Paths.DashboardDir, a.Logger), a.Logger, errorHandler)
		r.Mount("/dashboards", dashboardHandler.Routes())

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))

			runHandler := handlers.NewRunHandler(services.NewRunService(runStore, a.Logger), a.Logger, errorHandler)
			r.Mount("/runs", runHandler.Routes())

			summaryService := services.NewSummaryService(a.Paths.WorkDir, a.Config.Dashboards.MinYear, a.Logger)
			summaryHandler := handlers.NewSummaryHandler(summaryService,
				dataprocessing.PriorMode(a.Config.Dashboards.PriorMode), a.Logger, errorHandler)
			r.Get("/summary", summaryHandler.GetSummary)
		})
	})

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts the server down within the
// configured shutdown timeout
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Preview server listening",
			slog.String("address", a.Server.Addr),
			slog.String("dashboards", a.Paths.DashboardDir))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(ctx, "Shutting down preview server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if a.Repository != nil {
		if cerr := a.Repository.Close(); cerr != nil {
			a.Logger.ErrorContext(ctx, "Failed to close run history", slog.String("error", cerr.Error()))
		}
	}
	if err == nil {
		a.Logger.InfoContext(ctx, "Preview server stopped")
	}
	return err
}
