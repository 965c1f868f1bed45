package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "pricepulse/internal/errors"
	"pricepulse/internal/middleware"
	"pricepulse/internal/services"
	api "pricepulse/pkg/contracts/api/v1"
)

// DashboardHandler serves rendered dashboard pages
type DashboardHandler struct {
	service      *services.DashboardService
	params       *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(service *services.DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "dashboards")),
	}
}

// Routes returns the dashboard routes, mounted under /dashboards
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDashboards)
	r.Get("/{name}", h.ServeDashboard)
	return r
}

// ListDashboards handles GET /dashboards
func (h *DashboardHandler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.DashboardList{Dashboards: pages, Count: len(pages)})
}

// ServeDashboard handles GET /dashboards/{name}
func (h *DashboardHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.params.ValidateFilename(w, r, "name", name) {
		return
	}

	path, err := h.service.Path(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "serving dashboard", slog.String("file", path))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}
