package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "pricepulse/internal/errors"
	"pricepulse/internal/middleware"
	"pricepulse/internal/services"
	"pricepulse/internal/storage"
	api "pricepulse/pkg/contracts/api/v1"
)

// MaxRunListLimit caps the limit query parameter of the run list
const MaxRunListLimit = 500

// RunHandler serves the integrator run history
type RunHandler struct {
	service      *services.RunService
	params       *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewRunHandler creates a run history handler
func NewRunHandler(service *services.RunService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RunHandler {
	return &RunHandler{
		service:      service,
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "runs")),
	}
}

// Routes returns the run routes, mounted under /api/runs
func (h *RunHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.ListRuns)
	r.Get("/{id}", h.GetRun)
	return r
}

// ListRuns handles GET /api/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.params.ValidateInt(w, r, "limit", 1, MaxRunListLimit, storage.DefaultListLimit)
	if !ok {
		return
	}

	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.RunList{Runs: runs, Count: len(runs)})
}

// GetRun handles GET /api/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, run)
}

func (h *RunHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrStorageDisabled) {
		h.errorHandler.HandleError(w, r, apierrors.ErrStorageUnavailable)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
