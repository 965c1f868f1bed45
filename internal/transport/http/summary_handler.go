package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "pricepulse/internal/errors"
	"pricepulse/internal/dataprocessing"
	"pricepulse/internal/middleware"
	"pricepulse/internal/services"
)

// SummaryHandler serves live comparisons for every dashboard family
type SummaryHandler struct {
	service      *services.SummaryService
	defaultPrior dataprocessing.PriorMode
	params       *middleware.QueryParamValidator
	logger       *slog.Logger
}

// NewSummaryHandler creates a summary handler. defaultPrior applies when
// the request has no prior parameter.
func NewSummaryHandler(service *services.SummaryService, defaultPrior dataprocessing.PriorMode, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SummaryHandler {
	if defaultPrior == "" {
		defaultPrior = dataprocessing.PriorRecord
	}
	return &SummaryHandler{
		service:      service,
		defaultPrior: defaultPrior,
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("handler", "summary")),
	}
}

// GetSummary handles GET /api/summary
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	allowed := []string{string(dataprocessing.PriorRecord), string(dataprocessing.PriorCalendar)}
	prior, ok := h.params.ValidateEnum(w, r, "prior", allowed, string(h.defaultPrior))
	if !ok {
		return
	}

	resp := h.service.Summary(r.Context(), dataprocessing.PriorMode(prior))
	render.JSON(w, r, resp)
}
