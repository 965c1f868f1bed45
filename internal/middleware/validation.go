package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "pricepulse/internal/errors"
)

// QueryParamValidator validates query and path parameters, answering bad
// values with a problem response
type QueryParamValidator struct {
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	v := validator.New()
	v.RegisterValidation("filename", isValidFilename)

	return &QueryParamValidator{
		validate:     v,
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateInt reads an integer query parameter within [min, max]. The
// boolean is false when a response has already been written.
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int, defaultValue int) (int, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		v.reject(w, r, param, fmt.Sprintf("%s must be a valid integer", param))
		return 0, false
	}

	rule := fmt.Sprintf("gte=%d,lte=%d", min, max)
	if err := v.validate.Var(intValue, rule); err != nil {
		v.reject(w, r, param, fmt.Sprintf("%s must be between %d and %d", param, min, max))
		return 0, false
	}
	return intValue, true
}

// ValidateEnum reads a query parameter restricted to allowed values
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	if err := v.validate.Var(value, "oneof="+strings.Join(allowed, " ")); err != nil {
		v.reject(w, r, param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", ")))
		return "", false
	}
	return value, true
}

// ValidateFilename checks a single path segment naming a file
func (v *QueryParamValidator) ValidateFilename(w http.ResponseWriter, r *http.Request, param, value string) bool {
	if err := v.validate.Var(value, "required,max=255,filename"); err != nil {
		v.reject(w, r, param, fmt.Sprintf("%s must be a plain file name", param))
		return false
	}
	return true
}

func (v *QueryParamValidator) reject(w http.ResponseWriter, r *http.Request, param, reason string) {
	v.logger.WarnContext(r.Context(), "invalid request parameter",
		slog.String("param", param),
		slog.String("reason", reason),
		slog.String("path", r.URL.Path))
	v.errorHandler.HandleError(w, r, apierrors.InvalidParameter(param, reason))
}

// isValidFilename rejects directory traversal and separators
func isValidFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
