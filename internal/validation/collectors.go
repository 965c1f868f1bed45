package validation

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
)

// maxSheetNameLength is the worksheet name limit of the xlsx format
const maxSheetNameLength = 31

// FieldError describes one invalid field of one collector
type FieldError struct {
	Collector string `json:"collector"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

// FieldErrors collects every problem found in a collector list
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s.%s: %s", fe.Collector, fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

// CollectorValidator validates collector definitions using struct tags
type CollectorValidator struct {
	validate *validator.Validate
}

// NewCollectorValidator creates a validator with the collector rules registered
func NewCollectorValidator() *CollectorValidator {
	v := validator.New()

	v.RegisterValidation("relpath", isRelativePath)
	v.RegisterValidation("sheetname", isSheetName)

	// Use YAML tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &CollectorValidator{validate: v}
}

// ValidateCollectors checks every collector and that IDs are unique.
// All problems are reported together.
func (v *CollectorValidator) ValidateCollectors(specs []config.CollectorSpec) error {
	if len(specs) == 0 {
		return apperrors.NewAppValidationError("no collectors defined", nil)
	}

	var problems FieldErrors
	seen := make(map[string]bool, len(specs))

	for i, spec := range specs {
		name := spec.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		if spec.ID != "" {
			if seen[spec.ID] {
				problems = append(problems, FieldError{Collector: name, Field: "id", Message: "id is duplicated"})
			}
			seen[spec.ID] = true
		}

		if err := v.validate.Struct(spec); err != nil {
			fieldErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return apperrors.NewAppValidationError("collector validation failed", err)
			}
			for _, fe := range fieldErrs {
				problems = append(problems, FieldError{
					Collector: name,
					Field:     fe.Field(),
					Message:   formatValidationError(fe),
				})
			}
		}
	}

	if len(problems) > 0 {
		return apperrors.NewAppValidationError("invalid collector definitions", problems).
			WithContext("problems", len(problems))
	}
	return nil
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", field)
	case "relpath":
		return fmt.Sprintf("%s must be a path inside the working directory", field)
	case "sheetname":
		return fmt.Sprintf("%s must be a valid worksheet name", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isRelativePath rejects absolute paths and paths escaping the working directory
func isRelativePath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// isSheetName applies the xlsx worksheet naming rules
func isSheetName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len([]rune(name)) > maxSheetNameLength {
		return false
	}
	if strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return false
	}
	if strings.EqualFold(name, config.SummarySheetName) {
		return false
	}
	return !strings.ContainsAny(name, `[]:*?/\`)
}
