package operations

import (
	"time"

	"pricepulse/internal/config"
)

// Step kinds
const (
	StepKindScript = config.CollectorKindScript
	StepKindFetch  = config.CollectorKindFetch
)

// Context keys for operation state
const (
	ContextKeyCollectors = "collectors"
	ContextKeyTrigger    = "trigger"
)

// DefaultStepTimeout bounds every step without its own timeout
const DefaultStepTimeout = config.DefaultStepTimeout

// maxCapturedOutput caps the combined stdout and stderr kept per step
const maxCapturedOutput = 64 * 1024

// OperationRequest represents a request to execute the registered steps
type OperationRequest struct {
	ID string `json:"id"`

	// WorkDir is the root every step resolves its paths against
	WorkDir string `json:"work_dir"`

	// Steps limits the run to these step IDs, in registry order. Empty runs all.
	Steps []string `json:"steps,omitempty"`
}

// OperationResponse represents the outcome of an operation
type OperationResponse struct {
	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	Duration  time.Duration        `json:"duration"`
	Steps     []*StepState         `json:"steps"`
	Succeeded int                  `json:"succeeded"`
	Total     int                  `json:"total"`
	Error     string               `json:"error,omitempty"`
}
