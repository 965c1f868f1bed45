package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/carlmjohnson/requests"

	"pricepulse/internal/config"
)

// waitDelay bounds how long a killed collector may hold its output pipes open
const waitDelay = 5 * time.Second

// CommandStage runs a collector script with an interpreter. The process
// starts in the script's own directory so relative paths inside the script
// resolve the way its author expects.
type CommandStage struct {
	BaseStage
	interpreter string
	script      string
	logger      *slog.Logger
}

// NewCommandStage creates a step running script (relative to the operation
// working directory) with interpreter
func NewCommandStage(id, name, interpreter, script string, outputs []string, logger *slog.Logger) *CommandStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandStage{
		BaseStage:   NewBaseStage(id, name, outputs),
		interpreter: interpreter,
		script:      script,
		logger:      logger.With(slog.String("step", id)),
	}
}

// Validate checks that the script exists
func (s *CommandStage) Validate(state *OperationState) error {
	path := filepath.Join(state.WorkDir, s.script)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("script not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("script is a directory: %s", path)
	}
	return nil
}

// Execute runs the script and records its combined output on the step state
func (s *CommandStage) Execute(ctx context.Context, state *OperationState) error {
	scriptPath := filepath.Join(state.WorkDir, s.script)
	cmd := exec.CommandContext(ctx, s.interpreter, filepath.Base(scriptPath))
	cmd.Dir = filepath.Dir(scriptPath)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	cmd.WaitDelay = waitDelay

	s.logger.InfoContext(ctx, "Running collector",
		slog.String("interpreter", s.interpreter),
		slog.String("script", s.script),
		slog.String("dir", cmd.Dir))

	output, err := cmd.CombinedOutput()
	if stepState := state.GetStep(s.ID()); stepState != nil {
		stepState.SetOutput(string(output))
		if cmd.ProcessState != nil {
			stepState.SetMetadata("exit_code", cmd.ProcessState.ExitCode())
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Collector failed",
			slog.String("error", err.Error()),
			slog.Int("output_bytes", len(output)))
		return fmt.Errorf("collector %s failed: %w", s.ID(), err)
	}
	return nil
}

// FetchStage downloads a URL to its first output file
type FetchStage struct {
	BaseStage
	url    string
	logger *slog.Logger
}

// NewFetchStage creates a step that downloads url into the first of outputs
func NewFetchStage(id, name, url string, outputs []string, logger *slog.Logger) *FetchStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStage{
		BaseStage: NewBaseStage(id, name, outputs),
		url:       url,
		logger:    logger.With(slog.String("step", id)),
	}
}

// Validate checks that the step has a URL and a destination
func (s *FetchStage) Validate(state *OperationState) error {
	if s.url == "" {
		return fmt.Errorf("fetch step has no url")
	}
	if len(s.Outputs()) == 0 {
		return fmt.Errorf("fetch step has no output file")
	}
	return nil
}

// Execute downloads the URL. Non-2xx responses are errors.
func (s *FetchStage) Execute(ctx context.Context, state *OperationState) error {
	dest := filepath.Join(state.WorkDir, s.Outputs()[0])
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	s.logger.InfoContext(ctx, "Fetching",
		slog.String("url", s.url),
		slog.String("dest", dest))

	err := requests.
		URL(s.url).
		ToFile(dest).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", s.url, err)
	}

	if info, statErr := os.Stat(dest); statErr == nil {
		if stepState := state.GetStep(s.ID()); stepState != nil {
			stepState.SetMetadata("bytes", info.Size())
		}
	}
	return nil
}

// NewCollectorStage builds the step for a collector definition
func NewCollectorStage(spec config.CollectorSpec, interpreter string, logger *slog.Logger) (Step, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("collector has no id")
	}
	switch spec.Kind {
	case StepKindFetch:
		return NewFetchStage(spec.ID, spec.Name, spec.URL, spec.Outputs, logger), nil
	case StepKindScript, "":
		if interpreter == "" {
			interpreter = config.DefaultInterpreter
		}
		return NewCommandStage(spec.ID, spec.Name, interpreter, spec.Script, spec.Outputs, logger), nil
	default:
		return nil, fmt.Errorf("collector %s has unknown kind %q", spec.ID, spec.Kind)
	}
}

// NewRegistryFromCollectors registers one step per collector, in order,
// and applies per-collector timeouts to cfg
func NewRegistryFromCollectors(specs []config.CollectorSpec, interpreter string, cfg *Config, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry()
	for _, spec := range specs {
		step, err := NewCollectorStage(spec, interpreter, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(step); err != nil {
			return nil, err
		}
		if cfg != nil && spec.Timeout > 0 {
			cfg.SetStepTimeout(spec.ID, spec.Timeout)
		}
	}
	return registry, nil
}
