package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pricepulse/internal/infrastructure"
)

// Manager orchestrates operation execution. Steps run strictly one after
// another in registry order, each exactly once under its own timeout.
type Manager struct {
	registry  *Registry
	config    *Config
	tracer    *OperationTracer
	observers []StepObserver

	// Active operations
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a new operation manager
func NewManager(registry *Registry, config *Config, metrics *infrastructure.PipelineMetrics) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}

	return &Manager{
		registry:   registry,
		config:     config,
		tracer:     NewOperationTracer(metrics),
		operations: make(map[string]*OperationState),
	}
}

// AddObserver registers an observer notified after each step
func (m *Manager) AddObserver(o StepObserver) {
	m.observers = append(m.observers, o)
}

// Execute runs the requested steps. Step failures are recorded in the
// response; the returned error is non-nil only when the run itself was
// cancelled, could not start, or stopped early because ContinueOnError is off.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithRunID(ctx, req.ID)

	state := NewOperationState(req.ID, req.WorkDir)
	m.storeOperation(state)
	defer m.removeOperation(req.ID)

	steps, err := m.registry.Select(req.Steps)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, len(steps))
	defer span.End()

	m.logOperationStart(ctx, req.ID, req.WorkDir, len(steps))
	state.Start()

	err = m.executeSequential(ctx, state, steps)

	succeeded := state.SucceededCount()
	m.tracer.RecordOperationCompletion(ctx, span, succeeded, len(steps))

	switch {
	case err != nil && GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel()
	case err != nil:
		state.Fail(err)
	default:
		state.Complete()
	}

	m.logOperationComplete(ctx, req.ID, state.Duration(), succeeded, len(steps))
	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID())
		}

		slog.InfoContext(ctx, "executing_step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		err := m.executeStep(ctx, state, step)
		stepState := state.GetStep(step.ID())
		for _, o := range m.observers {
			o.StepFinished(ctx, step, stepState)
		}

		if err == nil {
			continue
		}

		m.logStepError(ctx, state.ID, step.ID(), err)
		if GetErrorType(err) == ErrorTypeCancellation {
			m.skipRemaining(state, steps[i+1:], "operation cancelled")
			return err
		}
		if !m.config.ContinueOnError {
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("previous step %s failed", step.ID()))
			return err
		}
		slog.WarnContext(ctx, "step_failed_continuing",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()))
	}
	return nil
}

// executeStep runs one step once under its timeout
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	ctx, span := m.tracer.TraceStepExecution(ctx, state.ID, step)
	defer span.End()

	m.logStepStart(ctx, state.ID, step.ID())
	stepState.Start()
	startTime := time.Now()

	if err := step.Validate(state); err != nil {
		opErr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(opErr)
		m.tracer.RecordStepCompletion(ctx, span, step.ID(), time.Since(startTime), opErr)
		return opErr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := step.Execute(stepCtx, state)
	duration := time.Since(startTime)

	if err == nil {
		stepState.Complete()
		m.tracer.RecordStepCompletion(ctx, span, step.ID(), duration, nil)
		m.logStepComplete(ctx, state.ID, step.ID(), duration)
		return nil
	}

	var opErr *OperationError
	switch {
	case ctx.Err() != nil:
		opErr = NewCancellationError(step.ID())
	case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		opErr = NewTimeoutError(step.ID(), timeout.String())
	default:
		opErr = WrapError(err, step.ID(), "step execution failed")
	}
	if out := stepState.Snapshot().Output; out != "" {
		opErr.WithContext("output", out)
	}

	stepState.Fail(opErr)
	m.tracer.RecordStepCompletion(ctx, span, step.ID(), duration, opErr)
	return opErr
}

// skipRemaining marks pending steps as skipped
func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStep(step.ID()); s != nil && s.Snapshot().Status == StepStatusPending {
			s.Skip(reason)
		}
	}
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	steps := state.OrderedSteps()
	resp := &OperationResponse{
		ID:        state.ID,
		Status:    state.Status,
		Duration:  state.Duration(),
		Steps:     steps,
		Succeeded: state.SucceededCount(),
		Total:     len(steps),
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}

// ListOperations returns the IDs of running operations
func (m *Manager) ListOperations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.operations))
	for id := range m.operations {
		ids = append(ids, id)
	}
	return ids
}

// storeOperation stores an operation state
func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

// removeOperation removes an operation state
func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}
