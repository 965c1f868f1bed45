// Package testutil provides steps and fixtures for testing operations.
package testutil

import (
	"context"
	"sync"

	"pricepulse/internal/operations"
)

// MockStep is a configurable step for testing
type MockStep struct {
	operations.BaseStage

	// ExecuteFunc runs in place of real work when set
	ExecuteFunc func(ctx context.Context, state *operations.OperationState) error

	// ValidateErr is returned from Validate
	ValidateErr error

	mu    sync.Mutex
	calls int
}

// NewMockStep creates a mock step that succeeds
func NewMockStep(id string, outputs ...string) *MockStep {
	return &MockStep{
		BaseStage: operations.NewBaseStage(id, "Mock "+id, outputs),
	}
}

// NewFailingStep creates a mock step whose Execute returns err
func NewFailingStep(id string, err error) *MockStep {
	s := NewMockStep(id)
	s.ExecuteFunc = func(context.Context, *operations.OperationState) error {
		return err
	}
	return s
}

// NewBlockingStep creates a mock step that waits for its context to end
func NewBlockingStep(id string) *MockStep {
	s := NewMockStep(id)
	s.ExecuteFunc = func(ctx context.Context, _ *operations.OperationState) error {
		<-ctx.Done()
		return ctx.Err()
	}
	return s
}

// Execute implements operations.Step
func (s *MockStep) Execute(ctx context.Context, state *operations.OperationState) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.ExecuteFunc != nil {
		return s.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate implements operations.Step
func (s *MockStep) Validate(*operations.OperationState) error {
	return s.ValidateErr
}

// Calls returns how many times Execute ran
func (s *MockStep) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
