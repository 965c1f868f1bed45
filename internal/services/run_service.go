package services

import (
	"context"
	"log/slog"

	"pricepulse/pkg/contracts/domain"
)

// RunStore reads persisted integrator runs
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
	GetRun(ctx context.Context, id string) (*domain.RunRecord, error)
}

// RunService exposes the run history
type RunService struct {
	store  RunStore
	logger *slog.Logger
}

// NewRunService creates a run service. A nil store makes every call fail
// with ErrStorageDisabled.
func NewRunService(store RunStore, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{store: store, logger: logger}
}

// ListRuns returns up to limit runs, newest first
func (s *RunService) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list runs", slog.String("error", err.Error()))
		return nil, err
	}
	return runs, nil
}

// GetRun returns one run with its steps
func (s *RunService) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	return s.store.GetRun(ctx, id)
}
