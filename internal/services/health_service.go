package services

import (
	"context"
	"log/slog"
	"time"

	"pricepulse/pkg/contracts"
	api "pricepulse/pkg/contracts/api/v1"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	store     Pinger
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. A nil store reports storage
// as disabled.
func NewHealthService(store Pinger, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		store:     store,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck reports the service status. A failing store degrades the
// status without failing the check.
func (s *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	resp := api.HealthResponse{
		Status:    "ok",
		Storage:   api.StorageDisabled,
		Version:   contracts.GetVersionInfo(),
		Uptime:    s.Uptime().Truncate(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Storage health check failed",
				slog.String("error", err.Error()))
			resp.Status = "degraded"
			resp.Storage = api.StorageError
		} else {
			resp.Storage = api.StorageOK
		}
	}
	return resp
}

// Uptime returns how long the service has been running
func (s *HealthService) Uptime() time.Duration {
	return time.Since(s.startTime)
}
