// Package api contains the JSON contracts of the preview server.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"pricepulse/pkg/contracts"
	"pricepulse/pkg/contracts/domain"
)

// HealthResponse is returned by GET /healthz
type HealthResponse struct {
	Status    string                `json:"status"`
	Storage   string                `json:"storage"`
	Version   contracts.VersionInfo `json:"version"`
	Uptime    string                `json:"uptime"`
	Timestamp time.Time             `json:"timestamp"`
}

// Storage states reported by HealthResponse
const (
	StorageOK       = "ok"
	StorageDisabled = "disabled"
	StorageError    = "error"
)

// DashboardFile describes one rendered dashboard page
type DashboardFile struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// DashboardList is returned by GET /dashboards
type DashboardList struct {
	Dashboards []DashboardFile `json:"dashboards"`
	Count      int             `json:"count"`
}

// RunList is returned by GET /api/runs
type RunList struct {
	Runs  []domain.RunRecord `json:"runs"`
	Count int                `json:"count"`
}

// FamilySummary holds the latest comparisons of one dashboard family. Error
// is set instead of Comparisons when the family could not be analyzed.
type FamilySummary struct {
	Family      string                    `json:"family"`
	Title       string                    `json:"title"`
	Records     int                       `json:"records,omitempty"`
	Comparisons []domain.ComparisonResult `json:"comparisons,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

// SummaryResponse is returned by GET /api/summary
type SummaryResponse struct {
	PriorMode   string          `json:"prior_mode"`
	Families    []FamilySummary `json:"families"`
	GeneratedAt time.Time       `json:"generated_at"`
}
