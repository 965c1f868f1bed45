package domain

import (
	"time"
)

// RunRecord is a persisted integrator run
type RunRecord struct {
	ID         string        `json:"id" db:"id"`
	StartedAt  time.Time     `json:"started_at" db:"started_at"`
	FinishedAt time.Time     `json:"finished_at" db:"finished_at"`
	Succeeded  int           `json:"succeeded" db:"succeeded"`
	Total      int           `json:"total" db:"total"`
	OutputFile string        `json:"output_file" db:"output_file"`
	Digest     string        `json:"digest,omitempty" db:"digest"`
	Steps      []StepOutcome `json:"steps,omitempty"`
}

// Duration returns the wall-clock length of the run
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// StepOutcome is the persisted result of one collector step
type StepOutcome struct {
	RunID    string        `json:"run_id" db:"run_id"`
	StepID   string        `json:"step_id" db:"step_id"`
	Name     string        `json:"name" db:"name"`
	Status   string        `json:"status" db:"status"`
	Duration time.Duration `json:"duration" db:"duration_ms"`
	Records  int           `json:"records" db:"records"`
	Error    string        `json:"error,omitempty" db:"error"`
}

// RunCompletedEvent is published after an integrator run finishes
type RunCompletedEvent struct {
	RunID      string    `json:"run_id"`
	Succeeded  int       `json:"succeeded"`
	Total      int       `json:"total"`
	OutputFile string    `json:"output_file"`
	Digest     string    `json:"digest,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
