// Package store persists simulation runs and their per-hitter results.
// PostgreSQL is the source of truth, Redis an optional read-through cache for
// finished runs, and the in-memory store serves tests and database-less runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/baseball-sim/run-expectancy/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Run is the persisted record of a simulation run
type Run struct {
	ID               string     `json:"run_id"`
	Status           string     `json:"status"`
	TotalHitters     int        `json:"total_hitters"`
	CompletedHitters int        `json:"completed_hitters"`
	Innings          int        `json:"innings"`
	Seed             int64      `json:"seed"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Store is the persistence interface
type Store interface {
	// CreateRun persists a new run.
	CreateRun(ctx context.Context, run *Run) error

	// UpdateProgress records how many hitters have finished.
	UpdateProgress(ctx context.Context, runID string, completed int) error

	// CompleteRun moves a run to a terminal status.
	CompleteRun(ctx context.Context, runID, status string, completedAt time.Time) error

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// SaveSummaries appends hitter summaries to a run.
	SaveSummaries(ctx context.Context, runID string, summaries []models.HitterSummary) error

	// ListSummaries returns every summary of a run, an empty slice when it has
	// none, and ErrNotFound when the run does not exist.
	ListSummaries(ctx context.Context, runID string) ([]models.HitterSummary, error)

	// SaveFailures appends rejected profiles to a run.
	SaveFailures(ctx context.Context, runID string, failures []models.HitterFailure) error

	// ListFailures returns every rejected profile of a run, with the same
	// contract as ListSummaries.
	ListFailures(ctx context.Context, runID string) ([]models.HitterFailure, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

// IsTerminal reports whether a run status is final.
func IsTerminal(status string) bool {
	switch status {
	case "completed", "cancelled", "error":
		return true
	}
	return false
}
