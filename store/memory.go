package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/baseball-sim/run-expectancy/models"
)

// MemoryStore implements Store with in-memory maps. Used for testing and for
// runs without a database. Nothing survives a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]*Run
	summaries map[string][]models.HitterSummary
	failures  map[string][]models.HitterFailure
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:      make(map[string]*Run),
		summaries: make(map[string][]models.HitterSummary),
		failures:  make(map[string][]models.HitterFailure),
	}
}

func (s *MemoryStore) CreateRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	stored := *run
	s.runs[run.ID] = &stored
	return nil
}

func (s *MemoryStore) UpdateProgress(_ context.Context, runID string, completed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	run.CompletedHitters = completed
	return nil
}

func (s *MemoryStore) CompleteRun(_ context.Context, runID, status string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	run.Status = status
	run.CompletedAt = &completedAt
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	out := *run
	return &out, nil
}

func (s *MemoryStore) SaveSummaries(_ context.Context, runID string, summaries []models.HitterSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	s.summaries[runID] = append(s.summaries[runID], summaries...)
	return nil
}

func (s *MemoryStore) ListSummaries(_ context.Context, runID string) ([]models.HitterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	out := make([]models.HitterSummary, len(s.summaries[runID]))
	copy(out, s.summaries[runID])
	return out, nil
}

func (s *MemoryStore) SaveFailures(_ context.Context, runID string, failures []models.HitterFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	s.failures[runID] = append(s.failures[runID], failures...)
	return nil
}

func (s *MemoryStore) ListFailures(_ context.Context, runID string) ([]models.HitterFailure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	out := make([]models.HitterFailure, len(s.failures[runID]))
	copy(out, s.failures[runID])
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
