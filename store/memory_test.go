package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseball-sim/run-expectancy/models"
)

// TestMemoryStoreLifecycle tests a run from creation to completion
func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateRun(ctx, &Run{ID: "run-1", Status: "running", TotalHitters: 2, Innings: 10}))
	assert.Error(t, s.CreateRun(ctx, &Run{ID: "run-1"}), "duplicate run IDs are rejected")

	require.NoError(t, s.UpdateProgress(ctx, "run-1", 1))
	summaries := []models.HitterSummary{{AVG: 0.25, OBP: 0.32, SLG: 0.40, NumInnings: 10, Runs: 5}}
	require.NoError(t, s.SaveSummaries(ctx, "run-1", summaries))
	failures := []models.HitterFailure{{Profile: models.HitterProfile{AVG: 0.19, OBP: 0.26, SLG: 0.65}, Reason: "bad"}}
	require.NoError(t, s.SaveFailures(ctx, "run-1", failures))

	done := time.Now()
	require.NoError(t, s.CompleteRun(ctx, "run-1", "completed", done))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, 1, run.CompletedHitters)
	require.NotNil(t, run.CompletedAt)
	assert.Equal(t, done, *run.CompletedAt)

	gotSummaries, err := s.ListSummaries(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, summaries, gotSummaries)

	gotFailures, err := s.ListFailures(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, failures, gotFailures)
}

// TestMemoryStoreNotFound tests that every operation on an unknown run fails with ErrNotFound
func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tests := []struct {
		name string
		op   func() error
	}{
		{"UpdateProgress", func() error { return s.UpdateProgress(ctx, "nope", 1) }},
		{"CompleteRun", func() error { return s.CompleteRun(ctx, "nope", "completed", time.Now()) }},
		{"GetRun", func() error { _, err := s.GetRun(ctx, "nope"); return err }},
		{"SaveSummaries", func() error { return s.SaveSummaries(ctx, "nope", nil) }},
		{"ListSummaries", func() error { _, err := s.ListSummaries(ctx, "nope"); return err }},
		{"SaveFailures", func() error { return s.SaveFailures(ctx, "nope", nil) }},
		{"ListFailures", func() error { _, err := s.ListFailures(ctx, "nope"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(), ErrNotFound)
		})
	}
}

// TestMemoryStoreReturnsCopies tests that callers cannot mutate stored runs
func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	run := &Run{ID: "run-1", Status: "running"}
	require.NoError(t, s.CreateRun(ctx, run))

	run.Status = "mutated"
	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "running", got.Status)

	got.Status = "mutated again"
	again, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "running", again.Status)
}

// TestIsTerminal tests terminal status detection
func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"pending", false},
		{"running", false},
		{"completed", true},
		{"cancelled", true},
		{"error", true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTerminal(tt.status))
		})
	}
}
