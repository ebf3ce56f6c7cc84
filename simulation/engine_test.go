package simulation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseball-sim/run-expectancy/models"
	"github.com/baseball-sim/run-expectancy/store"
)

var testHitters = []models.HitterProfile{
	{AVG: 0.250, OBP: 0.320, SLG: 0.400},
	{AVG: 0.300, OBP: 0.370, SLG: 0.500},
	{AVG: 0.190, OBP: 0.260, SLG: 0.650}, // singles rate would be negative
	{AVG: 0.280, OBP: 0.340, SLG: 0.450},
	{AVG: 0.330, OBP: 0.420, SLG: 0.600},
}

type recordingSink struct {
	mu        sync.Mutex
	runID     string
	summaries []models.HitterSummary
	err       error
}

func (r *recordingSink) Write(_ context.Context, runID string, summaries []models.HitterSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runID = runID
	r.summaries = summaries
	return r.err
}

func sortSummaries(s []models.HitterSummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].Profile().Key() < s[j].Profile().Key() })
}

// TestSimulateGridFailuresDoNotAbort tests that invalid hitters are reported without stopping the grid
func TestSimulateGridFailuresDoNotAbort(t *testing.T) {
	se := NewSimulationEngine(nil, 3, 50)

	result := se.SimulateGrid(context.Background(), RunRequest{Hitters: testHitters, Seed: 1})
	assert.Len(t, result.Summaries, 4)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, testHitters[2], result.Failures[0].Profile)
	assert.Contains(t, result.Failures[0].Reason, "single")

	for _, s := range result.Summaries {
		assert.Equal(t, 50, s.NumInnings, "innings default to the engine setting")
	}
}

// TestSimulateGridDeterministic tests that results depend only on the seed, not the worker count
func TestSimulateGridDeterministic(t *testing.T) {
	req := RunRequest{Hitters: testHitters, Innings: 200, Seed: 12345}

	one := NewSimulationEngine(nil, 1, 0).SimulateGrid(context.Background(), req)
	four := NewSimulationEngine(nil, 4, 0).SimulateGrid(context.Background(), req)
	sortSummaries(one.Summaries)
	sortSummaries(four.Summaries)
	assert.Equal(t, one.Summaries, four.Summaries)

	req.Seed = 54321
	other := NewSimulationEngine(nil, 4, 0).SimulateGrid(context.Background(), req)
	sortSummaries(other.Summaries)
	assert.NotEqual(t, one.Summaries, other.Summaries)
}

// TestSimulateGridRepeatedProfiles tests that identical or nearly identical
// profiles in one request are simulated independently
func TestSimulateGridRepeatedProfiles(t *testing.T) {
	hitters := []models.HitterProfile{
		{AVG: 0.30001, OBP: 0.37, SLG: 0.5},
		{AVG: 0.30004, OBP: 0.37, SLG: 0.5},
		{AVG: 0.30001, OBP: 0.37, SLG: 0.5},
	}

	result := NewSimulationEngine(nil, 1, 0).SimulateGrid(context.Background(), RunRequest{Hitters: hitters, Innings: 2000, Seed: 7})
	require.Len(t, result.Summaries, 3)
	for i := 0; i < len(result.Summaries); i++ {
		for j := i + 1; j < len(result.Summaries); j++ {
			assert.NotEqual(t, result.Summaries[i].Totals, result.Summaries[j].Totals)
		}
	}
}

// TestSimulateGridCancelled tests that a cancelled context stops dispatching
func TestSimulateGridCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hitters := make([]models.HitterProfile, 1000)
	for i := range hitters {
		hitters[i] = models.HitterProfile{AVG: 0.300, OBP: 0.370, SLG: 0.500}
	}
	result := NewSimulationEngine(nil, 2, 10).SimulateGrid(ctx, RunRequest{Hitters: hitters})
	assert.Less(t, len(result.Summaries), len(hitters))
}

// TestNewSimulationEngineDefaults tests worker defaults
func TestNewSimulationEngineDefaults(t *testing.T) {
	se := NewSimulationEngine(nil, 0, 100)
	assert.Positive(t, se.Workers())
	assert.Equal(t, 100, se.DefaultInnings())
}

// TestRunSimulation tests a complete run with persistence and a sink
func TestRunSimulation(t *testing.T) {
	st := store.NewMemoryStore()
	sink := &recordingSink{}
	se := NewSimulationEngine(st, 2, 20, sink)
	ctx := context.Background()

	err := se.RunSimulation(ctx, "run-1", RunRequest{Hitters: testHitters, Seed: 9})
	require.NoError(t, err)

	status, ok := se.GetRunStatus("run-1")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, len(testHitters), status.TotalHitters)
	assert.Equal(t, len(testHitters), status.CompletedHitters)
	assert.NotNil(t, status.CompletedTime)

	run, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, len(testHitters), run.CompletedHitters)
	assert.Equal(t, int64(9), run.Seed)

	summaries, err := st.ListSummaries(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, summaries, 4)
	failures, err := st.ListFailures(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, failures, 1)

	assert.Equal(t, "run-1", sink.runID)
	assert.Len(t, sink.summaries, 4)
}

// TestRunSimulationSinkError tests that sink failures are reported but the run completes
func TestRunSimulationSinkError(t *testing.T) {
	sinkErr := errors.New("broker down")
	good := &recordingSink{}
	se := NewSimulationEngine(nil, 2, 10, &recordingSink{err: sinkErr}, good)

	err := se.RunSimulation(context.Background(), "run-2", RunRequest{Hitters: testHitters[:2]})
	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, good.summaries, 2, "later sinks still run")

	status, ok := se.GetRunStatus("run-2")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, status.Status)
}

// TestRunSimulationCancelled tests that a cancelled run is marked as such
func TestRunSimulationCancelled(t *testing.T) {
	st := store.NewMemoryStore()
	se := NewSimulationEngine(st, 2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := se.RunSimulation(ctx, "run-3", RunRequest{Hitters: testHitters})
	assert.ErrorIs(t, err, context.Canceled)

	status, ok := se.GetRunStatus("run-3")
	require.True(t, ok)
	assert.Equal(t, StatusCancelled, status.Status)

	run, err := st.GetRun(context.Background(), "run-3")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, run.Status)
}

// TestRunSimulationDuplicateID tests that a store failure marks the run as errored
func TestRunSimulationDuplicateID(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.CreateRun(context.Background(), &store.Run{ID: "dup", Status: StatusCompleted}))
	se := NewSimulationEngine(st, 1, 10)

	err := se.RunSimulation(context.Background(), "dup", RunRequest{Hitters: testHitters[:1]})
	assert.Error(t, err)

	status, ok := se.GetRunStatus("dup")
	require.True(t, ok)
	assert.Equal(t, StatusError, status.Status)
}

// TestStartRun tests background runs are visible immediately and finish
func TestStartRun(t *testing.T) {
	se := NewSimulationEngine(store.NewMemoryStore(), 2, 10)

	runID := se.StartRun(context.Background(), RunRequest{Hitters: testHitters, Seed: 5})
	require.NotEmpty(t, runID)

	_, ok := se.GetRunStatus(runID)
	require.True(t, ok, "status exists before the run starts")

	require.Eventually(t, func() bool {
		status, _ := se.GetRunStatus(runID)
		return status.Status == StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	result, err := se.GetRunResult(context.Background(), runID)
	require.NoError(t, err)
	assert.Len(t, result.Summaries, 4)
	assert.Len(t, result.Failures, 1)
}

// TestGetRunResultFromStore tests that results outlive in-memory cleanup
func TestGetRunResultFromStore(t *testing.T) {
	st := store.NewMemoryStore()
	se := NewSimulationEngine(st, 2, 10)
	ctx := context.Background()

	require.NoError(t, se.RunSimulation(ctx, "run-4", RunRequest{Hitters: testHitters}))
	assert.Equal(t, 1, se.CleanupOldRuns(0))

	_, ok := se.GetRunStatus("run-4")
	assert.False(t, ok)

	result, err := se.GetRunResult(ctx, "run-4")
	require.NoError(t, err)
	assert.Len(t, result.Summaries, 4)
	assert.Len(t, result.Failures, 1)
}

// TestGetRunResultUnknown tests lookups of runs that never existed
func TestGetRunResultUnknown(t *testing.T) {
	_, err := NewSimulationEngine(nil, 1, 10).GetRunResult(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = NewSimulationEngine(store.NewMemoryStore(), 1, 10).GetRunResult(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestCleanupOldRunsKeepsActive tests that running and recent runs survive cleanup
func TestCleanupOldRunsKeepsActive(t *testing.T) {
	se := NewSimulationEngine(nil, 1, 10)
	se.register("pending", RunRequest{}, StatusPending)
	se.register("running", RunRequest{}, StatusRunning)
	se.register("done", RunRequest{}, StatusCompleted)

	assert.Equal(t, 0, se.CleanupOldRuns(time.Hour), "recent runs are kept")
	assert.Equal(t, 1, se.CleanupOldRuns(0))

	_, ok := se.GetRunStatus("running")
	assert.True(t, ok)
	_, ok = se.GetRunStatus("pending")
	assert.True(t, ok)
}
