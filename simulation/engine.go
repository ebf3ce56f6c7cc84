package simulation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/baseball-sim/run-expectancy/metrics"
	"github.com/baseball-sim/run-expectancy/models"
	"github.com/baseball-sim/run-expectancy/store"
)

// Run states
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// ResultSink receives the summaries of a finished run
type ResultSink interface {
	Write(ctx context.Context, runID string, summaries []models.HitterSummary) error
}

// RunRequest describes one batch of hitters to simulate
type RunRequest struct {
	Hitters []models.HitterProfile `json:"hitters"`
	Innings int                    `json:"innings"`
	Seed    int64                  `json:"seed"`
}

// GridResult holds one entry per hitter. Order carries no meaning.
type GridResult struct {
	Summaries []models.HitterSummary `json:"summaries"`
	Failures  []models.HitterFailure `json:"failures"`
}

// SimulationEngine fans hitter simulations out over a fixed worker pool
type SimulationEngine struct {
	store   store.Store
	sinks   []ResultSink
	workers int
	innings int
	log     *logrus.Entry

	mu         sync.RWMutex
	activeRuns map[string]*RunStatus
}

// RunStatus tracks the progress of a simulation run
type RunStatus struct {
	RunID            string
	Status           string
	TotalHitters     int
	CompletedHitters int
	Innings          int
	Seed             int64
	StartTime        time.Time
	CompletedTime    *time.Time
	Result           *GridResult
}

// NewSimulationEngine creates a new simulation engine. A nil store keeps runs
// in memory only. workers <= 0 uses one worker per CPU.
func NewSimulationEngine(st store.Store, workers, innings int, sinks ...ResultSink) *SimulationEngine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &SimulationEngine{
		store:      st,
		sinks:      sinks,
		workers:    workers,
		innings:    innings,
		log:        logrus.WithField("component", "simulation"),
		activeRuns: make(map[string]*RunStatus),
	}
}

// Workers returns the size of the worker pool.
func (se *SimulationEngine) Workers() int {
	return se.workers
}

// DefaultInnings returns the innings per hitter used when a request leaves it unset.
func (se *SimulationEngine) DefaultInnings() int {
	return se.innings
}

type hitterJob struct {
	index   int
	profile models.HitterProfile
}

type hitterOutcome struct {
	profile models.HitterProfile
	summary models.HitterSummary
	err     error
}

// SimulateGrid simulates every hitter in the request and blocks until all of
// them are done. Invalid profiles are reported as failures and do not stop the
// rest of the grid. Cancelling ctx stops further hitters from starting.
func (se *SimulationEngine) SimulateGrid(ctx context.Context, req RunRequest) GridResult {
	return se.fanOut(ctx, se.normalize(req), nil)
}

func (se *SimulationEngine) normalize(req RunRequest) RunRequest {
	if req.Innings <= 0 {
		req.Innings = se.innings
	}
	return req
}

func (se *SimulationEngine) fanOut(ctx context.Context, req RunRequest, progress func()) GridResult {
	jobs := make(chan hitterJob)
	results := make(chan hitterOutcome, se.workers)

	var wg sync.WaitGroup
	for i := 0; i < se.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				start := time.Now()
				rng := NewHitterRNG(req.Seed, StreamName(job.profile, job.index))
				summary, err := SimulateHitter(job.profile, req.Innings, rng)
				metrics.HitterDuration.Observe(time.Since(start).Seconds())
				results <- hitterOutcome{profile: job.profile, summary: summary, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, profile := range req.Hitters {
			select {
			case jobs <- hitterJob{index: i, profile: profile}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	result := GridResult{
		Summaries: make([]models.HitterSummary, 0, len(req.Hitters)),
	}
	for r := range results {
		if r.err != nil {
			metrics.HittersSimulated.WithLabelValues("invalid").Inc()
			se.log.WithFields(logrus.Fields{
				"hitter": r.profile.Key(),
				"error":  r.err,
			}).Debug("Skipping hitter")
			result.Failures = append(result.Failures, models.HitterFailure{
				Profile: r.profile,
				Reason:  r.err.Error(),
			})
		} else {
			metrics.HittersSimulated.WithLabelValues("ok").Inc()
			metrics.InningsSimulated.Add(float64(r.summary.NumInnings))
			result.Summaries = append(result.Summaries, r.summary)
		}
		if progress != nil {
			progress()
		}
	}

	return result
}

// RunSimulation executes a complete simulation run, persisting its status and
// results and handing the summaries to every sink.
func (se *SimulationEngine) RunSimulation(ctx context.Context, runID string, req RunRequest) error {
	req = se.normalize(req)
	log := se.log.WithField("run_id", runID)

	status := se.register(runID, req, StatusRunning)
	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	if se.store != nil {
		err := se.store.CreateRun(ctx, &store.Run{
			ID:           runID,
			Status:       StatusRunning,
			TotalHitters: len(req.Hitters),
			Innings:      req.Innings,
			Seed:         req.Seed,
			CreatedAt:    status.StartTime,
		})
		if err != nil {
			se.finish(runID, StatusError, nil)
			return fmt.Errorf("failed to create run: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"hitters": len(req.Hitters),
		"innings": req.Innings,
		"workers": se.workers,
	}).Info("Simulation run started")

	result := se.fanOut(ctx, req, func() { se.updateProgress(runID) })

	if err := ctx.Err(); err != nil {
		se.finish(runID, StatusCancelled, &result)
		return fmt.Errorf("simulation run %s cancelled: %w", runID, err)
	}

	if err := se.storeResults(ctx, runID, result); err != nil {
		se.finish(runID, StatusError, &result)
		return err
	}

	var sinkErrs []error
	for _, sink := range se.sinks {
		if err := sink.Write(ctx, runID, result.Summaries); err != nil {
			log.WithError(err).Error("Failed to write results to sink")
			sinkErrs = append(sinkErrs, err)
		}
	}

	se.finish(runID, StatusCompleted, &result)

	log.WithFields(logrus.Fields{
		"summaries": len(result.Summaries),
		"failures":  len(result.Failures),
		"elapsed":   time.Since(status.StartTime).String(),
	}).Info("Simulation run completed")

	return errors.Join(sinkErrs...)
}

// StartRun registers a pending run and simulates it in the background. The
// returned ID can be polled with GetRunStatus immediately.
func (se *SimulationEngine) StartRun(ctx context.Context, req RunRequest) string {
	runID := uuid.New().String()
	req = se.normalize(req)
	se.register(runID, req, StatusPending)

	go func() {
		if err := se.RunSimulation(ctx, runID, req); err != nil {
			se.log.WithField("run_id", runID).WithError(err).Error("Simulation run failed")
		}
	}()
	return runID
}

func (se *SimulationEngine) register(runID string, req RunRequest, state string) *RunStatus {
	status := &RunStatus{
		RunID:        runID,
		Status:       state,
		TotalHitters: len(req.Hitters),
		Innings:      req.Innings,
		Seed:         req.Seed,
		StartTime:    time.Now(),
	}
	se.mu.Lock()
	se.activeRuns[runID] = status
	se.mu.Unlock()
	return status
}

func (se *SimulationEngine) storeResults(ctx context.Context, runID string, result GridResult) error {
	if se.store == nil {
		return nil
	}
	if err := se.store.SaveSummaries(ctx, runID, result.Summaries); err != nil {
		return fmt.Errorf("failed to store summaries: %w", err)
	}
	if err := se.store.SaveFailures(ctx, runID, result.Failures); err != nil {
		return fmt.Errorf("failed to store failures: %w", err)
	}
	return nil
}

// updateProgress updates the completed hitter count
func (se *SimulationEngine) updateProgress(runID string) {
	se.mu.Lock()
	status, exists := se.activeRuns[runID]
	if !exists {
		se.mu.Unlock()
		return
	}
	status.CompletedHitters++
	completed, total := status.CompletedHitters, status.TotalHitters
	se.mu.Unlock()

	// Persist every 100 hitters and on the last one
	if se.store == nil || (completed%100 != 0 && completed != total) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := se.store.UpdateProgress(ctx, runID, completed); err != nil {
		se.log.WithField("run_id", runID).WithError(err).Warn("Failed to update progress")
	}
}

func (se *SimulationEngine) finish(runID, state string, result *GridResult) {
	now := time.Now()

	se.mu.Lock()
	if status, exists := se.activeRuns[runID]; exists {
		status.Status = state
		status.CompletedTime = &now
		status.Result = result
	}
	se.mu.Unlock()

	if se.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := se.store.CompleteRun(ctx, runID, state, now); err != nil {
		se.log.WithField("run_id", runID).WithError(err).Error("Failed to update run status")
	}
}

// GetRunStatus returns a snapshot of an in-memory run
func (se *SimulationEngine) GetRunStatus(runID string) (RunStatus, bool) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	status, exists := se.activeRuns[runID]
	if !exists {
		return RunStatus{}, false
	}
	return *status, true
}

// GetRunResult returns the results of a completed run, from memory when the
// run is still held there and from the store otherwise.
func (se *SimulationEngine) GetRunResult(ctx context.Context, runID string) (*GridResult, error) {
	se.mu.RLock()
	if status, exists := se.activeRuns[runID]; exists && status.Result != nil {
		se.mu.RUnlock()
		return status.Result, nil
	}
	se.mu.RUnlock()

	if se.store == nil {
		return nil, fmt.Errorf("run %s: %w", runID, store.ErrNotFound)
	}

	summaries, err := se.store.ListSummaries(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load summaries: %w", err)
	}
	failures, err := se.store.ListFailures(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load failures: %w", err)
	}
	return &GridResult{Summaries: summaries, Failures: failures}, nil
}

// CleanupOldRuns removes runs older than maxAge from memory
func (se *SimulationEngine) CleanupOldRuns(maxAge time.Duration) int {
	se.mu.Lock()
	defer se.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for runID, status := range se.activeRuns {
		active := status.Status == StatusRunning || status.Status == StatusPending
		if !active && status.StartTime.Before(cutoff) {
			delete(se.activeRuns, runID)
			removed++
		}
	}
	return removed
}

// StartCleanup drops finished runs older than 24 hours every hour until ctx is done.
func (se *SimulationEngine) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := se.CleanupOldRuns(24 * time.Hour)
				se.log.WithField("removed", removed).Debug("Cleaned up old runs")
			}
		}
	}()
}
