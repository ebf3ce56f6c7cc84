package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/baseball-sim/run-expectancy/grid"
	"github.com/baseball-sim/run-expectancy/models"
	"github.com/baseball-sim/run-expectancy/output"
	"github.com/baseball-sim/run-expectancy/simulation"
	"github.com/baseball-sim/run-expectancy/store"
)

// SimulationRequest asks for either a grid or an explicit list of hitters.
type SimulationRequest struct {
	Grid    *grid.Spec             `json:"grid,omitempty"`
	Hitters []models.HitterProfile `json:"hitters,omitempty"`
	Innings int                    `json:"innings,omitempty"`
	Seed    *int64                 `json:"seed,omitempty"`
}

// SimulationResponse is returned when a run is accepted
type SimulationResponse struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Hitters   int       `json:"hitters"`
	Innings   int       `json:"innings"`
	Seed      int64     `json:"seed"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SimulationStatus reports the progress of a run
type SimulationStatus struct {
	RunID            string     `json:"run_id"`
	Status           string     `json:"status"`
	TotalHitters     int        `json:"total_hitters"`
	CompletedHitters int        `json:"completed_hitters"`
	Progress         float64    `json:"progress"`
	Innings          int        `json:"innings"`
	Seed             int64      `json:"seed"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Handlers
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":   "healthy",
		"time":     time.Now().UTC(),
		"workers":  s.simEngine.Workers(),
		"innings":  s.simEngine.DefaultInnings(),
		"database": "disabled",
	}
	status := http.StatusOK

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		health["database"] = "connected"
		if err := s.store.Ping(ctx); err != nil {
			health["database"] = "disconnected"
			health["status"] = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, health)
}

func (s *Server) simulateHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	runReq, err := s.buildRunRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runID := s.simEngine.StartRun(s.runCtx, runReq)

	innings := runReq.Innings
	if innings <= 0 {
		innings = s.simEngine.DefaultInnings()
	}
	writeJSON(w, http.StatusAccepted, SimulationResponse{
		RunID:     runID,
		Status:    "started",
		Hitters:   len(runReq.Hitters),
		Innings:   innings,
		Seed:      runReq.Seed,
		Message:   fmt.Sprintf("Simulation started for %d hitters", len(runReq.Hitters)),
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Server) buildRunRequest(req SimulationRequest) (simulation.RunRequest, error) {
	var runReq simulation.RunRequest

	switch {
	case req.Grid != nil && len(req.Hitters) > 0:
		return runReq, errors.New("specify either grid or hitters, not both")
	case req.Grid != nil:
		if err := req.Grid.Validate(); err != nil {
			return runReq, err
		}
		if n := req.Grid.Size(); n > s.config.MaxGridSize {
			return runReq, fmt.Errorf("grid has %d profiles, limit is %d", n, s.config.MaxGridSize)
		}
		runReq.Hitters = req.Grid.Enumerate()
	case len(req.Hitters) > 0:
		if len(req.Hitters) > s.config.MaxGridSize {
			return runReq, fmt.Errorf("request has %d hitters, limit is %d", len(req.Hitters), s.config.MaxGridSize)
		}
		runReq.Hitters = req.Hitters
	default:
		return runReq, errors.New("request needs a grid or at least one hitter")
	}

	if req.Innings < 0 {
		return runReq, errors.New("innings must not be negative")
	}
	runReq.Innings = req.Innings

	if req.Seed != nil {
		runReq.Seed = *req.Seed
	} else {
		runReq.Seed = time.Now().UnixNano()
	}
	return runReq, nil
}

func (s *Server) simulationStatusHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	status, err := s.lookupStatus(r.Context(), runID)
	if err != nil {
		s.writeLookupError(w, runID, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) simulationResultHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	result, ok := s.completedResult(w, r, runID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) simulationCSVHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	result, ok := s.completedResult(w, r, runID)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".csv"))
	if err := output.WriteSummaries(w, result.Summaries); err != nil {
		s.log.WithField("run_id", runID).WithError(err).Error("Failed to write CSV")
	}
}

// completedResult loads the result of a finished run, writing an error
// response and returning false when there is none to serve.
func (s *Server) completedResult(w http.ResponseWriter, r *http.Request, runID string) (*simulation.GridResult, bool) {
	status, err := s.lookupStatus(r.Context(), runID)
	if err != nil {
		s.writeLookupError(w, runID, err)
		return nil, false
	}

	switch status.Status {
	case simulation.StatusCompleted:
	case simulation.StatusPending, simulation.StatusRunning:
		http.Error(w, "Simulation not yet complete", http.StatusAccepted)
		return nil, false
	default:
		http.Error(w, fmt.Sprintf("Simulation %s", status.Status), http.StatusConflict)
		return nil, false
	}

	result, err := s.simEngine.GetRunResult(r.Context(), runID)
	if err != nil {
		s.writeLookupError(w, runID, err)
		return nil, false
	}
	return result, true
}

// lookupStatus checks the engine's in-memory runs first and falls back to the store.
func (s *Server) lookupStatus(ctx context.Context, runID string) (SimulationStatus, error) {
	if rs, exists := s.simEngine.GetRunStatus(runID); exists {
		return SimulationStatus{
			RunID:            rs.RunID,
			Status:           rs.Status,
			TotalHitters:     rs.TotalHitters,
			CompletedHitters: rs.CompletedHitters,
			Progress:         progress(rs.CompletedHitters, rs.TotalHitters),
			Innings:          rs.Innings,
			Seed:             rs.Seed,
			CreatedAt:        rs.StartTime,
			CompletedAt:      rs.CompletedTime,
		}, nil
	}

	if s.store == nil {
		return SimulationStatus{}, fmt.Errorf("run %s: %w", runID, store.ErrNotFound)
	}
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return SimulationStatus{}, err
	}
	return SimulationStatus{
		RunID:            run.ID,
		Status:           run.Status,
		TotalHitters:     run.TotalHitters,
		CompletedHitters: run.CompletedHitters,
		Progress:         progress(run.CompletedHitters, run.TotalHitters),
		Innings:          run.Innings,
		Seed:             run.Seed,
		CreatedAt:        run.CreatedAt,
		CompletedAt:      run.CompletedAt,
	}, nil
}

func (s *Server) writeLookupError(w http.ResponseWriter, runID string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}
	s.log.WithField("run_id", runID).WithError(err).Error("Failed to load simulation")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func progress(completed, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(completed) / float64(total)
}
