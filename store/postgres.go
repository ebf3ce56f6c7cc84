package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baseball-sim/run-expectancy/models"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
}

var summaryColumns = []string{
	"run_id", "avg", "obp", "slg", "num_innings", "runs",
	"plate_appearances", "at_bats", "hits", "total_bases", "walks",
}

var failureColumns = []string{"run_id", "avg", "obp", "slg", "reason"}

// invalidTextRepresentation is raised when a run ID is not a valid UUID.
const invalidTextRepresentation = "22P02"

const schema = `
	CREATE TABLE IF NOT EXISTS simulation_runs (
		id UUID PRIMARY KEY,
		status TEXT NOT NULL,
		total_hitters INTEGER NOT NULL,
		completed_hitters INTEGER NOT NULL DEFAULT 0,
		innings INTEGER NOT NULL,
		seed BIGINT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		completed_at TIMESTAMP WITH TIME ZONE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS hitter_summaries (
		run_id UUID NOT NULL REFERENCES simulation_runs(id),
		avg DOUBLE PRECISION NOT NULL,
		obp DOUBLE PRECISION NOT NULL,
		slg DOUBLE PRECISION NOT NULL,
		num_innings INTEGER NOT NULL,
		runs BIGINT NOT NULL,
		plate_appearances BIGINT NOT NULL,
		at_bats BIGINT NOT NULL,
		hits BIGINT NOT NULL,
		total_bases BIGINT NOT NULL,
		walks BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS hitter_summaries_run_id_idx ON hitter_summaries (run_id);
	CREATE TABLE IF NOT EXISTS hitter_failures (
		run_id UUID NOT NULL REFERENCES simulation_runs(id),
		avg DOUBLE PRECISION NOT NULL,
		obp DOUBLE PRECISION NOT NULL,
		slg DOUBLE PRECISION NOT NULL,
		reason TEXT NOT NULL
	);
`

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a connection pool sized for the worker count and verifies it.
func Connect(ctx context.Context, dbURL string, workers int) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	// Writes happen once per run and on progress ticks, so a small pool is enough.
	dbConfig.MaxConns = int32(max(4, workers/2))
	dbConfig.MinConns = 1
	dbConfig.MaxConnLifetime = time.Hour
	dbConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables the store needs if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO simulation_runs (id, status, total_hitters, completed_hitters, innings, seed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		run.ID,
		run.Status,
		run.TotalHitters,
		run.CompletedHitters,
		run.Innings,
		run.Seed,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateProgress(ctx context.Context, runID string, completed int) error {
	query := `
		UPDATE simulation_runs
		SET completed_hitters = $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, runID, completed)
	if isMalformedID(err) {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update progress for %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID, status string, completedAt time.Time) error {
	query := `
		UPDATE simulation_runs
		SET status = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, runID, status, completedAt)
	if isMalformedID(err) {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update run status for %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := `
		SELECT id, status, total_hitters, completed_hitters, innings, seed, created_at, completed_at
		FROM simulation_runs
		WHERE id = $1
	`
	var run Run
	err := s.db.QueryRow(ctx, query, runID).Scan(
		&run.ID,
		&run.Status,
		&run.TotalHitters,
		&run.CompletedHitters,
		&run.Innings,
		&run.Seed,
		&run.CreatedAt,
		&run.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return &run, nil
}

func (s *PostgresStore) SaveSummaries(ctx context.Context, runID string, summaries []models.HitterSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	rows := pgx.CopyFromSlice(len(summaries), func(i int) ([]any, error) {
		h := summaries[i]
		return []any{
			runID, h.AVG, h.OBP, h.SLG, h.NumInnings, h.Runs,
			h.Totals.PlateAppearances, h.Totals.AtBats, h.Totals.Hits, h.Totals.TotalBases, h.Totals.Walks,
		}, nil
	})
	if _, err := s.db.CopyFrom(ctx, pgx.Identifier{"hitter_summaries"}, summaryColumns, rows); err != nil {
		return fmt.Errorf("failed to store hitter summaries: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSummaries(ctx context.Context, runID string) ([]models.HitterSummary, error) {
	query := `
		SELECT avg, obp, slg, num_innings, runs,
		       plate_appearances, at_bats, hits, total_bases, walks
		FROM hitter_summaries
		WHERE run_id = $1
		ORDER BY obp, slg, avg
	`
	rows, err := s.db.Query(ctx, query, runID)
	if isMalformedID(err) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query hitter summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.HitterSummary{}
	for rows.Next() {
		var h models.HitterSummary
		if err := rows.Scan(
			&h.AVG, &h.OBP, &h.SLG, &h.NumInnings, &h.Runs,
			&h.Totals.PlateAppearances, &h.Totals.AtBats, &h.Totals.Hits, &h.Totals.TotalBases, &h.Totals.Walks,
		); err != nil {
			return nil, fmt.Errorf("failed to scan hitter summary: %w", err)
		}
		h.Totals.Runs = h.Runs
		summaries = append(summaries, h)
	}
	if err := rows.Err(); isMalformedID(err) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read hitter summaries: %w", err)
	}
	if len(summaries) == 0 {
		if err := s.checkRun(ctx, runID); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

func (s *PostgresStore) SaveFailures(ctx context.Context, runID string, failures []models.HitterFailure) error {
	if len(failures) == 0 {
		return nil
	}
	rows := pgx.CopyFromSlice(len(failures), func(i int) ([]any, error) {
		f := failures[i]
		return []any{runID, f.Profile.AVG, f.Profile.OBP, f.Profile.SLG, f.Reason}, nil
	})
	if _, err := s.db.CopyFrom(ctx, pgx.Identifier{"hitter_failures"}, failureColumns, rows); err != nil {
		return fmt.Errorf("failed to store hitter failures: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFailures(ctx context.Context, runID string) ([]models.HitterFailure, error) {
	query := `
		SELECT avg, obp, slg, reason
		FROM hitter_failures
		WHERE run_id = $1
		ORDER BY obp, slg, avg
	`
	rows, err := s.db.Query(ctx, query, runID)
	if isMalformedID(err) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query hitter failures: %w", err)
	}
	defer rows.Close()

	failures := []models.HitterFailure{}
	for rows.Next() {
		var f models.HitterFailure
		if err := rows.Scan(&f.Profile.AVG, &f.Profile.OBP, &f.Profile.SLG, &f.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan hitter failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); isMalformedID(err) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read hitter failures: %w", err)
	}
	if len(failures) == 0 {
		if err := s.checkRun(ctx, runID); err != nil {
			return nil, err
		}
	}
	return failures, nil
}

// checkRun returns ErrNotFound when no run has the given ID. Empty result
// lists use it to tell an unknown run from one with no rows.
func (s *PostgresStore) checkRun(ctx context.Context, runID string) error {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM simulation_runs WHERE id = $1)`, runID).Scan(&exists)
	if isMalformedID(err) {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check run %s: %w", runID, err)
	}
	if !exists {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
