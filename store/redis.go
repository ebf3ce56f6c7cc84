package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/baseball-sim/run-expectancy/models"
)

// CachedStore wraps a primary Store with a Redis read-through cache. Only
// finished runs are cached since their results never change afterwards.
// Writes go to the primary store and invalidate the cache.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// --- Writes go to the primary ---

func (s *CachedStore) CreateRun(ctx context.Context, run *Run) error {
	return s.primary.CreateRun(ctx, run)
}

func (s *CachedStore) UpdateProgress(ctx context.Context, runID string, completed int) error {
	return s.primary.UpdateProgress(ctx, runID, completed)
}

func (s *CachedStore) CompleteRun(ctx context.Context, runID, status string, completedAt time.Time) error {
	if err := s.primary.CompleteRun(ctx, runID, status, completedAt); err != nil {
		return err
	}
	s.rdb.Del(ctx, runKey(runID))
	return nil
}

func (s *CachedStore) SaveSummaries(ctx context.Context, runID string, summaries []models.HitterSummary) error {
	if err := s.primary.SaveSummaries(ctx, runID, summaries); err != nil {
		return err
	}
	s.rdb.Del(ctx, summariesKey(runID))
	return nil
}

func (s *CachedStore) SaveFailures(ctx context.Context, runID string, failures []models.HitterFailure) error {
	if err := s.primary.SaveFailures(ctx, runID, failures); err != nil {
		return err
	}
	s.rdb.Del(ctx, failuresKey(runID))
	return nil
}

// --- Read-through ---

func (s *CachedStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var cached Run
	if s.load(ctx, runKey(runID), &cached) {
		return &cached, nil
	}

	run, err := s.primary.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if IsTerminal(run.Status) {
		s.save(ctx, runKey(runID), run)
	}
	return run, nil
}

func (s *CachedStore) ListSummaries(ctx context.Context, runID string) ([]models.HitterSummary, error) {
	var cached []models.HitterSummary
	if s.load(ctx, summariesKey(runID), &cached) {
		return cached, nil
	}

	summaries, err := s.primary.ListSummaries(ctx, runID)
	if err != nil {
		return nil, err
	}
	if s.finished(ctx, runID) {
		s.save(ctx, summariesKey(runID), summaries)
	}
	return summaries, nil
}

func (s *CachedStore) ListFailures(ctx context.Context, runID string) ([]models.HitterFailure, error) {
	var cached []models.HitterFailure
	if s.load(ctx, failuresKey(runID), &cached) {
		return cached, nil
	}

	failures, err := s.primary.ListFailures(ctx, runID)
	if err != nil {
		return nil, err
	}
	if s.finished(ctx, runID) {
		s.save(ctx, failuresKey(runID), failures)
	}
	return failures, nil
}

// Ping checks the primary only. A missing cache degrades to primary reads.
func (s *CachedStore) Ping(ctx context.Context) error {
	return s.primary.Ping(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) finished(ctx context.Context, runID string) bool {
	run, err := s.GetRun(ctx, runID)
	return err == nil && IsTerminal(run.Status)
}

func (s *CachedStore) load(ctx context.Context, key string, dest any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *CachedStore) save(ctx context.Context, key string, value any) {
	if data, err := json.Marshal(value); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func runKey(id string) string       { return fmt.Sprintf("run:%s", id) }
func summariesKey(id string) string { return fmt.Sprintf("run:%s:summaries", id) }
func failuresKey(id string) string  { return fmt.Sprintf("run:%s:failures", id) }
