package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	s *Store
}

// Start creates a running run record, refusing while the connector already
// has one.
func (r *RunStore) Start(_ context.Context, connector string) (*domain.IngestionRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.runs {
		if existing.Connector == connector && existing.Status == domain.RunRunning {
			return nil, fmt.Errorf("connector %s: %w", connector, domain.ErrRunInProgress)
		}
	}
	run := domain.IngestionRun{
		ID:        newID(),
		Connector: connector,
		Status:    domain.RunRunning,
		StartedAt: r.s.now(),
	}
	r.s.runs[run.ID] = run
	return &run, nil
}

// Finish writes the final state of a running run.
func (r *RunStore) Finish(_ context.Context, run *domain.IngestionRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.runs[run.ID]
	if !ok || stored.Status != domain.RunRunning {
		return fmt.Errorf("running run %s: %w", run.ID, domain.ErrNotFound)
	}
	if run.FinishedAt == nil {
		now := r.s.now()
		run.FinishedAt = &now
	}
	stored.Status = run.Status
	stored.FinishedAt = copyTime(run.FinishedAt)
	stored.Stats = run.Stats
	stored.Error = run.Error
	r.s.runs[run.ID] = stored
	return nil
}

// FailStale force-fails running runs started before olderThan.
func (r *RunStore) FailStale(_ context.Context, connector string, olderThan time.Time, reason string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, run := range r.s.runs {
		if run.Connector != connector || run.Status != domain.RunRunning || !run.StartedAt.Before(olderThan) {
			continue
		}
		now := r.s.now()
		run.Status = domain.RunFailed
		run.FinishedAt = &now
		run.Error = reason
		r.s.runs[id] = run
		n++
	}
	return n, nil
}

// List returns runs newest first.
func (r *RunStore) List(_ context.Context, connector string, limit int) ([]domain.IngestionRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.IngestionRun
	for _, run := range r.s.runs {
		if connector != "" && run.Connector != connector {
			continue
		}
		run.FinishedAt = copyTime(run.FinishedAt)
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get retrieves a run by ID.
func (r *RunStore) Get(_ context.Context, id string) (*domain.IngestionRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	run, ok := r.s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	run.FinishedAt = copyTime(run.FinishedAt)
	return &run, nil
}
