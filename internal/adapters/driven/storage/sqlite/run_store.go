package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, connector, status, started_at, finished_at,
	fetched, new_count, updated, unchanged, errors, error`

// Start creates a running run record. The partial unique index on running
// runs makes this refuse while the connector already has one, whichever
// process started it.
func (s *runStore) Start(ctx context.Context, connector string) (*domain.IngestionRun, error) {
	run := &domain.IngestionRun{
		ID:        uuid.New().String(),
		Connector: connector,
		Status:    domain.RunRunning,
		StartedAt: s.store.now(),
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs (id, connector, status, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Connector, string(run.Status), formatTime(run.StartedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("connector %s: %w", connector, domain.ErrRunInProgress)
		}
		return nil, fmt.Errorf("starting run: %w", err)
	}
	return run, nil
}

// Finish writes the final state of a running run in one statement.
func (s *runStore) Finish(ctx context.Context, run *domain.IngestionRun) error {
	if run.FinishedAt == nil {
		now := s.store.now()
		run.FinishedAt = &now
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE ingestion_runs SET
			status = ?, finished_at = ?, fetched = ?, new_count = ?, updated = ?,
			unchanged = ?, errors = ?, error = ?
		WHERE id = ? AND status = ?
	`, string(run.Status), formatTime(*run.FinishedAt), run.Stats.Fetched, run.Stats.New,
		run.Stats.Updated, run.Stats.Unchanged, run.Stats.Errors, run.Error,
		run.ID, string(domain.RunRunning))
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("running run %s: %w", run.ID, domain.ErrNotFound)
	}
	return nil
}

// FailStale force-fails running runs started before olderThan.
func (s *runStore) FailStale(ctx context.Context, connector string, olderThan time.Time, reason string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE ingestion_runs SET status = ?, finished_at = ?, error = ?
		WHERE connector = ? AND status = ? AND started_at < ?
	`, string(domain.RunFailed), formatTime(s.store.now()), reason,
		connector, string(domain.RunRunning), formatTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("failing stale runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting stale runs: %w", err)
	}
	return int(n), nil
}

// List returns runs newest first.
func (s *runStore) List(ctx context.Context, connector string, limit int) ([]domain.IngestionRun, error) {
	query := `SELECT ` + runColumns + ` FROM ingestion_runs`
	var args []any
	if connector != "" {
		query += ` WHERE connector = ?`
		args = append(args, connector)
	}
	query += ` ORDER BY started_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.IngestionRun, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM ingestion_runs WHERE id = ?`, id)
	return scanRun(row)
}

func scanRun(row scanner) (*domain.IngestionRun, error) {
	var run domain.IngestionRun
	var status, startedAt string
	var finishedAt sql.NullString
	if err := row.Scan(&run.ID, &run.Connector, &status, &startedAt, &finishedAt,
		&run.Stats.Fetched, &run.Stats.New, &run.Stats.Updated, &run.Stats.Unchanged,
		&run.Stats.Errors, &run.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = domain.RunStatus(status)

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseNullTime(finishedAt); err != nil {
		return nil, err
	}
	return &run, nil
}
