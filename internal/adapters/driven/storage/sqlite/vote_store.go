package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// ==================== Vote Store ====================

// voteStore implements driven.VoteStore.
type voteStore struct {
	store *Store
}

var _ driven.VoteStore = (*voteStore)(nil)

// latestVoteOrder ranks an official's votes on a measure, most recent
// held vote event first. Events without a held time rank last.
const latestVoteOrder = `ROW_NUMBER() OVER (
		PARTITION BY ve.measure_id, ov.official_id
		ORDER BY ve.held_at IS NULL, ve.held_at DESC, ve.created_at DESC, ve.id DESC
	)`

// VoteEventExists reports whether an idempotency key has been ingested.
func (s *voteStore) VoteEventExists(ctx context.Context, idempotencyKey string) (bool, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vote_events WHERE idempotency_key = ?`, idempotencyKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking vote event: %w", err)
	}
	return n > 0, nil
}

// CreateVoteEvent inserts an event, its votes and identifier backfills atomically.
func (s *voteStore) CreateVoteEvent(ctx context.Context, event *domain.VoteEvent, votes []domain.OfficialVote, backfills []domain.IDBackfill) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Result == "" {
		event.Result = domain.ResultUnknown
	}
	event.CreatedAt = s.store.now()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO vote_events (id, measure_id, body, idempotency_key, scheduled_for, held_at, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING
	`, event.ID, event.MeasureID, event.Body, event.IdempotencyKey, nullTime(event.ScheduledFor),
		nullTime(event.HeldAt), string(event.Result), formatTime(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting vote event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("vote event %s: %w", event.IdempotencyKey, domain.ErrAlreadyExists)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO official_votes (vote_event_id, official_id, value)
		VALUES (?, ?, ?)
		ON CONFLICT(vote_event_id, official_id) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range votes {
		votes[i].VoteEventID = event.ID
		if _, err := stmt.ExecContext(ctx, event.ID, votes[i].OfficialID, string(votes[i].Value)); err != nil {
			return fmt.Errorf("inserting official vote: %w", err)
		}
	}

	for _, b := range backfills {
		var column string
		switch b.Kind {
		case domain.MemberIDLIS:
			column = "lis_member_id"
		case domain.MemberIDBioguide:
			column = "bioguide_id"
		default:
			return fmt.Errorf("backfill kind %q: %w", b.Kind, domain.ErrUnsupportedType)
		}
		// Only fills a missing identifier; a known one is never overwritten.
		if _, err := tx.ExecContext(ctx,
			`UPDATE officials SET `+column+` = ?, updated_at = ?
			 WHERE id = ? AND (`+column+` IS NULL OR `+column+` = '')`,
			b.Value, formatTime(event.CreatedAt), b.OfficialID); err != nil {
			return fmt.Errorf("backfilling %s: %w", column, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// VoteEventsForMeasure returns a measure's vote events, oldest first.
func (s *voteStore) VoteEventsForMeasure(ctx context.Context, measureID string) ([]domain.VoteEvent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, measure_id, body, idempotency_key, scheduled_for, held_at, result, created_at
		FROM vote_events WHERE measure_id = ?
		ORDER BY held_at IS NULL, held_at, created_at
	`, measureID)
	if err != nil {
		return nil, fmt.Errorf("querying vote events: %w", err)
	}
	defer rows.Close()

	var events []domain.VoteEvent
	for rows.Next() {
		var ev domain.VoteEvent
		var scheduledFor, heldAt sql.NullString
		var result, createdAt string
		if err := rows.Scan(&ev.ID, &ev.MeasureID, &ev.Body, &ev.IdempotencyKey,
			&scheduledFor, &heldAt, &result, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning vote event: %w", err)
		}
		ev.Result = domain.VoteResult(result)
		if ev.ScheduledFor, err = parseNullTime(scheduledFor); err != nil {
			return nil, err
		}
		if ev.HeldAt, err = parseNullTime(heldAt); err != nil {
			return nil, err
		}
		if ev.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vote events: %w", err)
	}
	return events, nil
}

// OfficialVotesForMeasure returns each official's latest vote on a measure.
func (s *voteStore) OfficialVotesForMeasure(ctx context.Context, measureID string) ([]domain.RecordedVote, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT official_id, vote_event_id, value, held_at FROM (
			SELECT ov.official_id, ov.vote_event_id, ov.value, ve.held_at,
				`+latestVoteOrder+` AS rn
			FROM official_votes ov
			JOIN vote_events ve ON ve.id = ov.vote_event_id
			WHERE ve.measure_id = ?
		)
		WHERE rn = 1
		ORDER BY official_id
	`, measureID)
	if err != nil {
		return nil, fmt.Errorf("querying official votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.RecordedVote
	for rows.Next() {
		var v domain.RecordedVote
		var value string
		var heldAt sql.NullString
		if err := rows.Scan(&v.OfficialID, &v.VoteEventID, &value, &heldAt); err != nil {
			return nil, fmt.Errorf("scanning official vote: %w", err)
		}
		v.Value = domain.VoteValue(value)
		if v.HeldAt, err = parseNullTime(heldAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating official votes: %w", err)
	}
	return votes, nil
}
