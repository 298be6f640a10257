package sqlite

import (
	"context"
	"fmt"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// ==================== User Store ====================

// userStore implements driven.UserStore.
type userStore struct {
	store *Store
}

var _ driven.UserStore = (*userStore)(nil)

// RecordVote stores or replaces a user's position on a measure.
func (s *userStore) RecordVote(ctx context.Context, vote domain.UserVote) error {
	now := s.store.now()
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = now
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO user_votes (user_id, measure_id, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, measure_id) DO UPDATE SET
			position = excluded.position,
			updated_at = excluded.updated_at
	`, vote.UserID, vote.MeasureID, string(vote.Position), formatTime(vote.CreatedAt), formatTime(now))
	if err != nil {
		return fmt.Errorf("recording user vote: %w", err)
	}
	return nil
}

// UserVotesForMeasure returns every user position on a measure.
func (s *userStore) UserVotesForMeasure(ctx context.Context, measureID string) ([]domain.UserVote, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT user_id, measure_id, position, created_at
		FROM user_votes WHERE measure_id = ?
		ORDER BY user_id
	`, measureID)
	if err != nil {
		return nil, fmt.Errorf("querying user votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.UserVote
	for rows.Next() {
		var v domain.UserVote
		var position, createdAt string
		if err := rows.Scan(&v.UserID, &v.MeasureID, &position, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning user vote: %w", err)
		}
		v.Position = domain.UserPosition(position)
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user votes: %w", err)
	}
	return votes, nil
}

// SetActiveOfficials replaces the user's active official links.
func (s *userStore) SetActiveOfficials(ctx context.Context, userID string, officialIDs []string) error {
	now := formatTime(s.store.now())

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE user_officials SET active = 0 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deactivating officials: %w", err)
	}

	for _, id := range officialIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_officials (user_id, official_id, active, derived_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(user_id, official_id) DO UPDATE SET
				active = 1,
				derived_at = excluded.derived_at
		`, userID, id, now); err != nil {
			return fmt.Errorf("activating official %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ActiveOfficials returns the officials actively linked to a user.
func (s *userStore) ActiveOfficials(ctx context.Context, userID string) ([]domain.Official, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT o.id, o.bioguide_id, o.lis_member_id, o.name, o.family_name, o.office, o.party, o.chamber,
			o.state, o.district_label, o.photo_url, o.updated_at
		FROM user_officials uo
		JOIN officials o ON o.id = uo.official_id
		WHERE uo.user_id = ? AND uo.active = 1
		ORDER BY o.chamber, o.name, o.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying active officials: %w", err)
	}
	defer rows.Close()
	return scanOfficials(rows)
}
