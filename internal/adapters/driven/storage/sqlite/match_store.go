package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// ==================== Match Store ====================

// matchStore implements driven.MatchStore.
type matchStore struct {
	store *Store
}

var _ driven.MatchStore = (*matchStore)(nil)

// UpsertMatch stores or replaces the result for (user, measure).
func (s *matchStore) UpsertMatch(ctx context.Context, m *domain.MatchResult) error {
	if m.ComputedAt.IsZero() {
		m.ComputedAt = s.store.now()
	}
	breakdown := m.Breakdown
	if breakdown == nil {
		breakdown = []domain.OfficialBreakdown{}
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("marshalling breakdown: %w", err)
	}

	var score any
	if m.Score != nil {
		score = *m.Score
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO match_results (user_id, measure_id, score, matches, comparable_total, breakdown, notes, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, measure_id) DO UPDATE SET
			score = excluded.score,
			matches = excluded.matches,
			comparable_total = excluded.comparable_total,
			breakdown = excluded.breakdown,
			notes = excluded.notes,
			computed_at = excluded.computed_at
	`, m.UserID, m.MeasureID, score, m.Matches, m.ComparableTotal, string(breakdownJSON),
		m.Notes, formatTime(m.ComputedAt))
	if err != nil {
		return fmt.Errorf("upserting match: %w", err)
	}
	return nil
}

// GetMatch retrieves the result for (user, measure).
func (s *matchStore) GetMatch(ctx context.Context, userID, measureID string) (*domain.MatchResult, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, measure_id, score, matches, comparable_total, breakdown, notes, computed_at
		FROM match_results WHERE user_id = ? AND measure_id = ?
	`, userID, measureID)
	return scanMatch(row)
}

// DeleteMatch removes the result for (user, measure).
func (s *matchStore) DeleteMatch(ctx context.Context, userID, measureID string) error {
	_, err := s.store.db.ExecContext(ctx,
		`DELETE FROM match_results WHERE user_id = ? AND measure_id = ?`, userID, measureID)
	if err != nil {
		return fmt.Errorf("deleting match: %w", err)
	}
	return nil
}

// ListMatches returns all results for a user, newest first.
func (s *matchStore) ListMatches(ctx context.Context, userID string) ([]domain.MatchResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT user_id, measure_id, score, matches, comparable_total, breakdown, notes, computed_at
		FROM match_results WHERE user_id = ?
		ORDER BY computed_at DESC, measure_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.MatchResult
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

// AlignmentTallies computes per-official match counts for a user in one
// set-based query over each official's latest comparable vote per measure
// and the user's yes/no positions.
func (s *matchStore) AlignmentTallies(ctx context.Context, userID string) ([]domain.AlignmentTally, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		WITH latest AS (
			SELECT ve.measure_id, ov.official_id, ov.value,
				`+latestVoteOrder+` AS rn
			FROM official_votes ov
			JOIN vote_events ve ON ve.id = ov.vote_event_id
			JOIN user_officials uo ON uo.official_id = ov.official_id
			WHERE uo.user_id = ? AND uo.active = 1
		),
		compared AS (
			SELECT l.official_id,
				CASE WHEN (uv.position = 'yes' AND l.value = 'yea')
					OR (uv.position = 'no' AND l.value = 'nay') THEN 1 ELSE 0 END AS matched
			FROM latest l
			JOIN user_votes uv ON uv.measure_id = l.measure_id AND uv.user_id = ?
			WHERE l.rn = 1
				AND l.value IN ('yea', 'nay', 'present', 'abstain')
				AND uv.position IN ('yes', 'no')
		)
		SELECT o.id, o.bioguide_id, o.lis_member_id, o.name, o.family_name, o.office, o.party, o.chamber,
			o.state, o.district_label, o.photo_url, o.updated_at,
			COALESCE(SUM(c.matched), 0), COUNT(c.official_id)
		FROM user_officials uo
		JOIN officials o ON o.id = uo.official_id
		LEFT JOIN compared c ON c.official_id = o.id
		WHERE uo.user_id = ? AND uo.active = 1
		GROUP BY o.id
		ORDER BY o.chamber, o.name, o.id
	`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying alignment tallies: %w", err)
	}
	defer rows.Close()

	var tallies []domain.AlignmentTally
	for rows.Next() {
		var t domain.AlignmentTally
		var bioguide, lis sql.NullString
		var chamber, updatedAt string
		if err := rows.Scan(&t.Official.ID, &bioguide, &lis, &t.Official.Name, &t.Official.FamilyName,
			&t.Official.Office, &t.Official.Party, &chamber, &t.Official.State, &t.Official.DistrictLabel,
			&t.Official.PhotoURL, &updatedAt, &t.Matches, &t.Total); err != nil {
			return nil, fmt.Errorf("scanning alignment tally: %w", err)
		}
		t.Official.BioguideID = bioguide.String
		t.Official.LISMemberID = lis.String
		t.Official.Chamber = domain.Chamber(chamber)
		if t.Official.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alignment tallies: %w", err)
	}
	return tallies, nil
}

func scanMatch(row scanner) (*domain.MatchResult, error) {
	var m domain.MatchResult
	var score sql.NullFloat64
	var breakdownJSON, computedAt string
	if err := row.Scan(&m.UserID, &m.MeasureID, &score, &m.Matches, &m.ComparableTotal,
		&breakdownJSON, &m.Notes, &computedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning match: %w", err)
	}
	if score.Valid {
		v := score.Float64
		m.Score = &v
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &m.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshalling breakdown: %w", err)
	}

	var err error
	if m.ComputedAt, err = parseTime(computedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
