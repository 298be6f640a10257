package memory

import (
	"context"
	"sort"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// Ensure MatchStore implements the interface.
var _ driven.MatchStore = (*MatchStore)(nil)

// MatchStore is an in-memory implementation of driven.MatchStore.
type MatchStore struct {
	s *Store
}

// UpsertMatch stores or replaces the result for (user, measure).
func (m *MatchStore) UpsertMatch(_ context.Context, result *domain.MatchResult) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if result.ComputedAt.IsZero() {
		result.ComputedAt = m.s.now()
	}
	byMeasure, ok := m.s.matches[result.UserID]
	if !ok {
		byMeasure = make(map[string]domain.MatchResult)
		m.s.matches[result.UserID] = byMeasure
	}
	byMeasure[result.MeasureID] = copyMatch(*result)
	return nil
}

// GetMatch retrieves the result for (user, measure).
func (m *MatchStore) GetMatch(_ context.Context, userID, measureID string) (*domain.MatchResult, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	result, ok := m.s.matches[userID][measureID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyMatch(result)
	return &c, nil
}

// DeleteMatch removes the result for (user, measure).
func (m *MatchStore) DeleteMatch(_ context.Context, userID, measureID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.matches[userID], measureID)
	return nil
}

// ListMatches returns all results for a user, newest first.
func (m *MatchStore) ListMatches(_ context.Context, userID string) ([]domain.MatchResult, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []domain.MatchResult
	for _, result := range m.s.matches[userID] {
		out = append(out, copyMatch(result))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ComputedAt.Equal(out[j].ComputedAt) {
			return out[i].ComputedAt.After(out[j].ComputedAt)
		}
		return out[i].MeasureID < out[j].MeasureID
	})
	return out, nil
}

// AlignmentTallies computes per-official match counts for a user's active
// officials over each official's latest comparable vote per measure.
func (m *MatchStore) AlignmentTallies(_ context.Context, userID string) ([]domain.AlignmentTally, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	officials := m.s.activeOfficials(userID)
	tallies := make([]domain.AlignmentTally, len(officials))
	index := make(map[string]int, len(officials))
	for i, o := range officials {
		tallies[i].Official = o
		index[o.ID] = i
	}

	for measureID, byUser := range m.s.userVotes {
		uv, ok := byUser[userID]
		if !ok || (uv.Position != domain.PositionYes && uv.Position != domain.PositionNo) {
			continue
		}
		for officialID, rv := range m.s.latestVotes(measureID) {
			i, ok := index[officialID]
			if !ok || !rv.Value.Comparable() {
				continue
			}
			tallies[i].Total++
			if uv.Position.Matches(rv.Value) {
				tallies[i].Matches++
			}
		}
	}
	return tallies, nil
}
