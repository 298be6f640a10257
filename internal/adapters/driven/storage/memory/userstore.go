package memory

import (
	"context"
	"sort"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// Ensure UserStore implements the interface.
var _ driven.UserStore = (*UserStore)(nil)

// UserStore is an in-memory implementation of driven.UserStore.
type UserStore struct {
	s *Store
}

// RecordVote stores or replaces a user's position on a measure.
func (u *UserStore) RecordVote(_ context.Context, vote domain.UserVote) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	byUser, ok := u.s.userVotes[vote.MeasureID]
	if !ok {
		byUser = make(map[string]domain.UserVote)
		u.s.userVotes[vote.MeasureID] = byUser
	}
	if prev, ok := byUser[vote.UserID]; ok {
		vote.CreatedAt = prev.CreatedAt
	} else if vote.CreatedAt.IsZero() {
		vote.CreatedAt = u.s.now()
	}
	byUser[vote.UserID] = vote
	return nil
}

// UserVotesForMeasure returns every user position on a measure.
func (u *UserStore) UserVotesForMeasure(_ context.Context, measureID string) ([]domain.UserVote, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	var out []domain.UserVote
	for _, v := range u.s.userVotes[measureID] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// SetActiveOfficials replaces the user's active official links.
func (u *UserStore) SetActiveOfficials(_ context.Context, userID string, officialIDs []string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	links, ok := u.s.userOfficials[userID]
	if !ok {
		links = make(map[string]domain.UserOfficial)
		u.s.userOfficials[userID] = links
	}
	for id, link := range links {
		link.Active = false
		links[id] = link
	}
	now := u.s.now()
	for _, id := range officialIDs {
		links[id] = domain.UserOfficial{UserID: userID, OfficialID: id, Active: true, DerivedAt: now}
	}
	return nil
}

// ActiveOfficials returns the officials actively linked to a user.
func (u *UserStore) ActiveOfficials(_ context.Context, userID string) ([]domain.Official, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	return u.s.activeOfficials(userID), nil
}

// activeOfficials lists a user's active officials. Caller must hold the lock.
func (s *Store) activeOfficials(userID string) []domain.Official {
	var out []domain.Official
	for id, link := range s.userOfficials[userID] {
		if !link.Active {
			continue
		}
		if official, ok := s.officials[id]; ok {
			out = append(out, official)
		}
	}
	sortOfficialsByChamber(out)
	return out
}
