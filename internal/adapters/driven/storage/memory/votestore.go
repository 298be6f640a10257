package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// Ensure VoteStore implements the interface.
var _ driven.VoteStore = (*VoteStore)(nil)

// VoteStore is an in-memory implementation of driven.VoteStore.
type VoteStore struct {
	s *Store
}

// VoteEventExists reports whether an idempotency key has been ingested.
func (v *VoteStore) VoteEventExists(_ context.Context, idempotencyKey string) (bool, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	_, ok := v.s.eventKeys[idempotencyKey]
	return ok, nil
}

// CreateVoteEvent inserts an event, its votes and backfills atomically.
func (v *VoteStore) CreateVoteEvent(_ context.Context, event *domain.VoteEvent, votes []domain.OfficialVote, backfills []domain.IDBackfill) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if _, ok := v.s.eventKeys[event.IdempotencyKey]; ok {
		return fmt.Errorf("vote event %s: %w", event.IdempotencyKey, domain.ErrAlreadyExists)
	}
	if _, ok := v.s.measures[event.MeasureID]; !ok {
		return fmt.Errorf("vote event measure %s: %w", event.MeasureID, domain.ErrNotFound)
	}
	for _, vote := range votes {
		if _, ok := v.s.officials[vote.OfficialID]; !ok {
			return fmt.Errorf("vote official %s: %w", vote.OfficialID, domain.ErrNotFound)
		}
	}
	for _, b := range backfills {
		if b.Kind != domain.MemberIDLIS && b.Kind != domain.MemberIDBioguide {
			return fmt.Errorf("backfill kind %q: %w", b.Kind, domain.ErrUnsupportedType)
		}
	}

	if event.ID == "" {
		event.ID = newID()
	}
	if event.Result == "" {
		event.Result = domain.ResultUnknown
	}
	event.CreatedAt = v.s.now()

	stored := *event
	stored.HeldAt = copyTime(event.HeldAt)
	stored.ScheduledFor = copyTime(event.ScheduledFor)
	v.s.voteEvents[event.ID] = stored
	v.s.eventKeys[event.IdempotencyKey] = event.ID

	byOfficial := make(map[string]int, len(votes))
	var rows []domain.OfficialVote
	for i := range votes {
		votes[i].VoteEventID = event.ID
		if idx, ok := byOfficial[votes[i].OfficialID]; ok {
			rows[idx] = votes[i]
			continue
		}
		byOfficial[votes[i].OfficialID] = len(rows)
		rows = append(rows, votes[i])
	}
	v.s.officialVotes[event.ID] = rows

	for _, b := range backfills {
		official, ok := v.s.officials[b.OfficialID]
		if !ok {
			continue
		}
		switch b.Kind {
		case domain.MemberIDLIS:
			if official.LISMemberID == "" {
				official.LISMemberID = b.Value
			}
		case domain.MemberIDBioguide:
			if official.BioguideID == "" {
				official.BioguideID = b.Value
			}
		}
		v.s.officials[b.OfficialID] = official
	}
	return nil
}

// VoteEventsForMeasure returns a measure's vote events, oldest first.
func (v *VoteStore) VoteEventsForMeasure(_ context.Context, measureID string) ([]domain.VoteEvent, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []domain.VoteEvent
	for _, ev := range v.s.voteEvents {
		if ev.MeasureID == measureID {
			ev.HeldAt = copyTime(ev.HeldAt)
			ev.ScheduledFor = copyTime(ev.ScheduledFor)
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.HeldAt == nil) != (b.HeldAt == nil) {
			return a.HeldAt != nil
		}
		if a.HeldAt != nil && !a.HeldAt.Equal(*b.HeldAt) {
			return a.HeldAt.Before(*b.HeldAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

// OfficialVotesForMeasure returns each official's latest vote on a measure.
func (v *VoteStore) OfficialVotesForMeasure(_ context.Context, measureID string) ([]domain.RecordedVote, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	latest := v.s.latestVotes(measureID)
	out := make([]domain.RecordedVote, 0, len(latest))
	for _, rv := range latest {
		out = append(out, rv)
	}
	slices.SortFunc(out, func(a, b domain.RecordedVote) int {
		return strings.Compare(a.OfficialID, b.OfficialID)
	})
	return out, nil
}
