package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// Store is an in-memory canonical store. Every wrapper it hands out shares
// one lock so cross-entity operations (vote events with backfills,
// alignment tallies) see a consistent snapshot.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	measures       map[string]domain.Measure
	measureSources map[string][]domain.MeasureSource
	statusEvents   map[string][]domain.MeasureStatusEvent
	runs           map[string]domain.IngestionRun
	officials      map[string]domain.Official
	voteEvents     map[string]domain.VoteEvent
	eventKeys      map[string]string
	officialVotes  map[string][]domain.OfficialVote
	userVotes      map[string]map[string]domain.UserVote
	userOfficials  map[string]map[string]domain.UserOfficial
	matches        map[string]map[string]domain.MatchResult
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		now:            func() time.Time { return time.Now().UTC() },
		measures:       make(map[string]domain.Measure),
		measureSources: make(map[string][]domain.MeasureSource),
		statusEvents:   make(map[string][]domain.MeasureStatusEvent),
		runs:           make(map[string]domain.IngestionRun),
		officials:      make(map[string]domain.Official),
		voteEvents:     make(map[string]domain.VoteEvent),
		eventKeys:      make(map[string]string),
		officialVotes:  make(map[string][]domain.OfficialVote),
		userVotes:      make(map[string]map[string]domain.UserVote),
		userOfficials:  make(map[string]map[string]domain.UserOfficial),
		matches:        make(map[string]map[string]domain.MatchResult),
	}
}

// SetClock overrides the store's time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// MeasureStore returns a MeasureStore interface backed by this store.
func (s *Store) MeasureStore() driven.MeasureStore { return &MeasureStore{s: s} }

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore { return &RunStore{s: s} }

// OfficialStore returns an OfficialStore interface backed by this store.
func (s *Store) OfficialStore() driven.OfficialStore { return &OfficialStore{s: s} }

// VoteStore returns a VoteStore interface backed by this store.
func (s *Store) VoteStore() driven.VoteStore { return &VoteStore{s: s} }

// UserStore returns a UserStore interface backed by this store.
func (s *Store) UserStore() driven.UserStore { return &UserStore{s: s} }

// MatchStore returns a MatchStore interface backed by this store.
func (s *Store) MatchStore() driven.MatchStore { return &MatchStore{s: s} }

func newID() string {
	return uuid.New().String()
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyMeasure(m domain.Measure) domain.Measure {
	m.IntroducedAt = copyTime(m.IntroducedAt)
	m.ScheduledFor = copyTime(m.ScheduledFor)
	m.TopicTags = slices.Clone(m.TopicTags)
	return m
}

func copyMatch(m domain.MatchResult) domain.MatchResult {
	if m.Score != nil {
		v := *m.Score
		m.Score = &v
	}
	m.Breakdown = slices.Clone(m.Breakdown)
	return m
}

// latestVotes returns each official's latest vote on a measure, ranked the
// same way as the SQLite store. Caller must hold the lock.
func (s *Store) latestVotes(measureID string) map[string]domain.RecordedVote {
	latest := make(map[string]domain.RecordedVote)
	best := make(map[string]domain.VoteEvent)
	for _, ev := range s.voteEvents {
		if ev.MeasureID != measureID {
			continue
		}
		for _, v := range s.officialVotes[ev.ID] {
			prev, ok := best[v.OfficialID]
			if ok && !laterEvent(ev, prev) {
				continue
			}
			best[v.OfficialID] = ev
			latest[v.OfficialID] = domain.RecordedVote{
				OfficialID:  v.OfficialID,
				VoteEventID: ev.ID,
				Value:       v.Value,
				HeldAt:      copyTime(ev.HeldAt),
			}
		}
	}
	return latest
}

// laterEvent orders vote events: held before unheld, later held time,
// later creation, higher ID.
func laterEvent(a, b domain.VoteEvent) bool {
	switch {
	case a.HeldAt != nil && b.HeldAt == nil:
		return true
	case a.HeldAt == nil && b.HeldAt != nil:
		return false
	case a.HeldAt != nil && !a.HeldAt.Equal(*b.HeldAt):
		return a.HeldAt.After(*b.HeldAt)
	case !a.CreatedAt.Equal(b.CreatedAt):
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
