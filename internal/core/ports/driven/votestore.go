package driven

import (
	"context"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// VoteStore persists vote events and the official votes cast in them.
type VoteStore interface {
	// VoteEventExists reports whether an idempotency key has been ingested.
	VoteEventExists(ctx context.Context, idempotencyKey string) (bool, error)

	// CreateVoteEvent inserts an event, its official votes and any learned
	// identifier backfills in one transaction. A duplicate idempotency key
	// returns domain.ErrAlreadyExists and writes nothing.
	CreateVoteEvent(ctx context.Context, event *domain.VoteEvent, votes []domain.OfficialVote, backfills []domain.IDBackfill) error

	// VoteEventsForMeasure returns a measure's vote events, oldest first.
	VoteEventsForMeasure(ctx context.Context, measureID string) ([]domain.VoteEvent, error)

	// OfficialVotesForMeasure returns each official's latest vote across all
	// vote events of a measure.
	OfficialVotesForMeasure(ctx context.Context, measureID string) ([]domain.RecordedVote, error)
}

// UserStore persists user positions and user/official links.
type UserStore interface {
	// RecordVote stores or replaces a user's position on a measure.
	RecordVote(ctx context.Context, vote domain.UserVote) error

	// UserVotesForMeasure returns every user position on a measure.
	UserVotesForMeasure(ctx context.Context, measureID string) ([]domain.UserVote, error)

	// SetActiveOfficials deactivates the user's existing links and activates
	// exactly the given officials.
	SetActiveOfficials(ctx context.Context, userID string, officialIDs []string) error

	// ActiveOfficials returns the officials actively linked to a user.
	ActiveOfficials(ctx context.Context, userID string) ([]domain.Official, error)
}

// MatchStore persists match results and answers alignment aggregates.
type MatchStore interface {
	// UpsertMatch stores or replaces the result for (user, measure).
	UpsertMatch(ctx context.Context, m *domain.MatchResult) error

	// GetMatch retrieves the result for (user, measure).
	GetMatch(ctx context.Context, userID, measureID string) (*domain.MatchResult, error)

	// DeleteMatch removes the result for (user, measure). Missing results
	// are not an error.
	DeleteMatch(ctx context.Context, userID, measureID string) error

	// ListMatches returns all results for a user, newest first.
	ListMatches(ctx context.Context, userID string) ([]domain.MatchResult, error)

	// AlignmentTallies returns, for each of the user's active officials, how
	// many of the official's comparable latest votes matched the user's yes/no
	// positions. Officials with no comparable votes are included with zero
	// counts.
	AlignmentTallies(ctx context.Context, userID string) ([]domain.AlignmentTally, error)
}
