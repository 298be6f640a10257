package driving

import (
	"context"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// AlignmentService scores how users' positions align with their officials.
type AlignmentService interface {
	// ComputeForMeasure recomputes match results for every user who took a
	// yes/no position on the measure. Returns the number of results written.
	ComputeForMeasure(ctx context.Context, measureID string) (int, error)

	// UserAlignment returns the user's aggregate alignment.
	UserAlignment(ctx context.Context, userID string) (*domain.AlignmentSummary, error)

	// Representatives returns the user's active officials with alignment.
	Representatives(ctx context.Context, userID string) ([]domain.OfficialAlignment, error)

	// RecordUserVote stores a user's position on a measure.
	RecordUserVote(ctx context.Context, userID, measureID string, position domain.UserPosition) error

	// SetActiveOfficials replaces the officials representing a user.
	SetActiveOfficials(ctx context.Context, userID string, officialIDs []string) error
}
