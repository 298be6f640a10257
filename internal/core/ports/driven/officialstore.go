package driven

import (
	"context"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// OfficialStore persists elected officials.
type OfficialStore interface {
	// Get retrieves an official by ID.
	Get(ctx context.Context, id string) (*domain.Official, error)

	// Save stores or updates an official by ID. Assigns the ID when empty.
	Save(ctx context.Context, o *domain.Official) error

	// FindByBioguideID retrieves an official by bioguide ID.
	FindByBioguideID(ctx context.Context, bioguideID string) (*domain.Official, error)

	// ListByChamber returns all officials sitting in a chamber.
	ListByChamber(ctx context.Context, chamber domain.Chamber) ([]domain.Official, error)

	// UpsertByBioguideID refreshes the official with the same bioguide ID in
	// place, or creates it. A known LIS member ID is never cleared.
	// Reports whether a new official was created.
	UpsertByBioguideID(ctx context.Context, o *domain.Official) (bool, error)

	// SetLISMemberID records an official's Senate LIS identifier.
	SetLISMemberID(ctx context.Context, officialID, lisMemberID string) error
}
