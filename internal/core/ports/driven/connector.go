package driven

import (
	"context"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// SourceAdapter fetches measures from one external legislative source.
// Each source (congress, openstates, legistar) implements this interface.
type SourceAdapter interface {
	// Name returns the connector name used for run tracking.
	Name() string

	// Source returns the source system normalised records belong to.
	Source() domain.SourceSystem

	// Fetch returns one page of raw records starting at cursor.
	// An empty cursor starts from the beginning; an empty NextCursor in the
	// returned page means there is nothing more to fetch.
	// Pagination and request pacing are the adapter's concern.
	Fetch(ctx context.Context, cursor string) (domain.RawPage, error)

	// Normalize maps a raw record onto normalised measure fields.
	// Returns an error wrapping domain.ErrMalformedRecord when the record
	// lacks an identifier or title.
	Normalize(raw domain.RawRecord) (domain.NormalizedMeasure, error)

	// SourceLinks returns the attributed links for a raw record, primary first.
	SourceLinks(raw domain.RawRecord) []domain.MeasureSource

	// Close releases resources.
	Close() error
}

// RollCallSource fetches roll-call vote documents for one chamber.
type RollCallSource interface {
	// Chamber returns the chamber this source serves.
	Chamber() domain.RollCallChamber

	// Fetch retrieves and parses one roll-call document.
	// Returns domain.ErrNotFound when the document does not exist.
	Fetch(ctx context.Context, congress, session, sequence int) (*domain.RollCall, error)
}

// MemberSource lists the sitting members of a Congress.
type MemberSource interface {
	// Members returns current members with BioguideID set and ID empty.
	Members(ctx context.Context, congress int) ([]domain.Official, error)
}
