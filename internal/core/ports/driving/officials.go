package driving

import "context"

// OfficialCatalog keeps the official directory current.
type OfficialCatalog interface {
	// Refresh upserts the sitting members of a Congress by bioguide ID.
	Refresh(ctx context.Context, congress int) (*RefreshStats, error)
}

// RefreshStats summarises a catalogue refresh.
type RefreshStats struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}
