package driving

import (
	"context"
	"time"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// RollCallIngestor turns roll-call documents into vote events.
type RollCallIngestor interface {
	// IngestDocument ingests one parsed roll-call document.
	IngestDocument(ctx context.Context, rc *domain.RollCall) (domain.RollCallResult, error)

	// IngestChamber sweeps a chamber's roll calls for one session.
	IngestChamber(ctx context.Context, chamber domain.RollCallChamber, opts RollCallOptions) (domain.RollCallStats, error)
}

// RollCallOptions bounds a chamber sweep.
type RollCallOptions struct {
	Congress int
	Session  int

	// Start is the first sequence number, defaults to 1.
	Start int

	// MaxConsecutiveMissing stops the sweep after this many consecutive
	// missing documents, defaults to 5.
	MaxConsecutiveMissing int

	// Delay is the minimum interval between document requests.
	Delay time.Duration

	// MaxDocuments caps the sweep; 0 means no cap.
	MaxDocuments int
}
