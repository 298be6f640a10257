package driven

import (
	"context"
	"time"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// MeasureStore persists measures, their source links and status timeline.
type MeasureStore interface {
	// Get retrieves a measure by ID.
	Get(ctx context.Context, id string) (*domain.Measure, error)

	// FindByExternalID retrieves a measure by its source identity.
	// Returns domain.ErrNotFound when absent.
	FindByExternalID(ctx context.Context, source domain.SourceSystem, externalID string) (*domain.Measure, error)

	// FindByCanonicalKey retrieves a measure by canonical key.
	// Returns domain.ErrNotFound when absent.
	FindByCanonicalKey(ctx context.Context, key string) (*domain.Measure, error)

	// Insert creates a measure together with its primary source link in one
	// transaction. Assigns the measure ID when empty.
	Insert(ctx context.Context, m *domain.Measure, primary *domain.MeasureSource) error

	// Update writes changed measure fields. A non-nil status event is
	// appended to the timeline in the same transaction.
	Update(ctx context.Context, m *domain.Measure, event *domain.MeasureStatusEvent) error

	// List returns measures, newest update first. An empty source lists all.
	List(ctx context.Context, source domain.SourceSystem, limit int) ([]domain.Measure, error)

	// Sources returns the links attached to a measure, primary first.
	Sources(ctx context.Context, measureID string) ([]domain.MeasureSource, error)

	// StatusEvents returns the status timeline of a measure, oldest first.
	StatusEvents(ctx context.Context, measureID string) ([]domain.MeasureStatusEvent, error)

	// Count returns the number of stored measures.
	Count(ctx context.Context) (int, error)
}

// RunStore persists the ingestion run audit trail.
type RunStore interface {
	// Start creates a running run record for a connector.
	Start(ctx context.Context, connector string) (*domain.IngestionRun, error)

	// Finish writes final status, stats, error and finish time in one
	// statement. Returns domain.ErrNotFound when the run is not running.
	Finish(ctx context.Context, run *domain.IngestionRun) error

	// FailStale force-fails runs of a connector that started before
	// olderThan and are still running. Returns the number failed.
	FailStale(ctx context.Context, connector string, olderThan time.Time, reason string) (int, error)

	// List returns runs newest first. An empty connector lists all.
	List(ctx context.Context, connector string, limit int) ([]domain.IngestionRun, error)

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.IngestionRun, error)
}
