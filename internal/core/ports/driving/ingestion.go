package driving

import (
	"context"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// IngestionOrchestrator coordinates measure ingestion from registered sources.
type IngestionOrchestrator interface {
	// Run executes one ingestion run for a connector and returns its final
	// record. A concurrent run of the same connector returns
	// domain.ErrRunInProgress.
	Run(ctx context.Context, connector string) (*domain.IngestionRun, error)

	// RunAll runs every registered connector concurrently.
	RunAll(ctx context.Context) ([]domain.IngestionRun, error)

	// Status returns live progress for a connector.
	Status(ctx context.Context, connector string) (*RunStatus, error)

	// Connectors lists registered connector names.
	Connectors() []string

	// Runs returns recent runs, newest first. An empty connector lists all.
	Runs(ctx context.Context, connector string, limit int) ([]domain.IngestionRun, error)
}

// RunStatus represents the current state of a connector's ingestion.
type RunStatus struct {
	// Connector identifies the connector.
	Connector string

	// Running indicates if a run is currently in progress.
	Running bool

	// RunID is the in-progress run, empty when idle.
	RunID string

	// Stats are the counters so far.
	Stats domain.RunStats
}
