package domain

import "time"

// RunStatus is the state of an ingestion run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunStats summarises the records a run processed.
type RunStats struct {
	Fetched int `json:"fetched"`
	New     int `json:"new"`
	Updated int `json:"updated"`

	// Unchanged counts updated records whose fields did not drift.
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
}

// IngestionRun is the append-only audit record of one connector run.
// Once finished it is never mutated.
type IngestionRun struct {
	ID         string
	Connector  string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Stats      RunStats
	Error      string
}

// Finished reports whether the run has left the running state.
func (r *IngestionRun) Finished() bool {
	return r.Status != RunRunning
}
