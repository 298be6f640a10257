package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

func TestRunsCmd_ListsRuns(t *testing.T) {
	started := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)
	m := &mockIngestion{runs: []domain.IngestionRun{
		{Connector: "congress", Status: domain.RunSucceeded, StartedAt: started, FinishedAt: &finished,
			Stats: domain.RunStats{Fetched: 10, New: 2, Updated: 8}},
		{Connector: "congress", Status: domain.RunFailed, StartedAt: started, FinishedAt: &finished,
			Error: "missing credential"},
	}}
	defer withServices(&Services{Ingestion: m})()
	defer func() { runsLimit = 10 }()

	out, err := execute("runs", "congress", "--limit", "5")

	require.NoError(t, err)
	assert.Equal(t, "congress", m.listed)
	assert.Equal(t, 5, m.limit)
	assert.Contains(t, out, "2025-03-04T10:00:00Z")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "fetched=10 new=2 updated=8 errors=0")
	assert.Contains(t, out, "missing credential")
}

func TestRunsCmd_Empty(t *testing.T) {
	defer withServices(&Services{Ingestion: &mockIngestion{}})()

	out, err := execute("runs")

	require.NoError(t, err)
	assert.Contains(t, out, "No ingestion runs recorded.")
}

func TestRunsCmd_RunningRun(t *testing.T) {
	m := &mockIngestion{runs: []domain.IngestionRun{
		{Connector: "legistar", Status: domain.RunRunning, StartedAt: time.Now()},
	}}
	defer withServices(&Services{Ingestion: m})()

	out, err := execute("runs")

	require.NoError(t, err)
	assert.Empty(t, m.listed)
	assert.Contains(t, out, "running")
}
