package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [connector...]", ingestCmd.Use)
	assert.Equal(t, "Ingest measures from connectors", ingestCmd.Short)
}

func TestIngestCmd_AllConnectors(t *testing.T) {
	finished := time.Now()
	m := &mockIngestion{runs: []domain.IngestionRun{
		{Connector: "congress", Status: domain.RunSucceeded, FinishedAt: &finished,
			Stats: domain.RunStats{Fetched: 40, New: 3, Updated: 37}},
		{Connector: "legistar", Status: domain.RunSucceeded, FinishedAt: &finished},
	}}
	defer withServices(&Services{Ingestion: m})()

	out, err := execute("ingest")

	require.NoError(t, err)
	assert.Contains(t, out, "Ingesting from all connectors (congress, legistar)...")
	assert.Contains(t, out, "congress: succeeded (fetched 40, new 3, updated 37, unchanged 0, errors 0)")
	assert.Contains(t, out, "legistar: succeeded")
}

func TestIngestCmd_AllConnectorsReportsFailedRuns(t *testing.T) {
	m := &mockIngestion{
		runs: []domain.IngestionRun{
			{Connector: "congress", Status: domain.RunFailed, Error: "transient upstream failure"},
		},
		allErr: domain.ErrTransient,
	}
	defer withServices(&Services{Ingestion: m})()

	out, err := execute("ingest")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Contains(t, out, "congress: failed")
	assert.Contains(t, out, "error: transient upstream failure")
}

func TestIngestCmd_NamedConnectors(t *testing.T) {
	m := &mockIngestion{run: &domain.IngestionRun{Connector: "openstates", Status: domain.RunSucceeded}}
	defer withServices(&Services{Ingestion: m})()

	out, err := execute("ingest", "openstates", "legistar")

	require.NoError(t, err)
	assert.Equal(t, []string{"openstates", "legistar"}, m.ran)
	assert.Contains(t, out, "Ingesting from openstates...")
	assert.Contains(t, out, "Ingesting from legistar...")
}

func TestIngestCmd_RunInProgress(t *testing.T) {
	m := &mockIngestion{runErr: domain.ErrRunInProgress}
	defer withServices(&Services{Ingestion: m})()

	_, err := execute("ingest", "congress")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRunInProgress))
	assert.Contains(t, err.Error(), "ingestion of congress failed")
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	defer withServices(&Services{})()

	_, err := execute("ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion service not configured")
}
