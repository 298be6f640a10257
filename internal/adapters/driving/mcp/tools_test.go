package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Ingestion == nil {
		ports.Ingestion = &mockIngestion{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleRunIngestion(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("runs a single connector", func(t *testing.T) {
		ingestion := &mockIngestion{
			run: &domain.IngestionRun{
				ID:        "run-1",
				Connector: "congress",
				Status:    domain.RunSucceeded,
				StartedAt: started,
				Stats:     domain.RunStats{Fetched: 3, New: 2, Updated: 1, Unchanged: 1},
			},
		}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		_, output, err := server.handleRunIngestion(ctx, nil, RunIngestionInput{Connector: "congress"})

		require.NoError(t, err)
		assert.Equal(t, "congress", ingestion.lastRun)
		require.Len(t, output.Runs, 1)
		assert.Equal(t, "run-1", output.Runs[0].RunID)
		assert.Equal(t, "succeeded", output.Runs[0].Status)
		assert.Equal(t, 2, output.Runs[0].Stats.New)
	})

	t.Run("failed run is reported, not returned as error", func(t *testing.T) {
		ingestion := &mockIngestion{
			run: &domain.IngestionRun{ID: "run-2", Connector: "congress", Status: domain.RunFailed, Error: "boom"},
			err: errors.New("boom"),
		}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		_, output, err := server.handleRunIngestion(ctx, nil, RunIngestionInput{Connector: "congress"})

		require.NoError(t, err)
		require.Len(t, output.Runs, 1)
		assert.Equal(t, "failed", output.Runs[0].Status)
		assert.Equal(t, "boom", output.Runs[0].Error)
	})

	t.Run("unknown connector is an error", func(t *testing.T) {
		ingestion := &mockIngestion{err: domain.ErrUnsupportedType}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		_, _, err := server.handleRunIngestion(ctx, nil, RunIngestionInput{Connector: "nope"})

		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("empty connector runs all", func(t *testing.T) {
		ingestion := &mockIngestion{
			runs: []domain.IngestionRun{
				{ID: "a", Connector: "congress", Status: domain.RunSucceeded},
				{ID: "b", Connector: "legistar", Status: domain.RunFailed},
			},
			err: errors.New("run legistar: failed"),
		}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		_, output, err := server.handleRunIngestion(ctx, nil, RunIngestionInput{})

		require.NoError(t, err)
		assert.Len(t, output.Runs, 2)
		assert.Empty(t, ingestion.lastRun)
	})
}

func TestServer_handleIngestRollCalls(t *testing.T) {
	ctx := context.Background()

	t.Run("passes options through", func(t *testing.T) {
		rollCall := &mockRollCall{stats: domain.RollCallStats{Fetched: 4, Created: 2, AffectedMeasures: []string{"m1"}}}
		server := newTestServer(t, &Ports{RollCall: rollCall})

		_, stats, err := server.handleIngestRollCalls(ctx, nil, IngestRollCallsInput{
			Chamber: "senate", Congress: 119, Session: 1, Start: 10, MaxDocuments: 5,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RollCallSenate, rollCall.chamber)
		assert.Equal(t, 119, rollCall.opts.Congress)
		assert.Equal(t, 10, rollCall.opts.Start)
		assert.Equal(t, 5, rollCall.opts.MaxDocuments)
		assert.Equal(t, 2, stats.Created)
	})

	t.Run("not configured", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, _, err := server.handleIngestRollCalls(ctx, nil, IngestRollCallsInput{Chamber: "house"})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("wraps errors", func(t *testing.T) {
		server := newTestServer(t, &Ports{RollCall: &mockRollCall{err: domain.ErrUnsupportedType}})
		_, _, err := server.handleIngestRollCalls(ctx, nil, IngestRollCallsInput{Chamber: "assembly", Congress: 119})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
		assert.Contains(t, err.Error(), "assembly")
	})
}

func TestServer_handleComputeAlignment(t *testing.T) {
	ctx := context.Background()

	server := newTestServer(t, &Ports{Alignment: &mockAlignment{computed: 7}})
	_, output, err := server.handleComputeAlignment(ctx, nil, ComputeAlignmentInput{MeasureID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, ComputeAlignmentOutput{MeasureID: "m-1", Results: 7}, output)

	server = newTestServer(t, &Ports{Alignment: &mockAlignment{err: domain.ErrInvalidInput}})
	_, _, err = server.handleComputeAlignment(ctx, nil, ComputeAlignmentInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	server = newTestServer(t, &Ports{})
	_, _, err = server.handleComputeAlignment(ctx, nil, ComputeAlignmentInput{MeasureID: "m-1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestServer_handleUserAlignment(t *testing.T) {
	ctx := context.Background()
	score := 0.75
	summary := &domain.AlignmentSummary{
		UserID:  "u-1",
		Overall: domain.AlignmentScope{Matches: 3, Total: 4, Score: &score},
	}

	server := newTestServer(t, &Ports{Alignment: &mockAlignment{summary: summary}})
	_, output, err := server.handleUserAlignment(ctx, nil, UserAlignmentInput{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", output.UserID)
	require.NotNil(t, output.Overall.Score)
	assert.Equal(t, 0.75, *output.Overall.Score)

	server = newTestServer(t, &Ports{Alignment: &mockAlignment{err: errors.New("db down")}})
	_, _, err = server.handleUserAlignment(ctx, nil, UserAlignmentInput{UserID: "u-1"})
	assert.EqualError(t, err, "db down")
}
