package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleConnectorsResource(t *testing.T) {
	ctx := context.Background()

	ingestion := &mockIngestion{
		status: map[string]*driving.RunStatus{
			"congress": {Connector: "congress", Running: true, RunID: "run-9"},
		},
	}
	server := newTestServer(t, &Ports{Ingestion: ingestion})

	result, err := server.handleConnectorsResource(ctx, makeReadResourceRequest("villagevote://connectors"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var infos []struct {
		Name    string `json:"name"`
		Running bool   `json:"running"`
		RunID   string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Running)
	assert.Equal(t, "run-9", infos[0].RunID)
	assert.Equal(t, "legistar", infos[1].Name)
	assert.False(t, infos[1].Running)
}

func TestServer_handleRunsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns recent runs", func(t *testing.T) {
		ingestion := &mockIngestion{
			runs: []domain.IngestionRun{{ID: "run-1", Connector: "openstates", Status: domain.RunSucceeded}},
		}
		server := newTestServer(t, &Ports{Ingestion: ingestion})

		result, err := server.handleRunsResource(ctx, makeReadResourceRequest("villagevote://runs"))

		require.NoError(t, err)
		assert.Equal(t, recentRuns, ingestion.runsLimit)
		assert.Contains(t, result.Contents[0].Text, "run-1")
		assert.Contains(t, result.Contents[0].Text, "openstates")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Ingestion: &mockIngestion{err: errors.New("database error")}})

		_, err := server.handleRunsResource(ctx, makeReadResourceRequest("villagevote://runs"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database error")
	})
}
