package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ingestion service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingIngestionService)
	})

	t.Run("ingestion only advertises run_ingestion", func(t *testing.T) {
		server, err := NewServer(&Ports{Ingestion: &mockIngestion{}})
		require.NoError(t, err)
		assert.Equal(t, []string{"run_ingestion"}, server.Tools())
	})

	t.Run("all ports advertise every tool", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Ingestion: &mockIngestion{},
			RollCall:  &mockRollCall{},
			Alignment: &mockAlignment{},
		})
		require.NoError(t, err)
		assert.Equal(t,
			[]string{"run_ingestion", "ingest_roll_calls", "compute_alignment", "user_alignment"},
			server.Tools())
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{Alignment: &mockAlignment{}}).Validate(), ErrMissingIngestionService)
	assert.NoError(t, (&Ports{Ingestion: &mockIngestion{}}).Validate())
}

func TestHandler_Health(t *testing.T) {
	server, err := NewServer(&Ports{Ingestion: &mockIngestion{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestHandler_UnknownPath(t *testing.T) {
	server, err := NewServer(&Ports{Ingestion: &mockIngestion{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
