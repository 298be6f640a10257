package mcp

import (
	"context"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

// mockIngestion is a mock implementation of driving.IngestionOrchestrator.
type mockIngestion struct {
	run       *domain.IngestionRun
	runs      []domain.IngestionRun
	status    map[string]*driving.RunStatus
	err       error
	lastRun   string
	runsLimit int
}

func (m *mockIngestion) Run(_ context.Context, connector string) (*domain.IngestionRun, error) {
	m.lastRun = connector
	return m.run, m.err
}

func (m *mockIngestion) RunAll(_ context.Context) ([]domain.IngestionRun, error) {
	return m.runs, m.err
}

func (m *mockIngestion) Status(_ context.Context, connector string) (*driving.RunStatus, error) {
	if s, ok := m.status[connector]; ok {
		return s, nil
	}
	return &driving.RunStatus{Connector: connector}, m.err
}

func (m *mockIngestion) Connectors() []string {
	return []string{"congress", "legistar"}
}

func (m *mockIngestion) Runs(_ context.Context, _ string, limit int) ([]domain.IngestionRun, error) {
	m.runsLimit = limit
	return m.runs, m.err
}

// mockRollCall is a mock implementation of driving.RollCallIngestor.
type mockRollCall struct {
	stats   domain.RollCallStats
	err     error
	chamber domain.RollCallChamber
	opts    driving.RollCallOptions
}

func (m *mockRollCall) IngestDocument(_ context.Context, _ *domain.RollCall) (domain.RollCallResult, error) {
	return domain.RollCallResult{}, m.err
}

func (m *mockRollCall) IngestChamber(
	_ context.Context,
	chamber domain.RollCallChamber,
	opts driving.RollCallOptions,
) (domain.RollCallStats, error) {
	m.chamber = chamber
	m.opts = opts
	return m.stats, m.err
}

// mockAlignment is a mock implementation of driving.AlignmentService.
type mockAlignment struct {
	computed int
	summary  *domain.AlignmentSummary
	reps     []domain.OfficialAlignment
	err      error
}

func (m *mockAlignment) ComputeForMeasure(_ context.Context, _ string) (int, error) {
	return m.computed, m.err
}

func (m *mockAlignment) UserAlignment(_ context.Context, _ string) (*domain.AlignmentSummary, error) {
	return m.summary, m.err
}

func (m *mockAlignment) Representatives(_ context.Context, _ string) ([]domain.OfficialAlignment, error) {
	return m.reps, m.err
}

func (m *mockAlignment) RecordUserVote(_ context.Context, _, _ string, _ domain.UserPosition) error {
	return m.err
}

func (m *mockAlignment) SetActiveOfficials(_ context.Context, _ string, _ []string) error {
	return m.err
}
