package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

type mockIngestion struct {
	mu      sync.Mutex
	ran     []string
	run     *domain.IngestionRun
	runErr  error
	runs    []domain.IngestionRun
	allErr  error
	listed  string
	limit   int
	listErr error
}

func (m *mockIngestion) Run(_ context.Context, connector string) (*domain.IngestionRun, error) {
	m.mu.Lock()
	m.ran = append(m.ran, connector)
	m.mu.Unlock()
	return m.run, m.runErr
}

func (m *mockIngestion) RunAll(_ context.Context) ([]domain.IngestionRun, error) {
	return m.runs, m.allErr
}

func (m *mockIngestion) Status(_ context.Context, connector string) (*driving.RunStatus, error) {
	return &driving.RunStatus{Connector: connector}, nil
}

func (m *mockIngestion) Connectors() []string {
	return []string{"congress", "legistar"}
}

func (m *mockIngestion) Runs(_ context.Context, connector string, limit int) ([]domain.IngestionRun, error) {
	m.listed = connector
	m.limit = limit
	return m.runs, m.listErr
}

type mockRollCall struct {
	chambers []domain.RollCallChamber
	opts     []driving.RollCallOptions
	stats    domain.RollCallStats
	err      error
}

func (m *mockRollCall) IngestDocument(_ context.Context, _ *domain.RollCall) (domain.RollCallResult, error) {
	return domain.RollCallResult{}, nil
}

func (m *mockRollCall) IngestChamber(
	_ context.Context, chamber domain.RollCallChamber, opts driving.RollCallOptions,
) (domain.RollCallStats, error) {
	m.chambers = append(m.chambers, chamber)
	m.opts = append(m.opts, opts)
	return m.stats, m.err
}

type mockAlignment struct {
	computed  []string
	computeN  int
	summary   *domain.AlignmentSummary
	err       error
	votes     []domain.UserVote
	officials map[string][]string
}

func (m *mockAlignment) ComputeForMeasure(_ context.Context, measureID string) (int, error) {
	m.computed = append(m.computed, measureID)
	return m.computeN, m.err
}

func (m *mockAlignment) UserAlignment(_ context.Context, userID string) (*domain.AlignmentSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	s := domain.SummarizeAlignment(userID, nil)
	return &s, nil
}

func (m *mockAlignment) Representatives(_ context.Context, _ string) ([]domain.OfficialAlignment, error) {
	return nil, m.err
}

func (m *mockAlignment) RecordUserVote(_ context.Context, userID, measureID string, position domain.UserPosition) error {
	m.votes = append(m.votes, domain.UserVote{UserID: userID, MeasureID: measureID, Position: position})
	return m.err
}

func (m *mockAlignment) SetActiveOfficials(_ context.Context, userID string, ids []string) error {
	if m.officials == nil {
		m.officials = map[string][]string{}
	}
	m.officials[userID] = ids
	return m.err
}

type mockCatalog struct {
	congress int
	stats    *driving.RefreshStats
	err      error
}

func (m *mockCatalog) Refresh(_ context.Context, congress int) (*driving.RefreshStats, error) {
	m.congress = congress
	return m.stats, m.err
}

type mockSettingsStore struct {
	path     string
	settings domain.Settings
	saved    []domain.Settings
}

func (m *mockSettingsStore) Load() (domain.Settings, error) {
	return m.settings, nil
}

func (m *mockSettingsStore) Save(s domain.Settings) error {
	m.settings = s
	m.saved = append(m.saved, s)
	return nil
}

func (m *mockSettingsStore) Path() string {
	return m.path
}

// withServices swaps the command globals for the duration of a test.
func withServices(s *Services) func() {
	old := &Services{
		Ingestion: ingestionService,
		RollCall:  rollCallIngestor,
		Alignment: alignmentService,
		Officials: officialCatalog,
		Settings:  settingsStore,
		Metrics:   metricsGatherer,
		Config:    appSettings,
	}
	if s.Config.Ingestion.Workers == 0 {
		s.Config = domain.DefaultSettings()
	}
	SetServices(s)
	return func() { SetServices(old) }
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
