package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

// Metrics holds the Prometheus collectors updated by the services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	records       *prometheus.CounterVec
	rollCalls     *prometheus.CounterVec
	officialVotes prometheus.Counter
	matches       prometheus.Counter
	runDuration   *prometheus.HistogramVec
}

// NewMetrics registers the service metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.runs = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villagevote_ingestion_runs_total",
			Help: "ingestion runs finished, by connector and final status",
		},
		[]string{"connector", "status"},
	)
	m.records = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villagevote_ingestion_records_total",
			Help: "source records processed, by connector and outcome",
		},
		[]string{"connector", "outcome"},
	)
	m.rollCalls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "villagevote_rollcall_documents_total",
			Help: "roll-call documents ingested, by chamber and outcome",
		},
		[]string{"chamber", "outcome"},
	)
	m.officialVotes = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "villagevote_official_votes_written_total",
			Help: "official votes written from roll-call documents",
		},
	)
	m.matches = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "villagevote_match_results_computed_total",
			Help: "match results computed and stored",
		},
	)
	m.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "villagevote_ingestion_run_duration_seconds",
			Help:    "wall time of ingestion runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
		},
		[]string{"connector"},
	)

	return m
}

func (m *Metrics) runFinished(run *domain.IngestionRun) {
	if m == nil || run == nil {
		return
	}
	m.runs.WithLabelValues(run.Connector, string(run.Status)).Inc()
	if run.FinishedAt != nil {
		m.runDuration.WithLabelValues(run.Connector).Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	}
}

func (m *Metrics) recordProcessed(connector, outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(connector, outcome).Inc()
}

func (m *Metrics) rollCallIngested(chamber domain.RollCallChamber, res domain.RollCallResult) {
	if m == nil {
		return
	}
	m.rollCalls.WithLabelValues(string(chamber), string(res.Outcome)).Inc()
	m.officialVotes.Add(float64(res.OfficialVotes))
}

func (m *Metrics) matchesComputed(n int) {
	if m == nil {
		return
	}
	m.matches.Add(float64(n))
}
