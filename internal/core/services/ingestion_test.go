package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tisaac13/villagevote/internal/adapters/driven/storage/memory"
	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// --- Mock implementations for ingestion testing ---

// fakeAdapter implements driven.SourceAdapter. Pages are keyed by the cursor
// that requests them; a record with an empty payload is malformed.
type fakeAdapter struct {
	name    string
	pages   map[string]domain.RawPage
	fetchFn func(ctx context.Context, cursor string) (domain.RawPage, error)

	mu     sync.Mutex
	errs   []error
	calls  int
	closed bool
}

var _ driven.SourceAdapter = (*fakeAdapter)(nil)

func (a *fakeAdapter) Name() string                { return a.name }
func (a *fakeAdapter) Source() domain.SourceSystem { return domain.SourceCustom }

func (a *fakeAdapter) Fetch(ctx context.Context, cursor string) (domain.RawPage, error) {
	a.mu.Lock()
	a.calls++
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		a.mu.Unlock()
		return domain.RawPage{}, err
	}
	a.mu.Unlock()

	if a.fetchFn != nil {
		return a.fetchFn(ctx, cursor)
	}
	return a.pages[cursor], nil
}

func (a *fakeAdapter) Normalize(raw domain.RawRecord) (domain.NormalizedMeasure, error) {
	if len(raw.Payload) == 0 {
		return domain.NormalizedMeasure{}, fmt.Errorf("record %s: %w", raw.Ref, domain.ErrMalformedRecord)
	}
	return domain.NormalizedMeasure{
		Source:     domain.SourceCustom,
		ExternalID: raw.Ref,
		Title:      string(raw.Payload),
		Status:     domain.StatusIntroduced,
	}, nil
}

func (a *fakeAdapter) SourceLinks(raw domain.RawRecord) []domain.MeasureSource {
	return []domain.MeasureSource{{Label: "test", URL: "https://example.com/" + raw.Ref, ContentType: domain.ContentHTML}}
}

func (a *fakeAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

func (a *fakeAdapter) fetchCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func records(from, to int) []domain.RawRecord {
	out := make([]domain.RawRecord, 0, to-from+1)
	for i := from; i <= to; i++ {
		ref := "m" + strconv.Itoa(i)
		out = append(out, domain.RawRecord{Ref: ref, Payload: []byte("Measure " + ref)})
	}
	return out
}

func newTestOrchestrator(store *memory.Store, metrics *Metrics) *IngestionOrchestrator {
	return NewIngestionOrchestrator(store.RunStore(), store.MeasureStore(), IngestionConfig{
		Workers:        3,
		MaxRunDuration: time.Minute,
		Retry:          RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond},
	}, metrics)
}

// --- Tests ---

func TestIngestionOrchestrator_RunPagesThrough(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	o.Register(&fakeAdapter{name: "fake", pages: map[string]domain.RawPage{
		"":  {Records: records(1, 4), NextCursor: "2"},
		"2": {Records: records(5, 7)},
	}})

	run, err := o.Run(context.Background(), "fake")
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, domain.RunStats{Fetched: 7, New: 7}, run.Stats)

	count, err := store.MeasureStore().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	stored, err := store.RunStore().Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, stored.Status)
	assert.Equal(t, 7, stored.Stats.New)
}

func TestIngestionOrchestrator_MalformedRecordDoesNotAbort(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	recs := records(1, 10)
	recs[4].Payload = nil
	o.Register(&fakeAdapter{name: "fake", pages: map[string]domain.RawPage{"": {Records: recs}}})

	run, err := o.Run(context.Background(), "fake")
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, domain.RunStats{Fetched: 10, New: 9, Errors: 1}, run.Stats)

	// Re-running against unchanged source data creates nothing.
	run, err = o.Run(context.Background(), "fake")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStats{Fetched: 10, Updated: 9, Unchanged: 9, Errors: 1}, run.Stats)

	count, err := store.MeasureStore().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, count)
}

func TestIngestionOrchestrator_FatalFetchFailsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	fatal := fmt.Errorf("congress: %w", domain.ErrMissingCredential)
	o.Register(&fakeAdapter{name: "fake", fetchFn: func(_ context.Context, cursor string) (domain.RawPage, error) {
		if cursor == "" {
			return domain.RawPage{Records: records(1, 2), NextCursor: "2"}, nil
		}
		return domain.RawPage{}, fatal
	}})

	run, err := o.Run(context.Background(), "fake")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "missing required credential")
	assert.Equal(t, 2, run.Stats.Fetched)
	assert.Equal(t, 2, run.Stats.New)

	stored, err := store.RunStore().Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
}

func TestIngestionOrchestrator_RetriesTransientFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	a := &fakeAdapter{
		name:  "fake",
		pages: map[string]domain.RawPage{"": {Records: records(1, 1)}},
		errs:  []error{domain.ErrTransient, fmt.Errorf("429: %w", domain.ErrRateLimited)},
	}
	o.Register(a)

	run, err := o.Run(context.Background(), "fake")
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, 3, a.fetchCalls())
	assert.Equal(t, 1, run.Stats.New)
}

func TestIngestionOrchestrator_RetryExhausted(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	a := &fakeAdapter{
		name: "fake",
		errs: []error{domain.ErrTransient, domain.ErrTransient, domain.ErrTransient, domain.ErrTransient},
	}
	o.Register(a)

	run, err := o.Run(context.Background(), "fake")
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, 3, a.fetchCalls())
}

func TestIngestionOrchestrator_ConcurrentRunRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	o.Register(&fakeAdapter{name: "fake", fetchFn: func(_ context.Context, _ string) (domain.RawPage, error) {
		close(started)
		<-release
		return domain.RawPage{Records: records(1, 1)}, nil
	}})

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), "fake")
		done <- err
	}()
	<-started

	status, err := o.Status(context.Background(), "fake")
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.NotEmpty(t, status.RunID)

	_, err = o.Run(context.Background(), "fake")
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)

	runs, err := o.Runs(context.Background(), "fake", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	status, err = o.Status(context.Background(), "fake")
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestIngestionOrchestrator_RunRejectedAcrossOrchestrators(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Two orchestrators over one store stand in for two CLI processes.
	store := memory.NewStore()
	first := newTestOrchestrator(store, nil)
	second := newTestOrchestrator(store, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	first.Register(&fakeAdapter{name: "congress", fetchFn: func(_ context.Context, _ string) (domain.RawPage, error) {
		close(started)
		<-release
		return domain.RawPage{Records: records(1, 1)}, nil
	}})
	other := &fakeAdapter{name: "congress", pages: map[string]domain.RawPage{"": {Records: records(1, 2)}}}
	second.Register(other)

	done := make(chan error, 1)
	go func() {
		_, err := first.Run(context.Background(), "congress")
		done <- err
	}()
	<-started

	run, err := second.Run(context.Background(), "congress")
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
	assert.Nil(t, run)
	assert.Zero(t, other.fetchCalls())

	status, err := second.Status(context.Background(), "congress")
	require.NoError(t, err)
	assert.False(t, status.Running)

	close(release)
	require.NoError(t, <-done)

	runs, err := store.RunStore().List(context.Background(), "congress", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunSucceeded, runs[0].Status)

	// Once the first run finishes the second process may run.
	run, err = second.Run(context.Background(), "congress")
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
}

func TestIngestionOrchestrator_CancelledRunKeepsPartialStats(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Register(&fakeAdapter{name: "fake", fetchFn: func(ctx context.Context, cursor string) (domain.RawPage, error) {
		if cursor == "" {
			return domain.RawPage{Records: records(1, 3), NextCursor: "2"}, nil
		}
		cancel()
		return domain.RawPage{}, ctx.Err()
	}})

	run, err := o.Run(ctx, "fake")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, 3, run.Stats.Fetched)
	assert.Equal(t, 3, run.Stats.New)

	stored, err := store.RunStore().Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
	assert.NotNil(t, stored.FinishedAt)
}

func TestIngestionOrchestrator_ForceFailsStaleRun(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	store.SetClock(func() time.Time { return now })

	stale, err := store.RunStore().Start(ctx, "fake")
	require.NoError(t, err)

	o := newTestOrchestrator(store, nil)
	now = t0.Add(2 * time.Minute)
	o.now = func() time.Time { return now }
	o.Register(&fakeAdapter{name: "fake", pages: map[string]domain.RawPage{}})

	run, err := o.Run(ctx, "fake")
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)

	got, err := store.RunStore().Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Contains(t, got.Error, "maximum duration")
}

func TestIngestionOrchestrator_RunAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	o := newTestOrchestrator(store, nil)
	good := &fakeAdapter{name: "good", pages: map[string]domain.RawPage{"": {Records: records(1, 2)}}}
	bad := &fakeAdapter{name: "bad", errs: []error{errors.New("boom")}}
	o.Register(good)
	o.Register(bad)

	assert.Equal(t, []string{"bad", "good"}, o.Connectors())

	runs, err := o.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run bad")
	require.Len(t, runs, 2)

	statuses := map[string]domain.RunStatus{}
	for _, r := range runs {
		statuses[r.Connector] = r.Status
	}
	assert.Equal(t, domain.RunSucceeded, statuses["good"])
	assert.Equal(t, domain.RunFailed, statuses["bad"])

	require.NoError(t, o.Close())
	assert.True(t, good.closed)
	assert.True(t, bad.closed)
}

func TestIngestionOrchestrator_UnknownConnector(t *testing.T) {
	o := newTestOrchestrator(memory.NewStore(), nil)

	_, err := o.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngestionOrchestrator_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	o := newTestOrchestrator(memory.NewStore(), metrics)
	recs := records(1, 3)
	recs[0].Payload = nil
	o.Register(&fakeAdapter{name: "fake", pages: map[string]domain.RawPage{"": {Records: recs}}})

	_, err := o.Run(context.Background(), "fake")
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.runs.WithLabelValues("fake", "succeeded")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.records.WithLabelValues("fake", "new")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.records.WithLabelValues("fake", "error")), 0)
}

func TestIngestionConfigFromSettings(t *testing.T) {
	s := domain.DefaultSettings()
	cfg := IngestionConfigFromSettings(s.Ingestion)
	assert.Equal(t, domain.DefaultWorkers, cfg.Workers)
	assert.Equal(t, domain.DefaultMaxRunDuration, cfg.MaxRunDuration)
	assert.Equal(t, domain.DefaultRetryAttempts, cfg.Retry.MaxAttempts)
	assert.Equal(t, domain.DefaultRetryDelay, cfg.Retry.InitialDelay)
}
