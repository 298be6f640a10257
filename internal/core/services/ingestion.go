package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
	"github.com/tisaac13/villagevote/internal/logger"
)

var ingestLog = logger.With("ingestion")

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestionOrchestrator = (*IngestionOrchestrator)(nil)

// RetryPolicy controls retries of transient fetch failures. The delay
// doubles after every failed attempt.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// IngestionConfig tunes the orchestrator.
type IngestionConfig struct {
	// Workers bounds concurrent record processing within a page.
	Workers int
	// MaxRunDuration bounds a run; older running runs are force-failed.
	MaxRunDuration time.Duration
	Retry          RetryPolicy
}

// IngestionConfigFromSettings maps configuration onto orchestrator tuning.
func IngestionConfigFromSettings(s domain.IngestionSettings) IngestionConfig {
	return IngestionConfig{
		Workers:        s.Workers,
		MaxRunDuration: s.MaxRunDuration.Std(),
		Retry: RetryPolicy{
			MaxAttempts:  s.RetryAttempts,
			InitialDelay: s.RetryDelay.Std(),
		},
	}
}

func (c *IngestionConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = domain.DefaultWorkers
	}
	if c.MaxRunDuration <= 0 {
		c.MaxRunDuration = domain.DefaultMaxRunDuration
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = domain.DefaultRetryAttempts
	}
	if c.Retry.InitialDelay < 0 {
		c.Retry.InitialDelay = 0
	}
}

// IngestionOrchestrator runs source adapters and records every run.
type IngestionOrchestrator struct {
	runs     driven.RunStore
	upserter *MeasureUpserter
	metrics  *Metrics
	cfg      IngestionConfig
	now      func() time.Time

	mu       sync.RWMutex
	adapters map[string]driven.SourceAdapter
	active   map[string]*activeRun
}

// activeRun tracks live counters of an in-progress run.
type activeRun struct {
	runID     atomic.Value
	fetched   atomic.Int64
	created   atomic.Int64
	updated   atomic.Int64
	unchanged atomic.Int64
	errors    atomic.Int64
}

func (a *activeRun) id() string {
	id, _ := a.runID.Load().(string)
	return id
}

func (a *activeRun) snapshot() domain.RunStats {
	return domain.RunStats{
		Fetched:   int(a.fetched.Load()),
		New:       int(a.created.Load()),
		Updated:   int(a.updated.Load()),
		Unchanged: int(a.unchanged.Load()),
		Errors:    int(a.errors.Load()),
	}
}

// NewIngestionOrchestrator creates an orchestrator. metrics may be nil.
func NewIngestionOrchestrator(
	runs driven.RunStore,
	measures driven.MeasureStore,
	cfg IngestionConfig,
	metrics *Metrics,
) *IngestionOrchestrator {
	cfg.applyDefaults()
	return &IngestionOrchestrator{
		runs:     runs,
		upserter: NewMeasureUpserter(measures),
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
		adapters: make(map[string]driven.SourceAdapter),
		active:   make(map[string]*activeRun),
	}
}

// Register adds a source adapter. The orchestrator owns its lifecycle.
func (o *IngestionOrchestrator) Register(adapter driven.SourceAdapter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.adapters[adapter.Name()] = adapter
}

// Connectors lists registered connector names in sorted order.
func (o *IngestionOrchestrator) Connectors() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.adapters))
	for name := range o.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one ingestion run for a connector.
// The returned run is the finished record; the error is nil only when the
// run succeeded.
func (o *IngestionOrchestrator) Run(ctx context.Context, connector string) (*domain.IngestionRun, error) {
	o.mu.RLock()
	adapter, ok := o.adapters[connector]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("connector %q: %w", connector, domain.ErrUnsupportedType)
	}

	active, err := o.begin(connector)
	if err != nil {
		return nil, err
	}
	defer o.end(connector)

	stale, err := o.runs.FailStale(ctx, connector, o.now().Add(-o.cfg.MaxRunDuration), domain.ErrRunTimeout.Error())
	if err != nil {
		return nil, fmt.Errorf("fail stale runs: %w", err)
	}
	if stale > 0 {
		ingestLog.Warn("Force-failed %d stale %s run(s)", stale, connector)
	}

	run, err := o.runs.Start(ctx, connector)
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			ingestLog.Warn("Skipping %s: a run started elsewhere is still in progress", connector)
		}
		return nil, fmt.Errorf("start run: %w", err)
	}
	active.runID.Store(run.ID)
	ingestLog.Info("Starting ingestion run %s for %s", run.ID, connector)

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.MaxRunDuration)
	defer cancel()

	runErr := o.ingest(runCtx, adapter, active)
	if runErr != nil && errors.Is(runErr, context.DeadlineExceeded) && ctx.Err() == nil {
		runErr = fmt.Errorf("%w (%s)", domain.ErrRunTimeout, o.cfg.MaxRunDuration)
	}

	run.Stats = active.snapshot()
	run.Status = domain.RunSucceeded
	if runErr != nil {
		run.Status = domain.RunFailed
		run.Error = runErr.Error()
	}

	// The run record must be closed even when the caller has gone away.
	if err := o.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		ingestLog.Error("Finishing run %s: %v", run.ID, err)
		runErr = errors.Join(runErr, fmt.Errorf("finish run: %w", err))
	}
	o.metrics.runFinished(run)

	if runErr != nil {
		ingestLog.Error("Ingestion run %s for %s failed: %v", run.ID, connector, runErr)
		return run, runErr
	}
	ingestLog.Info("Ingestion run %s complete: fetched %d, new %d, updated %d, errors %d",
		run.ID, run.Stats.Fetched, run.Stats.New, run.Stats.Updated, run.Stats.Errors)
	return run, nil
}

// RunAll runs every registered connector concurrently and joins their errors.
func (o *IngestionOrchestrator) RunAll(ctx context.Context) ([]domain.IngestionRun, error) {
	names := o.Connectors()
	results := make([]*domain.IngestionRun, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			run, err := o.Run(ctx, name)
			results[i] = run
			if err != nil {
				errs[i] = fmt.Errorf("run %s: %w", name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	runs := make([]domain.IngestionRun, 0, len(results))
	for _, r := range results {
		if r != nil {
			runs = append(runs, *r)
		}
	}
	return runs, errors.Join(errs...)
}

// Status returns live progress for a connector.
func (o *IngestionOrchestrator) Status(_ context.Context, connector string) (*driving.RunStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if a, ok := o.active[connector]; ok {
		return &driving.RunStatus{
			Connector: connector,
			Running:   true,
			RunID:     a.id(),
			Stats:     a.snapshot(),
		}, nil
	}
	return &driving.RunStatus{Connector: connector}, nil
}

// Runs returns recent runs, newest first.
func (o *IngestionOrchestrator) Runs(ctx context.Context, connector string, limit int) ([]domain.IngestionRun, error) {
	return o.runs.List(ctx, connector, limit)
}

// Close closes every registered adapter.
func (o *IngestionOrchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var errs []error
	for name, a := range o.adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// begin guards against overlapping runs in this process. Runs started by other
// processes are refused by RunStore.Start.
func (o *IngestionOrchestrator) begin(connector string) (*activeRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, running := o.active[connector]; running {
		return nil, fmt.Errorf("%s: %w", connector, domain.ErrRunInProgress)
	}
	a := &activeRun{}
	o.active[connector] = a
	return a, nil
}

func (o *IngestionOrchestrator) end(connector string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, connector)
}

// ingest pages through an adapter until the cursor runs out.
func (o *IngestionOrchestrator) ingest(ctx context.Context, adapter driven.SourceAdapter, active *activeRun) error {
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := o.fetch(ctx, adapter, cursor)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", adapter.Name(), err)
		}
		active.fetched.Add(int64(len(page.Records)))
		ingestLog.Debug("Fetched %d %s records (cursor %q)", len(page.Records), adapter.Name(), cursor)

		if err := o.processPage(ctx, adapter, page.Records, active); err != nil {
			return err
		}
		if page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

// fetch retrieves one page, retrying transient failures with backoff.
func (o *IngestionOrchestrator) fetch(ctx context.Context, adapter driven.SourceAdapter, cursor string) (domain.RawPage, error) {
	delay := o.cfg.Retry.InitialDelay
	for attempt := 1; ; attempt++ {
		page, err := adapter.Fetch(ctx, cursor)
		if err == nil {
			return page, nil
		}
		if !IsTransient(err) || attempt >= o.cfg.Retry.MaxAttempts {
			return domain.RawPage{}, err
		}
		ingestLog.Warn("Fetch %s attempt %d failed, retrying in %s: %v", adapter.Name(), attempt, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.RawPage{}, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// processPage fans a page's records out to the worker pool. Cancellation is
// checked before each record starts; a started record runs to completion.
func (o *IngestionOrchestrator) processPage(ctx context.Context, adapter driven.SourceAdapter, records []domain.RawRecord, active *activeRun) error {
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)
	for _, raw := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			o.processRecord(detached, adapter, raw, active)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (o *IngestionOrchestrator) processRecord(ctx context.Context, adapter driven.SourceAdapter, raw domain.RawRecord, active *activeRun) {
	name := adapter.Name()

	n, err := adapter.Normalize(raw)
	if err != nil {
		active.errors.Add(1)
		o.metrics.recordProcessed(name, "error")
		ingestLog.Debug("Skipping %s record %s: %v", name, raw.Ref, err)
		return
	}

	outcome, err := o.upserter.Upsert(ctx, n, adapter.SourceLinks(raw))
	if err != nil {
		active.errors.Add(1)
		o.metrics.recordProcessed(name, "error")
		ingestLog.Debug("Failed to upsert %s record %s: %v", name, raw.Ref, err)
		return
	}

	switch outcome {
	case UpsertNew:
		active.created.Add(1)
	case UpsertUpdated:
		active.updated.Add(1)
	case UpsertUnchanged:
		active.updated.Add(1)
		active.unchanged.Add(1)
	}
	o.metrics.recordProcessed(name, string(outcome))
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrTransient) || errors.Is(err, domain.ErrRateLimited)
}
