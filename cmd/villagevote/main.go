// Command villagevote ingests legislation and roll-call votes and scores how
// users align with their elected officials.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cachememory "github.com/tisaac13/villagevote/internal/adapters/driven/cache/memory"
	"github.com/tisaac13/villagevote/internal/adapters/driven/config/file"
	"github.com/tisaac13/villagevote/internal/adapters/driven/storage/sqlite"
	"github.com/tisaac13/villagevote/internal/adapters/driving/cli"
	"github.com/tisaac13/villagevote/internal/connectors/apiclient"
	"github.com/tisaac13/villagevote/internal/connectors/congress"
	"github.com/tisaac13/villagevote/internal/connectors/house"
	"github.com/tisaac13/villagevote/internal/connectors/legistar"
	"github.com/tisaac13/villagevote/internal/connectors/openstates"
	"github.com/tisaac13/villagevote/internal/connectors/senate"
	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
	"github.com/tisaac13/villagevote/internal/core/services"
	"github.com/tisaac13/villagevote/internal/logger"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, func() error, error) {
	var store driven.SettingsStore
	if opts.ConfigPath != "" {
		store = file.NewSettingsStoreForFile(opts.ConfigPath)
	} else {
		s, err := file.NewSettingsStore("")
		if err != nil {
			return nil, nil, fmt.Errorf("opening configuration: %w", err)
		}
		store = s
	}
	settings, err := store.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	db, err := sqlite.NewStore(settings.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("database at %s", db.Path())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	orch := services.NewIngestionOrchestrator(
		db.RunStore(),
		db.MeasureStore(),
		services.IngestionConfigFromSettings(settings.Ingestion),
		metrics,
	)

	var catalog *services.OfficialCatalog
	cong, err := congress.New(settings.Congress, apiclient.Config{})
	switch {
	case err == nil:
		orch.Register(cong)
		catalog = services.NewOfficialCatalog(db.OfficialStore(), cong)
	case errors.Is(err, domain.ErrMissingCredential):
		logger.Notice("congress connector disabled: set VILLAGEVOTE_CONGRESS_API_KEY")
	default:
		return nil, nil, closeOnError(db, orch, fmt.Errorf("congress connector: %w", err))
	}

	states, err := openstates.New(settings.OpenStates, apiclient.Config{})
	switch {
	case err == nil:
		orch.Register(states)
	case errors.Is(err, domain.ErrMissingCredential):
		logger.Notice("openstates connector disabled: set VILLAGEVOTE_OPENSTATES_API_KEY")
	default:
		return nil, nil, closeOnError(db, orch, fmt.Errorf("openstates connector: %w", err))
	}

	leg, err := legistar.New(settings.Legistar, apiclient.Config{})
	if err != nil {
		return nil, nil, closeOnError(db, orch, fmt.Errorf("legistar connector: %w", err))
	}
	orch.Register(leg)

	houseSrc, err := house.New(apiclient.Config{})
	if err != nil {
		return nil, nil, closeOnError(db, orch, err)
	}
	senateSrc, err := senate.New(apiclient.Config{})
	if err != nil {
		return nil, nil, closeOnError(db, orch, err)
	}
	rollCalls := services.NewRollCallIngestor(
		db.MeasureStore(), db.VoteStore(), db.OfficialStore(), metrics, houseSrc, senateSrc)

	alignment := services.NewAlignmentService(
		db.UserStore(), db.VoteStore(), db.MatchStore(), cachememory.New(),
		services.AlignmentConfigFromSettings(settings.Cache), metrics)

	svc := &cli.Services{
		Ingestion: orch,
		RollCall:  rollCalls,
		Alignment: alignment,
		Settings:  store,
		Metrics:   reg,
		Config:    settings,
	}
	if catalog != nil {
		svc.Officials = catalog
	}

	cleanup := func() error {
		return errors.Join(orch.Close(), db.Close())
	}
	return svc, cleanup, nil
}

func closeOnError(db *sqlite.Store, orch *services.IngestionOrchestrator, err error) error {
	return errors.Join(err, orch.Close(), db.Close())
}
