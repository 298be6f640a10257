package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
	"github.com/tisaac13/villagevote/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	configPath  string
	verbose     bool
	metricsAddr string
)

var (
	ingestionService driving.IngestionOrchestrator
	rollCallIngestor driving.RollCallIngestor
	alignmentService driving.AlignmentService
	officialCatalog  driving.OfficialCatalog
	settingsStore    driven.SettingsStore
	metricsGatherer  prometheus.Gatherer
	appSettings      = domain.DefaultSettings()
)

// Options are the global flags the bootstrap sees.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Services are the driving ports the commands use. Nil services make the
// commands that need them fail with "not configured".
type Services struct {
	Ingestion driving.IngestionOrchestrator
	RollCall  driving.RollCallIngestor
	Alignment driving.AlignmentService
	Officials driving.OfficialCatalog
	Settings  driven.SettingsStore
	Metrics   prometheus.Gatherer
	Config    domain.Settings
}

// Bootstrap builds the services once flags are parsed. The returned
// cleanup runs after the command finishes.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func() error, error)

var (
	bootstrap Bootstrap
	cleanup   func() error
)

var rootCmd = &cobra.Command{
	Use:   "villagevote",
	Short: "Civic legislation ingestion and alignment scoring",
	Long: `villagevote ingests bills, state legislation and municipal agenda items,
records how federal legislators voted on them, and scores how closely each
user's positions align with the officials who represent them.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default ~/.villagevote/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

// SetServices injects services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	ingestionService = s.Ingestion
	rollCallIngestor = s.RollCall
	alignmentService = s.Alignment
	officialCatalog = s.Officials
	settingsStore = s.Settings
	metricsGatherer = s.Metrics
	appSettings = s.Config
}

// SetBootstrap sets the function that wires services after flag parsing.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd.Name() == "version" {
		return startMetrics(cmd)
	}

	services, done, err := bootstrap(cmd.Context(), Options{ConfigPath: configPath, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return startMetrics(cmd)
}

func teardown(_ *cobra.Command, _ []string) error {
	if cleanup == nil {
		return nil
	}
	err := cleanup()
	cleanup = nil
	return err
}

// startMetrics serves /metrics for the lifetime of the command.
func startMetrics(cmd *cobra.Command) error {
	if metricsAddr == "" {
		return nil
	}
	if metricsGatherer == nil {
		return errors.New("metrics not configured")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background()) //nolint:errcheck
	}()
	logger.Info("metrics on http://%s/metrics", metricsAddr)
	return nil
}

func notConfigured(name string) error {
	return fmt.Errorf("%s not configured", name)
}
