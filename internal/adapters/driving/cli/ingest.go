package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [connector...]",
	Short: "Ingest measures from connectors",
	Long: `Runs measure ingestion for the named connectors (congress, openstates,
legistar). With no arguments every configured connector runs concurrently.
Each run is recorded and can be listed with "villagevote runs".`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion service")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 {
		cmd.Printf("Ingesting from all connectors (%s)...\n", strings.Join(ingestionService.Connectors(), ", "))
		runs, err := ingestionService.RunAll(ctx)
		for i := range runs {
			printRun(cmd, &runs[i])
		}
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		return nil
	}

	for _, name := range args {
		cmd.Printf("Ingesting from %s...\n", name)
		run, err := ingestWithProgress(ctx, cmd, ingestionService, name)
		if run != nil {
			printRun(cmd, run)
		}
		if err != nil {
			return fmt.Errorf("ingestion of %s failed: %w", name, err)
		}
	}
	return nil
}

// ingestWithProgress runs one connector while displaying progress updates.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.IngestionOrchestrator,
	connector string,
) (*domain.IngestionRun, error) {
	type result struct {
		run *domain.IngestionRun
		err error
	}
	done := make(chan result, 1)
	go func() {
		run, err := orch.Run(ctx, connector)
		done <- result{run, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case r := <-done:
			if lastCount > 0 {
				cmd.Println()
			}
			return r.run, r.err
		case <-ticker.C:
			// Best effort; a status error only skips the update.
			status, err := orch.Status(ctx, connector)
			if err == nil && status != nil && status.Stats.Fetched > lastCount {
				cmd.Printf("\rProcessing... %d records", status.Stats.Fetched)
				lastCount = status.Stats.Fetched
			}
		}
	}
}

func printRun(cmd *cobra.Command, run *domain.IngestionRun) {
	s := run.Stats
	cmd.Printf("%s: %s (fetched %d, new %d, updated %d, unchanged %d, errors %d)\n",
		run.Connector, run.Status, s.Fetched, s.New, s.Updated, s.Unchanged, s.Errors)
	if run.Error != "" {
		cmd.Printf("  error: %s\n", run.Error)
	}
}
