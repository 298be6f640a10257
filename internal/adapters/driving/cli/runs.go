package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [connector]",
	Short: "List recent ingestion runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion service")
	}

	connector := ""
	if len(args) > 0 {
		connector = args[0]
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := ingestionService.Runs(ctx, connector, runsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No ingestion runs recorded.")
		return nil
	}

	for _, r := range runs {
		took := "running"
		if r.FinishedAt != nil {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		cmd.Printf("%s  %-10s  %-9s  %s  fetched=%d new=%d updated=%d errors=%d\n",
			r.StartedAt.Format(time.RFC3339), r.Connector, r.Status, took,
			r.Stats.Fetched, r.Stats.New, r.Stats.Updated, r.Stats.Errors)
		if r.Error != "" {
			cmd.Printf("    %s\n", r.Error)
		}
	}
	return nil
}
