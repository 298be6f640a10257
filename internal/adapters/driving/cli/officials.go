package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var officialsCongress int

var officialsCmd = &cobra.Command{
	Use:   "officials",
	Short: "Manage the official directory",
}

var officialsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh sitting members of Congress",
	Long: `Fetches the members of a Congress from Congress.gov and upserts them by
bioguide ID. Existing officials are updated in place, never duplicated.`,
	RunE: runOfficialsRefresh,
}

func init() {
	officialsRefreshCmd.Flags().IntVar(&officialsCongress, "congress", 0, "Congress number (default from config)")
	officialsCmd.AddCommand(officialsRefreshCmd)
	rootCmd.AddCommand(officialsCmd)
}

func runOfficialsRefresh(cmd *cobra.Command, _ []string) error {
	if officialCatalog == nil {
		return notConfigured("official catalogue")
	}

	congress := officialsCongress
	if congress == 0 {
		congress = appSettings.Congress.Congress
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Printf("Refreshing officials for the %d Congress...\n", congress)
	stats, err := officialCatalog.Refresh(ctx, congress)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	cmd.Printf("Fetched %d members: %d created, %d updated, %d errors.\n",
		stats.Fetched, stats.Created, stats.Updated, stats.Errors)
	return nil
}
