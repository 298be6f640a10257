package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

var rollCallFlags struct {
	chamber  string
	congress int
	session  int
	start    int
	maxDocs  int
	align    bool
}

var rollCallCmd = &cobra.Command{
	Use:   "rollcall",
	Short: "Ingest House and Senate roll-call votes",
	Long: `Sweeps the House Clerk and Senate roll-call documents for one session,
matching each vote to a stored measure and each legislator to an official.
The sweep stops after a run of consecutive missing documents.

Congress and session default to the [rollcall] configuration.`,
	RunE: runRollCall,
}

func init() {
	f := rollCallCmd.Flags()
	f.StringVar(&rollCallFlags.chamber, "chamber", "both", "chamber to sweep: house, senate or both")
	f.IntVar(&rollCallFlags.congress, "congress", 0, "Congress number (default from config)")
	f.IntVar(&rollCallFlags.session, "session", 0, "session number (default from config)")
	f.IntVar(&rollCallFlags.start, "start", 1, "first roll-call number")
	f.IntVar(&rollCallFlags.maxDocs, "max-docs", 0, "maximum documents per chamber (0 = no cap)")
	f.BoolVar(&rollCallFlags.align, "align", false, "recompute alignment for measures that gained votes")
	rootCmd.AddCommand(rollCallCmd)
}

func parseChambers(s string) ([]domain.RollCallChamber, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "house":
		return []domain.RollCallChamber{domain.RollCallHouse}, nil
	case "senate":
		return []domain.RollCallChamber{domain.RollCallSenate}, nil
	case "both", "":
		return []domain.RollCallChamber{domain.RollCallHouse, domain.RollCallSenate}, nil
	}
	return nil, fmt.Errorf("unknown chamber %q: %w", s, domain.ErrInvalidInput)
}

func runRollCall(cmd *cobra.Command, _ []string) error {
	if rollCallIngestor == nil {
		return notConfigured("roll-call service")
	}
	if rollCallFlags.align && alignmentService == nil {
		return notConfigured("alignment service")
	}

	chambers, err := parseChambers(rollCallFlags.chamber)
	if err != nil {
		return err
	}

	opts := driving.RollCallOptions{
		Congress:              rollCallFlags.congress,
		Session:               rollCallFlags.session,
		Start:                 rollCallFlags.start,
		MaxDocuments:          rollCallFlags.maxDocs,
		MaxConsecutiveMissing: appSettings.RollCall.MaxConsecutiveMissing,
		Delay:                 appSettings.RollCall.Delay.Std(),
	}
	if opts.Congress == 0 {
		opts.Congress = appSettings.RollCall.Congress
	}
	if opts.Session == 0 {
		opts.Session = appSettings.RollCall.Session
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	var affected []string
	for _, ch := range chambers {
		cmd.Printf("Sweeping %s roll calls for the %d Congress, session %d...\n", ch.Body(), opts.Congress, opts.Session)
		stats, err := rollCallIngestor.IngestChamber(ctx, ch, opts)
		printRollCallStats(cmd, stats)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
		}
		affected = append(affected, stats.AffectedMeasures...)
	}

	if rollCallFlags.align && len(affected) > 0 {
		cmd.Printf("Recomputing alignment for %d measures...\n", len(affected))
		results := 0
		for _, id := range affected {
			n, err := alignmentService.ComputeForMeasure(ctx, id)
			if err != nil {
				errs = append(errs, fmt.Errorf("alignment for %s: %w", id, err))
				continue
			}
			results += n
		}
		cmd.Printf("Wrote %d match results.\n", results)
	}

	return errors.Join(errs...)
}

func printRollCallStats(cmd *cobra.Command, s domain.RollCallStats) {
	cmd.Printf("  fetched %d, created %d, duplicates %d, unmatched %d, errors %d\n",
		s.Fetched, s.Created, s.Duplicates, s.Unmatched, s.Errors)
	cmd.Printf("  official votes %d, unresolved legislators %d, backfilled IDs %d, last roll call %d\n",
		s.OfficialVotes, s.UnresolvedLegislators, s.Backfilled, s.LastSequence)
}
