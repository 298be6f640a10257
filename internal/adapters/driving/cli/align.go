package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

var alignJSON bool

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Score user positions against their officials",
}

var alignMeasureCmd = &cobra.Command{
	Use:   "measure <measure-id>",
	Short: "Recompute match results for a measure",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlignMeasure,
}

var alignUserCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Show a user's alignment with their officials",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlignUser,
}

var alignVoteCmd = &cobra.Command{
	Use:   "vote <user-id> <measure-id> <yes|no|skip>",
	Short: "Record a user's position on a measure",
	Args:  cobra.ExactArgs(3),
	RunE:  runAlignVote,
}

var alignOfficialsCmd = &cobra.Command{
	Use:   "officials <user-id> [official-id...]",
	Short: "Set the officials representing a user",
	Long: `Replaces the user's active officials with the given IDs. Officials not
listed are deactivated. With no official IDs every link is deactivated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAlignOfficials,
}

func init() {
	alignUserCmd.Flags().BoolVar(&alignJSON, "json", false, "print the summary as JSON")
	alignCmd.AddCommand(alignMeasureCmd, alignUserCmd, alignVoteCmd, alignOfficialsCmd)
	rootCmd.AddCommand(alignCmd)
}

func alignContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runAlignMeasure(cmd *cobra.Command, args []string) error {
	if alignmentService == nil {
		return notConfigured("alignment service")
	}
	n, err := alignmentService.ComputeForMeasure(alignContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("computing alignment: %w", err)
	}
	cmd.Printf("Wrote %d match results for %s.\n", n, args[0])
	return nil
}

func runAlignUser(cmd *cobra.Command, args []string) error {
	if alignmentService == nil {
		return notConfigured("alignment service")
	}
	sum, err := alignmentService.UserAlignment(alignContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("loading alignment: %w", err)
	}

	if alignJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	cmd.Printf("Alignment for %s\n", sum.UserID)
	printScope(cmd, "Overall", sum.Overall)
	printScope(cmd, "House", sum.House)
	printScope(cmd, "Senate", sum.Senate)
	printScope(cmd, "Federal", sum.Federal)
	if len(sum.Officials) == 0 {
		cmd.Println("No active officials.")
		return nil
	}
	cmd.Println()
	for _, o := range sum.Officials {
		cmd.Printf("  %-28s %-14s %s  %d/%d\n",
			o.Name, o.Office, formatScore(o.Score), o.Matches, o.VotesCompared)
	}
	return nil
}

func runAlignVote(cmd *cobra.Command, args []string) error {
	if alignmentService == nil {
		return notConfigured("alignment service")
	}
	pos, err := domain.ParseUserPosition(args[2])
	if err != nil {
		return fmt.Errorf("position %q: %w", args[2], err)
	}
	if err := alignmentService.RecordUserVote(alignContext(cmd), args[0], args[1], pos); err != nil {
		return fmt.Errorf("recording vote: %w", err)
	}
	cmd.Printf("Recorded %s on %s for %s.\n", pos, args[1], args[0])
	return nil
}

func runAlignOfficials(cmd *cobra.Command, args []string) error {
	if alignmentService == nil {
		return notConfigured("alignment service")
	}
	user, ids := args[0], args[1:]
	if err := alignmentService.SetActiveOfficials(alignContext(cmd), user, ids); err != nil {
		return fmt.Errorf("setting officials: %w", err)
	}
	cmd.Printf("%s now has %d active officials.\n", user, len(ids))
	return nil
}

func printScope(cmd *cobra.Command, label string, s domain.AlignmentScope) {
	cmd.Printf("  %-8s %s  (%d of %d votes)\n", label, formatScore(s.Score), s.Matches, s.Total)
}

func formatScore(score *float64) string {
	if score == nil {
		return "  n/a"
	}
	return fmt.Sprintf("%4.0f%%", *score*100)
}
