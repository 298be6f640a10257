package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tisaac13/villagevote/internal/core/domain"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the villagevote configuration file.

API keys may also be supplied through VILLAGEVOTE_CONGRESS_API_KEY and
VILLAGEVOTE_OPENSTATES_API_KEY, which take precedence over the file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with defaults",
	RunE:  runConfigInit,
}

var configSetKeyCmd = &cobra.Command{
	Use:       "set-key <congress|openstates>",
	Short:     "Store an API key",
	Long:      `Prompts for an API key without echoing it and saves it to the configuration file.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"congress", "openstates"},
	RunE:      runConfigSetKey,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return notConfigured("settings store")
	}
	s, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Printf("Configuration (%s)\n", settingsStore.Path())
	cmd.Println()

	cmd.Println("[database]")
	cmd.Printf("  path: %s\n", s.Database.Path)
	cmd.Println()

	cmd.Println("[ingestion]")
	cmd.Printf("  workers: %d\n", s.Ingestion.Workers)
	cmd.Printf("  max_run_duration: %s\n", s.Ingestion.MaxRunDuration.Std())
	cmd.Printf("  retry_attempts: %d\n", s.Ingestion.RetryAttempts)
	cmd.Printf("  retry_delay: %s\n", s.Ingestion.RetryDelay.Std())
	cmd.Println()

	cmd.Println("[rollcall]")
	cmd.Printf("  congress: %d\n", s.RollCall.Congress)
	cmd.Printf("  session: %d\n", s.RollCall.Session)
	cmd.Printf("  delay: %s\n", s.RollCall.Delay.Std())
	cmd.Printf("  max_consecutive_missing: %d\n", s.RollCall.MaxConsecutiveMissing)
	cmd.Println()

	cmd.Println("[cache]")
	cmd.Printf("  alignment_ttl: %s\n", s.Cache.AlignmentTTL.Std())
	cmd.Printf("  representatives_ttl: %s\n", s.Cache.RepresentativesTTL.Std())
	cmd.Println()

	cmd.Println("[congress]")
	cmd.Printf("  base_url: %s\n", s.Congress.BaseURL)
	cmd.Printf("  api_key: %s\n", maskAPIKey(s.Congress.APIKey))
	cmd.Printf("  congress: %d\n", s.Congress.Congress)
	cmd.Println()

	cmd.Println("[openstates]")
	cmd.Printf("  base_url: %s\n", s.OpenStates.BaseURL)
	cmd.Printf("  api_key: %s\n", maskAPIKey(s.OpenStates.APIKey))
	cmd.Printf("  jurisdiction: %s\n", s.OpenStates.Jurisdiction)
	cmd.Println()

	cmd.Println("[legistar]")
	cmd.Printf("  client: %s\n", s.Legistar.Client)
	cmd.Printf("  days: %d\n", s.Legistar.Days)
	cmd.Printf("  max_events: %d\n", s.Legistar.MaxEvents)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return notConfigured("settings store")
	}
	path := settingsStore.Path()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := settingsStore.Save(domain.DefaultSettings()); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	cmd.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	if settingsStore == nil {
		return notConfigured("settings store")
	}
	s, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Printf("%s API key: ", args[0])
	key := readSecret(cmd.InOrStdin())
	cmd.Println()
	if key == "" {
		return errors.New("no key entered")
	}

	switch args[0] {
	case "congress":
		s.Congress.APIKey = key
	case "openstates":
		s.OpenStates.APIKey = key
	default:
		return fmt.Errorf("unknown key %q: %w", args[0], domain.ErrInvalidInput)
	}

	if err := settingsStore.Save(s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Saved %s API key %s\n", args[0], maskAPIKey(key))
	return nil
}

// readSecret reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
