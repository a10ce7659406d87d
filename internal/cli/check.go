package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check BASELINE_ID",
		Short: "Check whether a newer dataset has been published",
		Long: `Check the catalog for a dataset newer than a known baseline.

Prints the id of the newest current dataset. The exit status is 0 when
a newer dataset exists and 1 otherwise, so the command can gate a
pipeline run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0])
		},
	}

	return cmd
}

func runCheck(cmd *cobra.Command, baselineID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fetcher, err := buildFetcher(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}

	fetchCtx, cancel := fetchContext(cmd.Context(), cfg)
	defer cancel()

	latest, newer, err := fetcher.CheckNewer(fetchCtx, baselineID)
	if err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}

	if cfg.Settings.OutputFormat == "json" {
		if err := printJSON(map[string]any{
			"baseline": baselineID,
			"latest":   latest,
			"newer":    newer,
		}); err != nil {
			return err
		}
	} else {
		fmt.Println(latest)
	}

	if !newer {
		return fmt.Errorf("no dataset newer than %s", baselineID)
	}
	return nil
}
