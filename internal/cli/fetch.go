package cli

import (
	"fmt"
	"strings"

	"github.com/klimadata/euets/internal/logger"
	"github.com/klimadata/euets/pkg/catalog"
	"github.com/spf13/cobra"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the dataset catalog",
		Long: `Fetch the EU ETS datahub catalog and list its datasets.

By default only the datasets visible on the default page are fetched.
Use --full to drive a browser through every year tab and merge the
results; this reaches datasets the plain page does not show.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, full)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "crawl every year tab with a browser")

	return cmd
}

func runFetch(cmd *cobra.Command, full bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fetcher, err := buildFetcher(cmd.Context(), cfg, full)
	if err != nil {
		return err
	}

	var result *catalog.Result
	if full {
		// The browser crawl manages its own pacing; no fetch timeout here.
		result, err = fetcher.FetchAll(cmd.Context())
	} else {
		fetchCtx, cancel := fetchContext(cmd.Context(), cfg)
		defer cancel()
		result, err = fetcher.Fetch(fetchCtx)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	for _, perr := range result.Errors {
		logger.Warn("skipped unparseable record", logger.Fields{"dataset": perr.DatasetID, "reason": perr.Message})
	}

	if cfg.Settings.OutputFormat == "json" {
		return printJSON(result)
	}

	if len(result.Datasets) == 0 {
		fmt.Println("No datasets found")
		return nil
	}

	fmt.Printf("%-12s %-50s %-11s %-12s %s\n", "ID", "TITLE", "COVERAGE", "PUBLISHED", "STATUS")
	fmt.Println(strings.Repeat("-", 100))
	for _, d := range result.Datasets {
		published := ""
		if d.Published != nil {
			published = d.Published.Format("2006-01-02")
		}
		status := "current"
		if d.Superseded {
			status = "superseded"
		}
		fmt.Printf("%-12s %-50s %-11s %-12s %s\n", d.ID, truncate(d.Title, 50), d.Coverage, published, status)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
