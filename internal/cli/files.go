package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewFilesCmd creates the files command.
func NewFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files ID",
		Short: "List the files inside a dataset's archive",
		Long: `List the files inside a dataset's zip archive without downloading it.

The listing is read via HTTP range requests against the remote archive,
so only a few kilobytes are transferred regardless of archive size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, args[0])
		},
	}

	return cmd
}

func runFiles(cmd *cobra.Command, id string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fetcher, err := buildFetcher(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}

	dataset, err := findDataset(cmd.Context(), cfg, fetcher, id)
	if err != nil {
		return err
	}

	files, err := dataset.Files(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list archive files: %w", err)
	}

	if cfg.Settings.OutputFormat == "json" {
		return printJSON(files)
	}

	if len(files) == 0 {
		fmt.Println("Archive is empty")
		return nil
	}

	fmt.Printf("%-60s %12s %s\n", "NAME", "SIZE", "TYPE")
	fmt.Println(strings.Repeat("-", 80))
	for _, f := range files {
		fmt.Printf("%-60s %12d %s\n", f.Name, f.Size, f.Type)
	}

	return nil
}
