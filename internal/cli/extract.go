package cli

import (
	"fmt"

	"github.com/klimadata/euets/internal/logger"
	"github.com/spf13/cobra"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	var (
		pattern string
		dest    string
	)

	cmd := &cobra.Command{
		Use:   "extract ID",
		Short: "Extract files from a dataset's archive",
		Long: `Extract files from a dataset's zip archive without downloading it whole.

Entries are selected by a glob pattern matched against their full path
inside the archive; '*' also crosses directory separators, so the
default pattern extracts everything. Only matching entries are
transferred.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], pattern, dest)
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*", "glob pattern selecting archive entries")
	cmd.Flags().StringVarP(&dest, "dest", "d", ".", "destination directory or URL")

	return cmd
}

func runExtract(cmd *cobra.Command, id, pattern, dest string) error {
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

	written, err := dataset.Extract(cmd.Context(), pattern, dest)
	if err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}

	if len(written) == 0 {
		logger.Warn("No archive entries matched", logger.Fields{"dataset": id, "pattern": pattern})
		return nil
	}

	logger.Info("Extraction complete", logger.Fields{"dataset": id, "files": len(written)})
	for _, path := range written {
		fmt.Println(path)
	}
	return nil
}
