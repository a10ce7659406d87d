package cli

import (
	"fmt"

	"github.com/klimadata/euets/internal/logger"
	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Download a dataset's archive",
		Long: `Download a dataset's zip archive.

The destination may be a local path or carry a scheme such as s3:// to
target a configured storage backend. A directory destination names the
archive "<dataset id>.zip".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, args[0], dest)
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", ".", "destination path or URL")

	return cmd
}

func runDownload(cmd *cobra.Command, id, dest string) error {
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

	path, err := dataset.Download(cmd.Context(), dest)
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}

	logger.Info("Archive downloaded", logger.Fields{"dataset": id, "path": path})
	fmt.Println(path)
	return nil
}
