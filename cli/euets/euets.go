package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klimadata/euets/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	outputFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "euets",
		Short: "EU ETS dataset discovery and retrieval",
		Long: `euets discovers and retrieves EU Emissions Trading System datasets
from the EEA datahub:
- fetch: list the catalog's datasets and revisions
- files/extract: inspect and extract remote archives without full downloads
- check: gate pipelines on newly published revisions`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (text, json)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.LogLevel = &logLevel
	cli.OutputFormat = &outputFormat

	// Add subcommands
	cmd.AddCommand(
		cli.NewFetchCmd(),
		cli.NewFilesCmd(),
		cli.NewDownloadCmd(),
		cli.NewExtractCmd(),
		cli.NewCheckCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
