package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/klimadata/euets/internal/logger"
	"github.com/klimadata/euets/pkg/config"
	"github.com/spf13/cobra"
)

// TabWidth is the width of tabs in formatted output.
const TabWidth = 2

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and initialize euets configuration settings",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration settings",
		RunE:  runConfigShow,
	}

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

func runConfigShow(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tabWriter := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "SETTING\tVALUE")
	_, _ = fmt.Fprintln(tabWriter, "-------\t-----")
	_, _ = fmt.Fprintf(tabWriter, "catalog.url\t%s\n", cfg.Catalog.URL)
	_, _ = fmt.Fprintf(tabWriter, "catalog.user_agent\t%s\n", cfg.Catalog.UserAgent)
	_, _ = fmt.Fprintf(tabWriter, "catalog.fetch_timeout\t%s\n", cfg.Catalog.FetchTimeout)
	_, _ = fmt.Fprintf(tabWriter, "catalog.transfer_timeout\t%s\n", cfg.Catalog.TransferTimeout)
	_, _ = fmt.Fprintf(tabWriter, "browser.headless\t%t\n", cfg.Browser.Headless)
	_, _ = fmt.Fprintf(tabWriter, "browser.tab_settle_delay\t%s\n", cfg.Browser.TabSettleDelay)
	_, _ = fmt.Fprintf(tabWriter, "settings.output_format\t%s\n", cfg.Settings.OutputFormat)
	_, _ = fmt.Fprintf(tabWriter, "settings.log_level\t%s\n", cfg.Settings.LogLevel)
	_ = tabWriter.Flush()

	if cfg.Storage.S3 != nil {
		fmt.Println("\nS3 storage:")
		fmt.Printf("  region: %s\n", cfg.Storage.S3.Region)
		if cfg.Storage.S3.Endpoint != "" {
			fmt.Printf("  endpoint: %s\n", cfg.Storage.S3.Endpoint)
		}
	}

	return nil
}

func runConfigInit(force bool) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
	}

	defaultConfig := config.DefaultConfig()
	if err := defaultConfig.SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save default configuration: %w", err)
	}

	logger.Info("Configuration file created", logger.Fields{"path": configPath})
	return nil
}
