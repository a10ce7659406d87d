package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klimadata/euets/internal/logger"
	"github.com/klimadata/euets/pkg/browser"
	"github.com/klimadata/euets/pkg/catalog"
	"github.com/klimadata/euets/pkg/config"
	"github.com/klimadata/euets/pkg/errors"
	httpclient "github.com/klimadata/euets/pkg/http"
	"github.com/klimadata/euets/pkg/scrape"
	"github.com/klimadata/euets/pkg/storage"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	LogLevel     *string
	OutputFormat *string
)

// loadConfig loads the configuration, applying CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}

	logger.InitLogger(cfg.Settings.LogLevel)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// buildFetcher assembles the catalog fetcher from the configuration. The
// browser renderer is only constructed when the command needs a full crawl.
func buildFetcher(ctx context.Context, cfg *config.Config, withBrowser bool) (*catalog.Fetcher, error) {
	resolver, err := storage.NewResolver(ctx, storageOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to set up storage backends: %w", err)
	}

	// The client carries the transfer timeout; catalog page fetches are
	// bounded separately via fetchContext.
	client := httpclient.NewClient(cfg.Catalog.TransferTimeout, cfg.Catalog.UserAgent)

	var seriesKey scrape.SeriesKeyFunc
	if cfg.Catalog.SeriesKeyScript != "" {
		seriesKey = scrape.NewScriptSeriesKey(cfg.Catalog.SeriesKeyScript)
	}
	parser := scrape.NewParser(seriesKey)

	var renderer catalog.Renderer
	if withBrowser {
		renderer = browser.NewRenderer(cfg.Browser)
	}

	return catalog.NewFetcher(client, parser, resolver, cfg.Catalog.URL, renderer), nil
}

func storageOptions(cfg *config.Config) storage.Options {
	opts := storage.Options{}
	if cfg.Storage.S3 != nil {
		opts.S3 = &storage.S3Options{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		}
	}
	return opts
}

// fetchContext bounds a catalog page fetch. Archive transfers run under the
// command context directly, limited by the client's transfer timeout.
func fetchContext(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cfg.Catalog.FetchTimeout)
}

// findDataset fetches the catalog and returns the dataset with the given id.
func findDataset(ctx context.Context, cfg *config.Config, fetcher *catalog.Fetcher, id string) (*catalog.Dataset, error) {
	fetchCtx, cancel := fetchContext(ctx, cfg)
	defer cancel()

	result, err := fetcher.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}
	dataset, ok := result.Find(id)
	if !ok {
		return nil, errors.Wrapf(errors.ErrDatasetNotFound, "%s", id)
	}
	return dataset, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
