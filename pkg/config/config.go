// Package config provides configuration management for the euets retrieval
// tool. It handles loading, validating and saving YAML settings, with
// sensible defaults for everything the datahub client, the browser crawl and
// the storage backends need.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klimadata/euets/pkg/errors"
	"github.com/klimadata/euets/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// DefaultCatalogURL is the EU ETS datahub item page.
const DefaultCatalogURL = "https://www.eea.europa.eu/en/datahub/datahubitem-view/98f04097-26de-4fca-86c4-63834818c0c0"

// Default configuration values.
const (
	// DefaultFetchTimeout bounds a single catalog page request.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultTransferTimeout bounds one archive listing, download or
	// extraction. Archive transfers are expected to run much longer than a
	// catalog fetch, hence the separate category.
	DefaultTransferTimeout = 10 * time.Minute

	// DefaultTabSettleDelay is how long the full crawl waits after clicking
	// a year tab before reading the rendered page. The tab content has no
	// reliable selector to wait for.
	DefaultTabSettleDelay = 300 * time.Millisecond

	// DefaultUserAgent identifies this client to the datahub.
	DefaultUserAgent = "euets/1.0"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// Config represents the application configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog"`
	Browser  BrowserConfig  `yaml:"browser,omitempty"`
	Storage  StorageConfig  `yaml:"storage,omitempty"`
	Settings Settings       `yaml:"settings"`
}

// CatalogConfig configures the datahub endpoint and network behavior.
type CatalogConfig struct {
	URL       string `yaml:"url,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`

	// FetchTimeout applies to catalog page requests, TransferTimeout to
	// archive listing/download/extraction. The two categories are
	// configured independently.
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	TransferTimeout time.Duration `yaml:"transfer_timeout"`

	// SeriesKeyScript is an optional Tengo script overriding the
	// title-prefix heuristic used to group catalog records into series for
	// superseded marking. The script receives `id` and `title` and must
	// set `key`.
	SeriesKeyScript string `yaml:"series_key_script,omitempty"`
}

// BrowserConfig configures the browser-driven full crawl.
type BrowserConfig struct {
	Headless       bool          `yaml:"headless"`
	TabSettleDelay time.Duration `yaml:"tab_settle_delay"`
}

// StorageConfig configures the optional cloud storage backends. An empty
// section leaves the scheme registry with the local backend only.
type StorageConfig struct {
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config configures the s3:// destination backend.
type S3Config struct {
	Region       string `yaml:"region,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	UsePathStyle bool   `yaml:"use_path_style,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			URL:             DefaultCatalogURL,
			UserAgent:       DefaultUserAgent,
			FetchTimeout:    DefaultFetchTimeout,
			TransferTimeout: DefaultTransferTimeout,
		},
		Browser: BrowserConfig{
			Headless:       true,
			TabSettleDelay: DefaultTabSettleDelay,
		},
		Settings: Settings{
			OutputFormat: "text",
			LogLevel:     "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves configuration to a file, atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if c.Catalog.URL == "" {
		return errors.Wrap(errors.ErrConfigValidation, "catalog url cannot be empty")
	}
	if c.Catalog.FetchTimeout < 0 || c.Catalog.TransferTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "timeouts cannot be negative")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Settings.OutputFormat] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid output format %q", c.Settings.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Settings.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", c.Settings.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "euets", "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Catalog.URL == "" {
		c.Catalog.URL = defaults.Catalog.URL
	}
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaults.Catalog.UserAgent
	}
	if c.Catalog.FetchTimeout == 0 {
		c.Catalog.FetchTimeout = defaults.Catalog.FetchTimeout
	}
	if c.Catalog.TransferTimeout == 0 {
		c.Catalog.TransferTimeout = defaults.Catalog.TransferTimeout
	}
	if c.Browser.TabSettleDelay == 0 {
		c.Browser.TabSettleDelay = defaults.Browser.TabSettleDelay
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
