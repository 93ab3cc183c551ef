// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the media acquisition pipeline.
type Config struct {
	Fetch    FetchConfig    `yaml:"fetch"`
	Extract  ExtractConfig  `yaml:"extract"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Channel  ChannelConfig  `yaml:"channel"`
	Job      JobConfig      `yaml:"job"`
	Artifact ArtifactConfig `yaml:"artifact"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FetchConfig configures outbound HTTP access.
type FetchConfig struct {
	UserAgent      string   `yaml:"user_agent,omitempty"`
	RequestTimeout Duration `yaml:"request_timeout,omitempty"`
	// HostInterval paces page fetches against a single host.
	HostInterval Duration `yaml:"host_interval,omitempty"`
	// Render enables headless-browser rendering for page fetches. Binary
	// downloads never render.
	Render        bool     `yaml:"render,omitempty"`
	RenderTimeout Duration `yaml:"render_timeout,omitempty"`
}

// ExtractConfig configures the pattern extractor.
type ExtractConfig struct {
	// IgnoreSubstrings drops any discovered URL containing one of these
	// fragments (asset paths, avatars, third-party widgets).
	IgnoreSubstrings []string `yaml:"ignore_substrings,omitempty"`
	MaxImages        int      `yaml:"max_images,omitempty"`
	MaxVideos        int      `yaml:"max_videos,omitempty"`
	MaxGifs          int      `yaml:"max_gifs,omitempty"`
	MaxVideoLinks    int      `yaml:"max_video_links,omitempty"`
}

// DeliveryConfig configures the delivery engine.
type DeliveryConfig struct {
	BatchSize int `yaml:"batch_size,omitempty"`
	// SendInterval throttles aggregate throughput to the output channel.
	SendInterval  Duration `yaml:"send_interval,omitempty"`
	RetryAttempts int      `yaml:"retry_attempts,omitempty"`
	RetryDelay    Duration `yaml:"retry_delay,omitempty"`
}

// LedgerConfig configures the delivered-media ledger. An empty path keeps the
// ledger in memory for the process lifetime; a path enables the SQLite-backed
// ledger that survives restarts.
type LedgerConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ChannelConfig configures the Telegram output channel.
type ChannelConfig struct {
	Token  string `yaml:"token,omitempty"`
	ChatID int64  `yaml:"chat_id,omitempty"`
}

// JobConfig configures the session job controller.
type JobConfig struct {
	// PageInterval paces seed URLs in video-links mode.
	PageInterval Duration `yaml:"page_interval,omitempty"`
	// SeedInterval paces seed URLs in media-scraper mode.
	SeedInterval Duration `yaml:"seed_interval,omitempty"`
	// MaxErrorLength bounds failure messages surfaced to callers.
	MaxErrorLength int `yaml:"max_error_length,omitempty"`
}

// ArtifactConfig configures video-links artifact generation.
type ArtifactConfig struct {
	Format string `yaml:"format,omitempty"` // "txt" or "xlsx"
	Dir    string `yaml:"dir,omitempty"`
}

// APIConfig configures the control HTTP server.
type APIConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console or json
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	// Substitute environment variables before parsing
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}

	return LoadFromBytes(data)
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults applies default values to the configuration.
func applyDefaults(cfg *Config) {
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if cfg.Fetch.RequestTimeout.IsZero() {
		cfg.Fetch.RequestTimeout = DurationFrom(30 * time.Second)
	}
	if cfg.Fetch.HostInterval.IsZero() {
		cfg.Fetch.HostInterval = DurationFrom(time.Second)
	}
	if cfg.Fetch.RenderTimeout.IsZero() {
		cfg.Fetch.RenderTimeout = DurationFrom(60 * time.Second)
	}

	if len(cfg.Extract.IgnoreSubstrings) == 0 {
		cfg.Extract.IgnoreSubstrings = []string{
			"/avatars/", "/styles/", "/smilies/", "/assets/",
			"cdninstagram.com", "/addonflare/", "/icons/",
		}
	}
	if cfg.Extract.MaxImages <= 0 {
		cfg.Extract.MaxImages = 50
	}
	if cfg.Extract.MaxVideos <= 0 {
		cfg.Extract.MaxVideos = 20
	}
	if cfg.Extract.MaxGifs <= 0 {
		cfg.Extract.MaxGifs = 10
	}
	if cfg.Extract.MaxVideoLinks <= 0 {
		cfg.Extract.MaxVideoLinks = 5
	}

	if cfg.Delivery.BatchSize <= 0 {
		cfg.Delivery.BatchSize = 10
	}
	if cfg.Delivery.SendInterval.IsZero() {
		cfg.Delivery.SendInterval = DurationFrom(2 * time.Second)
	}
	if cfg.Delivery.RetryAttempts <= 0 {
		cfg.Delivery.RetryAttempts = 2
	}
	if cfg.Delivery.RetryDelay.IsZero() {
		cfg.Delivery.RetryDelay = DurationFrom(5 * time.Second)
	}

	if cfg.Job.PageInterval.IsZero() {
		cfg.Job.PageInterval = DurationFrom(time.Second)
	}
	if cfg.Job.SeedInterval.IsZero() {
		cfg.Job.SeedInterval = DurationFrom(10 * time.Second)
	}
	if cfg.Job.MaxErrorLength <= 0 {
		cfg.Job.MaxErrorLength = 100
	}

	if cfg.Artifact.Format == "" {
		cfg.Artifact.Format = "txt"
	}
	if cfg.Artifact.Dir == "" {
		cfg.Artifact.Dir = "downloads"
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = ":8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Fetch.RequestTimeout.Duration < 0 {
		return fmt.Errorf("fetch.request_timeout cannot be negative")
	}
	if c.Delivery.BatchSize > 10 {
		return fmt.Errorf("delivery.batch_size cannot exceed 10 (channel media group limit)")
	}
	if c.Delivery.RetryAttempts < 0 {
		return fmt.Errorf("delivery.retry_attempts cannot be negative")
	}

	switch c.Artifact.Format {
	case "txt", "xlsx":
	default:
		return fmt.Errorf("unsupported artifact format: %s", c.Artifact.Format)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	return nil
}
