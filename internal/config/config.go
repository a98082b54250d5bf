package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures the click target, pacing limits, query defaults, and storage.
type Config struct {
	Clicker ClickerConfig `yaml:"clicker"`
	Query   QueryConfig   `yaml:"query"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ClickerConfig struct {
	// CSS selector of the target button; the DOM side is out of our hands,
	// this is passed through to whatever drives the page.
	Selector string `yaml:"selector"`
	// Delay bounds between clicks, milliseconds
	MinDelayMS int `yaml:"minDelayMs"`
	MaxDelayMS int `yaml:"maxDelayMs"`
	// Max clicks per hour and per day; 0 disables the bound
	MaxPerHour int `yaml:"maxPerHour"`
	MaxPerDay  int `yaml:"maxPerDay"`
	// Quiet hours (local) during which no clicks are dispatched
	QuietHours []int `yaml:"quietHours"`
	// Whether to record per-day hourly history
	TrackHistory bool `yaml:"trackHistory"`
}

type QueryConfig struct {
	// Rolling window for reports: 7, 30 or 90; anything else falls back to 30
	DefaultPeriodDays int `yaml:"defaultPeriodDays"`
	// Reporting UTC offset in minutes, clamped to ±840 (±14 h)
	TimezoneOffsetMinutes int `yaml:"timezoneOffsetMinutes"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
	// Debounce delay between state flushes, milliseconds
	FlushDelayMS int `yaml:"flushDelayMs"`
}

type MetricsConfig struct {
	// If empty, read from env METRICS_ADDR; empty still means disabled
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Clicker: ClickerConfig{
			Selector:     "#claim-button",
			MinDelayMS:   1500,
			MaxDelayMS:   4500,
			MaxPerHour:   120,
			MaxPerDay:    1000,
			QuietHours:   []int{2, 3, 4},
			TrackHistory: true,
		},
		Query:   QueryConfig{DefaultPeriodDays: 30, TimezoneOffsetMinutes: 0},
		Storage: StorageConfig{DBPath: "./clickpulse.db", FlushDelayMS: 5000},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = os.Getenv("CLICKPULSE_DB")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
	if v := os.Getenv("CLICKPULSE_TZ_OFFSET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Query.TimezoneOffsetMinutes = n
		}
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
