package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the dashboard service.
type Config struct {
	Listen     ListenConfig     `yaml:"listen"`
	Data       DataConfig       `yaml:"data"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Operations OperationsConfig `yaml:"operations"`
	Health     HealthConfig     `yaml:"health"`
	Log        LogConfig        `yaml:"log"`
}

// ListenConfig defines the HTTP bind address.
type ListenConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port pair the HTTP server listens on.
func (lc ListenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", lc.Bind, lc.Port)
}

// DataConfig selects where tables are loaded from.
type DataConfig struct {
	Source string `yaml:"source"` // "csv" or "postgres"
	Dir    string `yaml:"dir"`
	DSN    string `yaml:"dsn"`
	Watch  *bool  `yaml:"watch,omitempty"`
	// WatchDebounce is the quiet period before changed files are reloaded.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// WatchEnabled reports whether CSV changes trigger a reload. Defaults to true
// for the csv source.
func (dc DataConfig) WatchEnabled() bool {
	if dc.Source != SourceCSV {
		return false
	}
	if dc.Watch != nil {
		return *dc.Watch
	}
	return true
}

// DashboardConfig holds presentation settings shared by all tabs.
type DashboardConfig struct {
	Year            int           `yaml:"year"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	TopN            int           `yaml:"top_n"`
}

// OperationsConfig holds thresholds for the operations tab.
type OperationsConfig struct {
	LowStockThreshold int `yaml:"low_stock_threshold"`
	OverdueHours      int `yaml:"overdue_hours"`
}

// HealthConfig controls the periodic data-source check.
type HealthConfig struct {
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Data source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Default returns a configuration with every default applied. It is used when
// no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		if val, ok := os.LookupEnv(string(varName)); ok {
			return []byte(val)
		}
		return match
	})
}

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
		slog.Debug("env file loaded", "path", p)
	}
	return nil
}

// Load reads and parses a YAML config file with env var substitution.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = substituteEnvVars(data)

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the default configuration when
// the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	if cfg.Listen.Bind == "" {
		cfg.Listen.Bind = "127.0.0.1"
	}
	if cfg.Listen.Port == 0 {
		cfg.Listen.Port = 8050
	}
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceCSV
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Data.WatchDebounce == 0 {
		cfg.Data.WatchDebounce = 500 * time.Millisecond
	}
	if cfg.Dashboard.Year == 0 {
		cfg.Dashboard.Year = 2025
	}
	if cfg.Dashboard.RefreshInterval == 0 {
		cfg.Dashboard.RefreshInterval = 30 * time.Second
	}
	if cfg.Dashboard.TopN == 0 {
		cfg.Dashboard.TopN = 10
	}
	if cfg.Operations.LowStockThreshold == 0 {
		cfg.Operations.LowStockThreshold = 5
	}
	if cfg.Operations.OverdueHours == 0 {
		cfg.Operations.OverdueHours = 24
	}
	if cfg.Health.Interval == 0 {
		cfg.Health.Interval = 30 * time.Second
	}
	if cfg.Health.Timeout == 0 {
		cfg.Health.Timeout = 5 * time.Second
	}
	if cfg.Health.FailureThreshold == 0 {
		cfg.Health.FailureThreshold = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validate(cfg *Config) error {
	switch cfg.Data.Source {
	case "", SourceCSV:
	case SourcePostgres:
		if cfg.Data.DSN == "" {
			return fmt.Errorf("data: dsn is required for source %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("data: unsupported source %q (must be csv or postgres)", cfg.Data.Source)
	}
	if cfg.Listen.Port < 0 || cfg.Listen.Port > 65535 {
		return fmt.Errorf("listen: port %d out of range", cfg.Listen.Port)
	}
	if cfg.Dashboard.Year < 0 {
		return fmt.Errorf("dashboard: year must not be negative")
	}
	if cfg.Dashboard.TopN < 0 {
		return fmt.Errorf("dashboard: top_n must not be negative")
	}
	if cfg.Operations.LowStockThreshold < 0 || cfg.Operations.OverdueHours < 0 {
		return fmt.Errorf("operations: thresholds must not be negative")
	}
	if cfg.Health.FailureThreshold < 0 {
		return fmt.Errorf("health: failure_threshold must not be negative")
	}
	if cfg.Data.WatchDebounce < 0 {
		return fmt.Errorf("data: watch_debounce must not be negative")
	}
	if cfg.Health.Interval < 0 {
		return fmt.Errorf("health: interval must not be negative")
	}
	if cfg.Health.Timeout < 0 {
		return fmt.Errorf("health: timeout must not be negative")
	}
	if cfg.Dashboard.RefreshInterval < 0 {
		return fmt.Errorf("dashboard: refresh_interval must not be negative")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}
	return nil
}

// NewLogger builds the slog logger described by the log section.
func (lc LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
