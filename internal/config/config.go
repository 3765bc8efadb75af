// ABOUTME: TOML configuration for the stdflens command
// ABOUTME: Loads an optional file over defaults and builds the slog logger

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

var (
	ErrLogLevel     = errors.New("unknown log level")
	ErrLogFormat    = errors.New("unknown log format")
	ErrOutputFormat = errors.New("unknown output format")
	ErrWorkers      = errors.New("parse workers must be positive")
)

// Config : top-level configuration.
type Config struct {
	LogConfig LogConfig     `toml:"log_config"`
	Output    OutputConfig  `toml:"output"`
	Parse     ParseConfig   `toml:"parse"`
	Catalog   CatalogConfig `toml:"catalog"`
}

type LogConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

type OutputConfig struct {
	Format          string `toml:"format"`
	TopFailingTests int    `toml:"top_failing_tests"`
}

type ParseConfig struct {
	// Workers bounds how many files are decoded at once.
	Workers int `toml:"workers"`
}

type CatalogConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogConfig: LogConfig{LogLevel: "info", LogFormat: "text"},
		Output:    OutputConfig{Format: "table", TopFailingTests: 10},
		Parse:     ParseConfig{Workers: 4},
		Catalog:   CatalogConfig{Path: "stdflens.db"},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the command cannot act on.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogConfig.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogConfig.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrLogFormat, c.LogConfig.LogFormat)
	}
	switch strings.ToLower(c.Output.Format) {
	case "table", "json":
	default:
		return fmt.Errorf("%w: %q", ErrOutputFormat, c.Output.Format)
	}
	if c.Parse.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrWorkers, c.Parse.Workers)
	}
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrLogLevel, s)
	}
}

// NewLogger builds the command logger. Validate must have passed.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
