// Package config provides configuration management for the incant CLI.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/incant/internal/cli/output"
)

// Config holds all CLI configuration options.
type Config struct {
	DialectsDir  string       `koanf:"dialects_dir"`
	StatePath    string       `koanf:"state_path"`
	RecordRuns   bool         `koanf:"record_runs"`
	Dialect      string       `koanf:"dialect"`
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
	LogLevel     string       `koanf:"log_level"`
	Server       ServerConfig `koanf:"server"`
	Watch        WatchConfig  `koanf:"watch"`
	Decode       DecodeConfig `koanf:"decode"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// ServerConfig holds configuration for incant serve.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	Watch             bool          `koanf:"watch"`
}

// WatchConfig holds configuration for source watching.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// DecodeConfig holds configuration for decoding.
type DecodeConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// Default configuration values.
const (
	DefaultDialectsDir       = "dialects"
	DefaultStateFile         = ".incant/state.db"
	DefaultOutput            = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel          = "warn"
	DefaultAddr              = ":8765"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultDebounce          = 100 * time.Millisecond
	DefaultConcurrency       = 4
)

// ConfigFileNames are searched for, in order, when no file is given.
var ConfigFileNames = []string{"incant.yaml", "incant.yml"}

// Validate checks values that koanf cannot type-check.
func (c *Config) Validate() error {
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Decode.Concurrency < 1 {
		return fmt.Errorf("decode.concurrency must be at least 1, got %d", c.Decode.Concurrency)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// Level returns the effective log level. Verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// ParseLevel parses debug, info, warn or error. Empty is warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
