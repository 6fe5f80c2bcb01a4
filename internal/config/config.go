// Package config loads tool settings from an optional TOML file with
// OPINIONTRACE_* environment overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvConfigPath names the environment variable pointing at the config
// file when --config is not given.
const EnvConfigPath = "OPINIONTRACE_CONFIG"

// DefaultPath is the config file looked up when nothing else is given.
const DefaultPath = "opiniontrace.toml"

// Config carries the tool settings.
type Config struct {
	Extractor ExtractorConfig `toml:"extractor"`
	Reasons   ReasonsConfig   `toml:"reasons"`
	Output    OutputConfig    `toml:"output"`
	Batch     BatchConfig     `toml:"batch"`
}

// ExtractorConfig describes the external composition-engine command
// used for live queries.
type ExtractorConfig struct {
	Command        []string `toml:"command"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Timeout returns the configured extractor timeout.
func (c ExtractorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReasonsConfig points at an external reason table.
type ReasonsConfig struct {
	Table string `toml:"table"`
	Watch bool   `toml:"watch"`
}

// OutputConfig holds rendering defaults; flags override per run.
type OutputConfig struct {
	Format     string `toml:"format"`
	Color      string `toml:"color"`
	ValueWidth int    `toml:"value_width"`
}

// BatchConfig holds batch-mode defaults.
type BatchConfig struct {
	Jobs int `toml:"jobs"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Extractor: ExtractorConfig{TimeoutSeconds: 60},
		Output:    OutputConfig{Color: "auto", ValueWidth: 48},
		Batch:     BatchConfig{Jobs: runtime.NumCPU()},
	}
}

// Load resolves and reads the configuration. File resolution order:
// the explicit path, $OPINIONTRACE_CONFIG, ./opiniontrace.toml. Only
// an explicitly named file is required to exist. A .env file is loaded
// first, then OPINIONTRACE_* variables override individual fields, so
// env always wins over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	resolved, required := resolvePath(path)
	if _, err := toml.DecodeFile(resolved, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", resolved, err)
		}
		if required {
			return nil, fmt.Errorf("config file %s: %w", resolved, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func resolvePath(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPINIONTRACE_EXTRACTOR"); v != "" {
		cfg.Extractor.Command = strings.Fields(v)
	}
	if v := os.Getenv("OPINIONTRACE_REASONS"); v != "" {
		cfg.Reasons.Table = v
	}
	if v := os.Getenv("OPINIONTRACE_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("OPINIONTRACE_COLOR"); v != "" {
		cfg.Output.Color = v
	}
	if v := os.Getenv("OPINIONTRACE_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Batch.Jobs = n
		}
	}
}
