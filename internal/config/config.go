// Package config loads the process-level configuration the core reads but
// does not otherwise parse (§6): num_workers, the default per-problem time
// limit, and the ambient stack's own logging/database/server settings.
// Grounded on aatumaykin/nexbot's internal/config (TOML via BurntSushi,
// defaults applied after unmarshal).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the whole process configuration file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Grading  GradingConfig  `toml:"grading"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig configures the thin HTTP front door (§6's out-of-scope
// presentation layer — only enough to drive submit/get_submission_view).
type ServerConfig struct {
	Address string `toml:"address"`
}

// DatabaseConfig configures the persistence layer (C1).
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// GradingConfig configures the Worker Pool (C3) and Sandbox Runner (C2).
type GradingConfig struct {
	// NumWorkers fixes N, the worker pool size, for the life of the
	// process (§6).
	NumWorkers int `toml:"num_workers"`
	// DefaultTimeLimitMs is loaded and defaulted to 1000, but no code path
	// reads it: models.AddProblem always takes an explicit limit, and every
	// problem carries its own time_limit_ms column (§3).
	DefaultTimeLimitMs int `toml:"default_time_limit_ms"`
	TempDir            string `toml:"temp_dir"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Load reads and parses a TOML config file at path, applying defaults for
// anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "kjudge.db"
	}
	if cfg.Grading.NumWorkers <= 0 {
		cfg.Grading.NumWorkers = 4
	}
	if cfg.Grading.DefaultTimeLimitMs <= 0 {
		cfg.Grading.DefaultTimeLimitMs = 1000
	}
	if cfg.Grading.TempDir == "" {
		cfg.Grading.TempDir = "temp"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
