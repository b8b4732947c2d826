// Package config loads the run configuration. Values are layered:
// CLI flags > environment variables > .env file > struct defaults.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/snarg/batchscribe/internal/engine"
)

type Config struct {
	InputDir  string `env:"INPUT_DIR" envDefault:"input"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"output"`

	ModelSize string `env:"MODEL_SIZE" envDefault:"medium"`
	Language  string `env:"LANGUAGE_HINT" envDefault:"ja"`
	Backend   string `env:"ENGINE_BACKEND" envDefault:"cli"`

	// cli backend
	WhisperBin      string `env:"WHISPER_BIN" envDefault:"whisper-cli"`
	WhisperModelDir string `env:"WHISPER_MODEL_DIR" envDefault:"models"`

	// server backend
	EngineURL    string `env:"ENGINE_URL" envDefault:"http://localhost:8000"`
	EngineAPIKey string `env:"ENGINE_API_KEY"`

	// StagingDir overrides where scratch copies go; empty means the
	// system temp directory.
	StagingDir string `env:"STAGING_DIR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogDir, when set, adds a {yyyyMMddHHmm}.log file next to console output.
	LogDir string `env:"LOG_DIR"`

	Watch bool `env:"WATCH" envDefault:"false"`

	// MetricsFile, when set, receives a Prometheus textfile snapshot at exit.
	MetricsFile string `env:"METRICS_FILE"`
}

// Overrides holds CLI flag values that take priority over env vars.
// Empty strings (and a nil Watch) mean the flag was not given.
type Overrides struct {
	EnvFile   string
	InputDir  string
	OutputDir string
	ModelSize string
	Language  string
	Backend   string
	LogLevel  string
	LogDir    string
	Watch     *bool
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.InputDir != "" {
		cfg.InputDir = overrides.InputDir
	}
	if overrides.OutputDir != "" {
		cfg.OutputDir = overrides.OutputDir
	}
	if overrides.ModelSize != "" {
		cfg.ModelSize = overrides.ModelSize
	}
	if overrides.Language != "" {
		cfg.Language = overrides.Language
	}
	if overrides.Backend != "" {
		cfg.Backend = overrides.Backend
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.LogDir != "" {
		cfg.LogDir = overrides.LogDir
	}
	if overrides.Watch != nil {
		cfg.Watch = *overrides.Watch
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects values that would otherwise only fail deep inside
// the run, so a typo'd model size dies before the engine loads.
func (c *Config) validate() error {
	if _, err := engine.ParseModelSize(c.ModelSize); err != nil {
		return err
	}
	if _, err := engine.ParseBackend(c.Backend); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unknown log level %q: %w", c.LogLevel, err)
	}
	return nil
}
