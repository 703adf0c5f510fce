// Package config loads xl settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultDB is the database path used when XL_DB is unset.
const DefaultDB = ".xivlens/xivlens.db"

// Config holds every environment-driven setting.
type Config struct {
	DBPath   string  `env:"XL_DB" envDefault:".xivlens/xivlens.db"`
	APIKey   string  `env:"FFLOGS_API_KEY"`
	BaseURL  string  `env:"FFLOGS_BASE_URL" envDefault:"https://www.fflogs.com/v1"`
	RPS      float64 `env:"FFLOGS_RPS" envDefault:"5"`
	LogLevel string  `env:"XL_LOG_LEVEL" envDefault:"info"`
	Offline  bool    `env:"XL_OFFLINE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("XL_DB must not be empty")
	}
	if c.RPS <= 0 {
		return fmt.Errorf("FFLOGS_RPS must be positive, got %v", c.RPS)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("XL_LOG_LEVEL: %w", err)
	}
	return nil
}

// Remote reports whether the FFLogs API may be used.
func (c Config) Remote() bool { return !c.Offline && c.APIKey != "" }

// Logger builds the CLI logger at the configured level. Debug selects the
// development encoder; every other level uses the production one.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("XL_LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
