// Package config loads runtime settings from the environment and job
// definitions from JSON or YAML files.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds process-wide settings, read from XFER_* environment
// variables (which the .env file loaded in main may populate).
type Config struct {
	LogFormat    string     `default:"text" split_words:"true"`
	LogLevel     slog.Level `default:"info" split_words:"true"`
	LogAddSource bool       `default:"false" split_words:"true"`
	LogFilePath  string     `split_words:"true"`

	ConnectTimeout time.Duration `default:"10s" split_words:"true"`
	HTTPTimeout    time.Duration `default:"30s" split_words:"true"`

	// EnvDir holds the per-environment dotenv files selected with --env.
	EnvDir string `default:"config" split_words:"true"`

	DopplerBinary  string `default:"doppler" split_words:"true"`
	DopplerProject string `split_words:"true"`
	DopplerConfig  string `split_words:"true"`
	SecretsDir     string `split_words:"true"`
	SecretsDotenv  string `default:".env.secrets" split_words:"true"`
}

// LoadConfig reads the XFER_* environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("xfer", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("XFER_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return &cfg, nil
}
