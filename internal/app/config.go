package app

import (
	"errors"
	"strings"
)

// Config holds the process-level settings an App is created with. Everything
// else comes from the configuration files.
type Config struct {
	// ConfigPaths are .hcl files or directories, loaded in order.
	ConfigPaths []string

	// LogFormat and LogLevel override the file settings when non-empty.
	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a normalized copy.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	return &cfg, nil
}
