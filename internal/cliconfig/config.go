// Package cliconfig loads the optional YAML configuration file shared by
// the chart-* command-line tools and wires up zerolog from it and from the
// -v/--log-level flag.
package cliconfig

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk tool configuration. Every field is optional; flags
// take precedence over whatever a config file sets.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Threads  int    `yaml:"threads"`
}

// Load reads path as YAML, or returns a zero Config if path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cliconfig.Load: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cliconfig.Load: %w", err)
	}

	return &cfg, nil
}

// Logger builds the zerolog.Logger a command should use: level is taken
// from levelFlag if non-empty, else cfg.LogLevel, else "info".
func Logger(cfg *Config, levelFlag string) zerolog.Logger {
	level := levelFlag
	if level == "" {
		level = cfg.LogLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(parsed).
		With().Timestamp().Logger()
}
