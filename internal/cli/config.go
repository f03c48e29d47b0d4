package cli

import (
	"fmt"
	"time"
)

// Config is the resolved, validated configuration both subcommands build
// from viper-bound flags/env.
type Config struct {
	DataDir     string
	Workers     int
	MetricsAddr string
	LogLevel    string

	// Bench-only.
	BenchDuration time.Duration
	BenchChunks   int
	BenchRadius   int32
}

// Validate checks the fields every subcommand relies on.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (0 selects a default)")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}
