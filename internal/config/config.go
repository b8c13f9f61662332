// Package config loads codescan settings with viper.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/codec"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// Output formats accepted by scan and batch.
var validFormats = []string{"text", "json", "csv", "yaml"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Backends: BackendsConfig{Primary: true, Secondary: true, TryHarder: true},
		Search:   SearchConfig{MaxPixels: codec.DefaultMaxPixels},
		Output:   OutputConfig{Format: "text"},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			BatchWorkers:    4,
		},
		Batch: BatchConfig{
			Workers:         runtime.NumCPU(),
			Recursive:       false,
			ContinueOnError: true,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Search.MaxPixels <= 0 {
		return fmt.Errorf("invalid search max pixels: %d (must be positive)", c.Search.MaxPixels)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}
	if c.Server.BatchWorkers <= 0 {
		return fmt.Errorf("invalid server batch workers: %d (must be positive)", c.Server.BatchWorkers)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	for _, p := range slices.Concat(c.Batch.Include, c.Batch.Exclude) {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid batch pattern %q: %w", p, err)
		}
	}
	return nil
}

// Pipeline converts the config to the decode pipeline configuration.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Backends: barcode.Config{
			Primary:   c.Backends.Primary,
			Secondary: c.Backends.Secondary,
			TryHarder: c.Backends.TryHarder,
		},
		MaxPixels: c.Search.MaxPixels,
	}
}
