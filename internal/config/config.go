// Package config handles stlmark configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/stl"
)

// Config holds all stlmark settings.
type Config struct {
	Canon   CanonConfig   `yaml:"canon"`
	Output  OutputConfig  `yaml:"output"`
	Batch   BatchConfig   `yaml:"batch"`
	Watch   WatchConfig   `yaml:"watch"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// CanonConfig holds the tolerances of the canonical ordering.
type CanonConfig struct {
	EigenGapTolerance float64 `yaml:"eigen_gap_tolerance"`
	KeyTolerance      float64 `yaml:"key_tolerance"`
	Precision         float64 `yaml:"precision"` // relative rounding of stored coordinates, 0 = exact
	AllowAmbiguous    bool    `yaml:"allow_ambiguous"`
}

// OutputConfig holds settings for written STL files.
type OutputConfig struct {
	Format string `yaml:"format"` // ascii or binary
	Suffix string `yaml:"suffix"` // appended to derived output names
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Workers int `yaml:"workers"` // 0 = one per CPU
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	MaxFacets   int    `yaml:"max_facets"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := canon.DefaultOptions()
	return &Config{
		Canon: CanonConfig{
			EigenGapTolerance: opts.EigenGapTolerance,
			KeyTolerance:      opts.KeyTolerance,
			Precision:         opts.Precision,
			AllowAmbiguous:    false,
		},
		Output: OutputConfig{
			Format: "ascii",
			Suffix: "_wm",
		},
		Batch: BatchConfig{
			Workers: 0,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 64,
			MaxFacets:   250000,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Canon.EigenGapTolerance <= 0 {
		errs = append(errs, fmt.Errorf("canon.eigen_gap_tolerance must be positive, got %g", c.Canon.EigenGapTolerance))
	}
	if c.Canon.KeyTolerance <= 0 {
		errs = append(errs, fmt.Errorf("canon.key_tolerance must be positive, got %g", c.Canon.KeyTolerance))
	}
	if c.Canon.Precision < 0 {
		errs = append(errs, fmt.Errorf("canon.precision must not be negative, got %g", c.Canon.Precision))
	}
	if _, err := stl.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if c.Output.Suffix == "" {
		errs = append(errs, errors.New("output.suffix must not be empty"))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}
	if c.Server.MaxFacets <= 0 {
		errs = append(errs, fmt.Errorf("server.max_facets must be positive, got %d", c.Server.MaxFacets))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// CanonOptions converts the canon section.
func (c *Config) CanonOptions() canon.Options {
	return canon.Options{
		EigenGapTolerance: c.Canon.EigenGapTolerance,
		KeyTolerance:      c.Canon.KeyTolerance,
		Precision:         c.Canon.Precision,
		AllowAmbiguous:    c.Canon.AllowAmbiguous,
	}
}

// OutputFormat returns the configured STL encoding, ASCII when invalid.
func (c *Config) OutputFormat() stl.Format {
	f, _ := stl.ParseFormat(c.Output.Format)
	return f
}
