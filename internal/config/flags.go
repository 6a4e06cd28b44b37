package config

import "github.com/spf13/pflag"

// Flags holds command line overrides. Zero values leave the loaded
// configuration untouched.
type Flags struct {
	ConfigPath     string
	Debug          bool
	LogFile        string
	Format         string
	Workers        int
	AllowAmbiguous bool
	KeyTolerance   float64
}

// Register adds the flags to fs, typically a command's persistent flags.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file (rotated)")
	fs.StringVar(&f.Format, "format", "", "Output STL format: ascii or binary")
	fs.IntVar(&f.Workers, "workers", 0, "Files processed in parallel by batch commands")
	fs.BoolVar(&f.AllowAmbiguous, "allow-ambiguous", false, "Break ties in the canonical order by facet identity")
	fs.Float64Var(&f.KeyTolerance, "key-tolerance", 0, "Relative tolerance for equal facet keys")
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.Workers > 0 {
		cfg.Batch.Workers = f.Workers
	}
	if f.AllowAmbiguous {
		cfg.Canon.AllowAmbiguous = true
	}
	if f.KeyTolerance > 0 {
		cfg.Canon.KeyTolerance = f.KeyTolerance
	}
}
