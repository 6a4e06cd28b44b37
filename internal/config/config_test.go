package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Canon.EigenGapTolerance != 1e-6 {
		t.Errorf("expected eigen gap tolerance 1e-6, got %g", cfg.Canon.EigenGapTolerance)
	}
	if cfg.Canon.KeyTolerance != 1e-5 {
		t.Errorf("expected key tolerance 1e-5, got %g", cfg.Canon.KeyTolerance)
	}
	if cfg.Canon.Precision != canon.Float32Precision {
		t.Errorf("expected float32 precision, got %g", cfg.Canon.Precision)
	}
	if cfg.Canon.AllowAmbiguous {
		t.Error("expected allow_ambiguous to be false by default")
	}

	if cfg.Output.Format != "ascii" {
		t.Errorf("expected format ascii, got %s", cfg.Output.Format)
	}
	if cfg.Output.Suffix != "_wm" {
		t.Errorf("expected suffix _wm, got %s", cfg.Output.Suffix)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Server.MaxFacets != 250000 {
		t.Errorf("expected max facets 250000, got %d", cfg.Server.MaxFacets)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "stlmark.yaml")

	yamlContent := `
canon:
  eigen_gap_tolerance: 0.001
  key_tolerance: 0.00002
  precision: 0
  allow_ambiguous: true

output:
  format: binary
  suffix: "-marked"

batch:
  workers: 3

watch:
  debounce: 2s

server:
  addr: "127.0.0.1:9000"
  max_upload_mb: 8
  max_facets: 1000

logging:
  level: "debug"
  log_file: "stlmark.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Canon.EigenGapTolerance != 0.001 {
		t.Errorf("expected eigen gap tolerance 0.001, got %g", cfg.Canon.EigenGapTolerance)
	}
	if !cfg.Canon.AllowAmbiguous {
		t.Error("expected allow_ambiguous to be true")
	}
	if cfg.OutputFormat() != stl.FormatBinary {
		t.Errorf("expected binary output, got %v", cfg.OutputFormat())
	}
	if cfg.Output.Suffix != "-marked" {
		t.Errorf("expected suffix -marked, got %s", cfg.Output.Suffix)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("expected debounce 2s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.MaxUploadMB != 8 || cfg.Server.MaxFacets != 1000 {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Logging.LogFile != "stlmark.log" {
		t.Errorf("expected log file 'stlmark.log', got %s", cfg.Logging.LogFile)
	}

	opts := cfg.CanonOptions()
	if opts.KeyTolerance != 0.00002 || opts.Precision != 0 || !opts.AllowAmbiguous {
		t.Errorf("unexpected canon options %+v", opts)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
batch:
  workers: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/stlmark.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Canon.KeyTolerance = 0
	cfg.Canon.Precision = -1
	cfg.Server.MaxFacets = 0
	cfg.Output.Format = "obj"
	cfg.Output.Suffix = ""
	cfg.Batch.Workers = -1
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"key_tolerance", "canon.precision", "server.max_facets", "output.format", "output.suffix", "batch.workers", "logging.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(FileName, []byte("batch:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find stlmark.yaml in current directory")
	}
}

func TestRegisterFlags(t *testing.T) {
	var f Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Register(fs)

	if err := fs.Parse([]string{"--debug", "--format", "binary", "--workers", "4", "--allow-ambiguous"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg := Default()
	applyFlags(cfg, &f)
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.OutputFormat() != stl.FormatBinary {
		t.Error("expected binary output")
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Batch.Workers)
	}
	if !cfg.Canon.AllowAmbiguous {
		t.Error("expected allow_ambiguous from flag")
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "stlmark.yaml")

	yamlContent := `
output:
  format: binary
batch:
  workers: 2
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{ConfigPath: configPath, Workers: 8})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers come from the flag, format from the file
	if cfg.Batch.Workers != 8 {
		t.Errorf("expected 8 workers from flag, got %d", cfg.Batch.Workers)
	}
	if cfg.Output.Format != "binary" {
		t.Errorf("expected binary from file, got %s", cfg.Output.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	if _, err := Load(&Flags{ConfigPath: "/nonexistent/stlmark.yaml"}); err == nil {
		t.Error("expected error for missing explicit config file")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "stlmark.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: obj\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(&Flags{ConfigPath: configPath}); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stlmark.yaml")

	cfg := Default()
	cfg.Batch.Workers = 6
	cfg.Watch.Debounce = time.Second
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Batch.Workers != 6 {
		t.Errorf("expected 6 workers after reload, got %d", loaded.Batch.Workers)
	}
	if loaded.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s after reload, got %v", loaded.Watch.Debounce)
	}
}
