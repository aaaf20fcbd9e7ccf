package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "optpricer/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_CreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("template not written: %v", err)
	}

	if cfg.Pricing.Precision != 4 || cfg.Pricing.DefaultMethod != "formula" {
		t.Errorf("pricing = %+v", cfg.Pricing)
	}
	if cfg.Binomial.Steps != 100 || cfg.MonteCarlo.Paths != 100000 || cfg.MonteCarlo.Workers != 0 {
		t.Errorf("engines = %+v %+v", cfg.Binomial, cfg.MonteCarlo)
	}
	if cfg.Store.Path != filepath.Join(dir, "quotes.db") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Path() != filepath.Join(dir, "config.toml") {
		t.Errorf("Path() = %q", cfg.Path())
	}

	// The template must load cleanly on the next run.
	again, err := Load(dir)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if *again != *cfg {
		t.Errorf("template values differ from defaults:\n%+v\n%+v", again, cfg)
	}
}

func TestLoad_FileValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `
[pricing]
precision = 6
default_method = "simulation"

[montecarlo]
paths = 300000
workers = 4
seed = 42

[store]
enabled = false
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pricing.Precision != 6 || cfg.Pricing.DefaultMethod != "simulation" {
		t.Errorf("pricing = %+v", cfg.Pricing)
	}
	if cfg.MonteCarlo.Paths != 300000 || cfg.MonteCarlo.Workers != 4 || cfg.MonteCarlo.Seed != 42 {
		t.Errorf("montecarlo = %+v", cfg.MonteCarlo)
	}
	if cfg.Store.Enabled {
		t.Error("store should be disabled")
	}
	// Unset keys keep their defaults.
	if cfg.Binomial.Steps != 100 {
		t.Errorf("Binomial.Steps = %d, want 100", cfg.Binomial.Steps)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), "[binomial]\nsteps = 50\n")
	writeFile(t, filepath.Join(dir, ".env"), "OPTPRICER_MONTECARLO_PATHS=5000\n")
	t.Cleanup(func() { os.Unsetenv("OPTPRICER_MONTECARLO_PATHS") })
	t.Setenv("OPTPRICER_BINOMIAL_STEPS", "250")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Binomial.Steps != 250 {
		t.Errorf("Binomial.Steps = %d, want 250 from the environment", cfg.Binomial.Steps)
	}
	if cfg.MonteCarlo.Paths != 5000 {
		t.Errorf("MonteCarlo.Paths = %d, want 5000 from .env", cfg.MonteCarlo.Paths)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero steps", "[binomial]\nsteps = 0\n"},
		{"zero paths", "[montecarlo]\npaths = 0\n"},
		{"negative workers", "[montecarlo]\nworkers = -1\n"},
		{"precision too large", "[pricing]\nprecision = 13\n"},
		{"unknown method", "[pricing]\ndefault_method = \"guess\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "config.toml"), tt.content)

			_, err := Load(dir)
			if !errors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("Load() error = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), "[binomial\nsteps = ")

	if _, err := Load(dir); err == nil {
		t.Error("Load() should fail on malformed TOML")
	}
}

func TestDefault(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); !os.IsNotExist(err) {
		t.Error("Default() must not write files")
	}

	ls := cfg.LogSettings()
	if ls.FilePath != filepath.Join(dir, "logs", "optpricer.log") || ls.Level != "info" {
		t.Errorf("LogSettings() = %+v", ls)
	}
}
