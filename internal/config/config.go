// Package config provides configuration management for the pricer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/logging"
	"optpricer/internal/models"
	"optpricer/internal/numeric"
)

// EnvPrefix prefixes every environment override, e.g. OPTPRICER_BINOMIAL_STEPS.
const EnvPrefix = "OPTPRICER"

// Config holds all application configuration.
type Config struct {
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Binomial   BinomialConfig   `mapstructure:"binomial"`
	MonteCarlo MonteCarloConfig `mapstructure:"montecarlo"`
	Sweep      SweepConfig      `mapstructure:"sweep"`
	Store      StoreConfig      `mapstructure:"store"`
	Log        LogConfig        `mapstructure:"log"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// PricingConfig holds settings shared by every engine.
type PricingConfig struct {
	Precision     int    `mapstructure:"precision"`
	DefaultMethod string `mapstructure:"default_method"` // formula, bitree, simulation
}

// BinomialConfig holds lattice settings.
type BinomialConfig struct {
	Steps int `mapstructure:"steps"`
}

// MonteCarloConfig holds simulation settings.
type MonteCarloConfig struct {
	Paths   int    `mapstructure:"paths"`
	Workers int    `mapstructure:"workers"` // 0 runs inline
	Seed    uint64 `mapstructure:"seed"`    // 0 seeds from the clock
}

// SweepConfig holds sweep settings.
type SweepConfig struct {
	Workers int `mapstructure:"workers"` // 0 uses every CPU
}

// StoreConfig holds quote history settings.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/optpricer"
	}
	return filepath.Join(home, ".config", "optpricer")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by the commented template and loading continues
// with its values.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := newViper(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}
	cfg.Dir = configDir
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration for configDir without touching
// the filesystem.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	cfg := &Config{}
	// Defaults always decode.
	_ = newViper(configDir).Unmarshal(cfg)
	cfg.Dir = configDir
	cfg.expandPaths()
	return cfg
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("pricing.precision", numeric.DefaultPrecision)
	v.SetDefault("pricing.default_method", string(models.MethodFormula))
	v.SetDefault("binomial.steps", 100)
	v.SetDefault("montecarlo.paths", 100000)
	v.SetDefault("montecarlo.workers", 0)
	v.SetDefault("montecarlo.seed", 0)
	v.SetDefault("sweep.workers", 0)
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", filepath.Join(configDir, "quotes.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("log.file", true)
	v.SetDefault("log.path", filepath.Join(configDir, "logs", "optpricer.log"))
	v.SetDefault("log.max_size", 20)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadDotEnv loads .env from the working directory and then from the config
// directory. Variables already set are never overwritten.
func loadDotEnv(configDir string) error {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) expandPaths() {
	c.Store.Path = expandHome(c.Store.Path)
	c.Log.Path = expandHome(c.Log.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Pricing.Precision < 0 || c.Pricing.Precision > numeric.MaxPrecision {
		return fmt.Errorf("%w: pricing.precision must be between 0 and %d", apperrors.ErrConfigInvalid, numeric.MaxPrecision)
	}
	switch models.PricingMethod(c.Pricing.DefaultMethod) {
	case models.MethodFormula, models.MethodBinomial, models.MethodSimulation:
	default:
		return fmt.Errorf("%w: invalid pricing.default_method %q (must be formula, bitree or simulation)",
			apperrors.ErrConfigInvalid, c.Pricing.DefaultMethod)
	}
	if c.Binomial.Steps <= 0 {
		return fmt.Errorf("%w: binomial.steps must be positive", apperrors.ErrConfigInvalid)
	}
	if c.MonteCarlo.Paths <= 0 {
		return fmt.Errorf("%w: montecarlo.paths must be positive", apperrors.ErrConfigInvalid)
	}
	if c.MonteCarlo.Workers < 0 {
		return fmt.Errorf("%w: montecarlo.workers must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("%w: sweep.workers must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required when the store is enabled", apperrors.ErrConfigInvalid)
	}
	return nil
}

// LogSettings converts the [log] section for the logging package.
func (c *Config) LogSettings() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Log.Level,
		Console:    c.Log.Console,
		File:       c.Log.File,
		FilePath:   c.Log.Path,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}

// Path returns the location of config.toml.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, "config.toml")
}
