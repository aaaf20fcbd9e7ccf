package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Option Pricer Configuration
# Every key can be overridden by an environment variable named
# OPTPRICER_<SECTION>_<KEY>, e.g. OPTPRICER_BINOMIAL_STEPS=500.

[pricing]
# Decimal places results are rounded to (0-12)
precision = 4
# Method used by "price" when --method is omitted: formula, bitree, simulation
default_method = "formula"

[binomial]
# Number of time steps in the lattice
steps = 100

[montecarlo]
# Number of simulated paths
paths = 100000
# Worker goroutines; 0 runs every path on one goroutine
workers = 0
# Random seed; 0 seeds from the clock
seed = 0

[sweep]
# Worker goroutines for sweeps; 0 uses every CPU
workers = 0

[store]
# Record every quote in a local SQLite database
enabled = true
# Database file (defaults to quotes.db in the config directory)
# path = "~/.config/optpricer/quotes.db"

[log]
# debug, info, warn, error
level = "info"
# Mirror log lines to stderr
console = false
# Write rotated log files
file = true
# path = "~/.config/optpricer/logs/optpricer.log"
# Rotation: megabytes per file, files kept, days kept
max_size = 20
max_backups = 5
max_age = 30
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
