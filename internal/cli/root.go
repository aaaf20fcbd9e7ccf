// Package cli provides the command-line interface for the option pricer.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"optpricer/internal/config"
	apperrors "optpricer/internal/errors"
	"optpricer/internal/logging"
	"optpricer/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies. Fields left nil are filled from
// configuration before the first command runs.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.QuoteStore
}

// ExitCode maps a command error to a process exit status: 0 on success, 2 for
// rejected input and 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ve *apperrors.ValidationError
	if apperrors.As(err, &ve) {
		return 2
	}
	return 1
}

// Close releases the quote store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// init loads configuration, builds the logger and opens the quote store.
func (a *App) init(cmd *cobra.Command) error {
	if a.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		a.Config = cfg
		a.Logger = logging.NewLoggerWithConfig(cfg.LogSettings())
		a.Logger.Debug().Str("dir", cfg.Dir).Msg("Configuration loaded")
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.Logger))

	if a.Store == nil && a.Config.Store.Enabled {
		quoteStore, err := store.NewSQLiteStore(a.Config.Store.Path)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to open quote store, history is unavailable")
		} else {
			a.Store = quoteStore
			a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("Quote store opened")
		}
	}
	return nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "optpricer",
		Short: "European and barrier option pricer",
		Long: `optpricer prices European options in closed form, on a binomial lattice
and by Monte Carlo simulation, prices single-barrier options with rebates,
and produces price curves, delta surfaces and convergence tables.

Every quote is recorded in a local history. Use 'optpricer history' to list it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/optpricer)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addPricingCommands(rootCmd, app)
	rootCmd.AddCommand(newSweepCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("optpricer v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the pricer configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.Path()})
			}
			output.Println(app.Config.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Pricing")
	output.Field("Precision", "%d", cfg.Pricing.Precision)
	output.Field("Method", "%s", cfg.Pricing.DefaultMethod)
	output.Field("Tree steps", "%d", cfg.Binomial.Steps)
	output.Println()

	output.Bold("Monte Carlo")
	output.Field("Paths", "%d", cfg.MonteCarlo.Paths)
	output.Field("Workers", "%d", cfg.MonteCarlo.Workers)
	if cfg.MonteCarlo.Seed == 0 {
		output.Field("Seed", "clock")
	} else {
		output.Field("Seed", "%d", cfg.MonteCarlo.Seed)
	}
	output.Println()

	output.Bold("Sweeps")
	output.Field("Workers", "%d", cfg.Sweep.Workers)
	output.Println()

	output.Bold("Storage")
	output.Field("Enabled", "%v", cfg.Store.Enabled)
	output.Field("Path", "%s", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Field("Level", "%s", cfg.Log.Level)
	output.Field("Console", "%v", cfg.Log.Console)
	output.Field("File", "%v", cfg.Log.File)
	output.Field("Path", "%s", cfg.Log.Path)
}
