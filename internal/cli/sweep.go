package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/logging"
	"optpricer/internal/sweep"
)

func newSweepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate pricers over parameter grids",
		Long: `Produce price curves, delta surfaces and lattice convergence tables as
CSV (default) or JSON.

Grids are written as from:to:step (inclusive) or as a comma separated list.`,
	}

	cmd.PersistentFlags().String("output", "", "write results to a file instead of stdout")
	cmd.PersistentFlags().Int("workers", 0, "sweep workers, 0 uses every CPU (default from config)")

	cmd.AddCommand(newSweepCurveCmd(app))
	cmd.AddCommand(newSweepDeltaCmd(app))
	cmd.AddCommand(newSweepConvergenceCmd(app))

	return cmd
}

func (a *App) sweepEngine(cmd *cobra.Command) (*sweep.Engine, error) {
	precision, err := a.precisionFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	return sweep.NewEngine(intFlag(cmd, "workers", a.Config.Sweep.Workers), precision)
}

func newSweepCurveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "curve",
		Short:   "Closed-form price against spot, strike, expiry or volatility",
		Example: `  optpricer sweep curve --axis spot --grid 40:80:0.5 --spot 60 --strike 65 --rate 0.08 --expiry 0.25 --vol 0.3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			axisName, _ := cmd.Flags().GetString("axis")
			axis, err := sweep.ParseAxis(axisName)
			if err != nil {
				return err
			}
			grid, _ := cmd.Flags().GetString("grid")
			from, to, step, err := parseRange(grid)
			if err != nil {
				return err
			}
			base, err := instrumentFromFlags(cmd)
			if err != nil {
				return err
			}
			engine, err := app.sweepEngine(cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			points, err := engine.PriceCurve(cmd.Context(), base, axis, from, to, step)
			logging.LogSweep(logging.FromContext(cmd.Context()), "curve", len(points), time.Since(start), err)
			if err != nil {
				return err
			}
			return writeRows(cmd, &points)
		},
	}

	addContractFlags(cmd, contractRequired...)
	cmd.Flags().String("axis", string(sweep.AxisSpot), "parameter to vary (spot, strike, expiry, volatility)")
	cmd.Flags().String("grid", "", "axis values as from:to:step")
	_ = cmd.MarkFlagRequired("grid")

	return cmd
}

func newSweepDeltaCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delta",
		Short:   "Delta over spot and days to maturity",
		Example: `  optpricer sweep delta --spots 50:150:5 --days 1:360:7 --strike 100 --rate 0.07 --vol 0.3 --coc 0.04`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spotGrid, _ := cmd.Flags().GetString("spots")
			spots, err := parseGrid(spotGrid)
			if err != nil {
				return err
			}
			dayGrid, _ := cmd.Flags().GetString("days")
			dayValues, err := parseGrid(dayGrid)
			if err != nil {
				return err
			}
			days := make([]int, len(dayValues))
			for i, d := range dayValues {
				if d != math.Trunc(d) || d <= 0 {
					return apperrors.NewValidationError("days", d, "must be positive whole days")
				}
				days[i] = int(d)
			}

			// Spot and expiry come from the grid; placeholders keep the base valid.
			if !cmd.Flags().Changed("spot") {
				_ = cmd.Flags().Set("spot", strconv.FormatFloat(spots[0], 'g', -1, 64))
			}
			if !cmd.Flags().Changed("expiry") {
				_ = cmd.Flags().Set("expiry", strconv.FormatFloat(float64(days[0])/365, 'g', -1, 64))
			}
			base, err := instrumentFromFlags(cmd)
			if err != nil {
				return err
			}
			engine, err := app.sweepEngine(cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			cells, err := engine.DeltaSurface(cmd.Context(), base, spots, days)
			logging.LogSweep(logging.FromContext(cmd.Context()), "delta", len(cells), time.Since(start), err)
			if err != nil {
				return err
			}
			return writeRows(cmd, &cells)
		},
	}

	addContractFlags(cmd, "strike", "vol")
	cmd.Flags().String("spots", "", "spot grid as from:to:step or a list")
	cmd.Flags().String("days", "", "days to maturity as from:to:step or a list")
	_ = cmd.MarkFlagRequired("spots")
	_ = cmd.MarkFlagRequired("days")

	return cmd
}

func newSweepConvergenceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "convergence",
		Short:   "Binomial price against lattice steps",
		Example: `  optpricer sweep convergence --steps 10:500:10 --type put --spot 50 --strike 52 --rate 0.05 --expiry 2 --vol 0.3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, _ := cmd.Flags().GetString("steps")
			from, to, stride, err := parseRange(grid)
			if err != nil {
				return err
			}
			for _, v := range []float64{from, to, stride} {
				if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
					return apperrors.NewValidationError("steps", grid, "must be whole numbers")
				}
			}
			base, err := instrumentFromFlags(cmd)
			if err != nil {
				return err
			}
			engine, err := app.sweepEngine(cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			points, err := engine.Convergence(cmd.Context(), base, int(from), int(to), int(stride))
			logging.LogSweep(logging.FromContext(cmd.Context()), "convergence", len(points), time.Since(start), err)
			if err != nil {
				return err
			}
			return writeRows(cmd, &points)
		},
	}

	addContractFlags(cmd, contractRequired...)
	cmd.Flags().String("steps", "10:200:10", "lattice sizes as from:to:stride")

	return cmd
}

// writeRows writes sweep rows as JSON or CSV to --output or stdout.
func writeRows(cmd *cobra.Command, rows interface{}) (err error) {
	output := NewOutput(cmd)
	var w io.Writer = output.Writer()

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return apperrors.Wrapf(createErr, "creating %s", path)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if output.IsJSON() {
		return (&Output{writer: w}).JSON(rows)
	}
	return sweep.WriteCSV(w, rows)
}

// parseRange parses from:to:step.
func parseRange(s string) (from, to, step float64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, apperrors.NewValidationError("grid", s, "must be from:to:step")
	}
	values := make([]float64, 3)
	for i, p := range parts {
		if values[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return 0, 0, 0, apperrors.NewValidationError("grid", s, fmt.Sprintf("%q is not a number", p))
		}
	}
	return values[0], values[1], values[2], nil
}

// parseGrid parses from:to:step or a comma separated list.
func parseGrid(s string) ([]float64, error) {
	if strings.Contains(s, ":") {
		from, to, step, err := parseRange(s)
		if err != nil {
			return nil, err
		}
		return sweep.Range(from, to, step)
	}

	var values []float64
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, apperrors.NewValidationError("grid", s, fmt.Sprintf("%q is not a number", p))
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, apperrors.NewValidationError("grid", s, "must not be empty")
	}
	return values, nil
}
