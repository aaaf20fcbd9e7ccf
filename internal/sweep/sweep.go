// Package sweep evaluates pricers over parameter grids: price curves against
// one contract parameter, delta surfaces and lattice convergence.
package sweep

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/logging"
	"optpricer/internal/models"
	"optpricer/internal/performance"
	"optpricer/internal/pricing"
)

// MaxPoints bounds the size of a single sweep.
const MaxPoints = 250000

// Axis names the contract parameter a price curve varies.
type Axis string

const (
	AxisSpot       Axis = "spot"
	AxisStrike     Axis = "strike"
	AxisExpiry     Axis = "expiry"
	AxisVolatility Axis = "volatility"
)

// ParseAxis parses an axis name. "vol" is accepted for volatility.
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case AxisSpot, AxisStrike, AxisExpiry, AxisVolatility:
		return a, nil
	case "vol":
		return AxisVolatility, nil
	default:
		return "", apperrors.NewValidationError("axis", s, "must be spot, strike, expiry or volatility")
	}
}

func (a Axis) apply(inst models.Instrument, x float64) models.Instrument {
	switch a {
	case AxisSpot:
		return inst.WithSpot(x)
	case AxisStrike:
		return inst.WithStrike(x)
	case AxisExpiry:
		return inst.WithExpiry(x)
	default:
		return inst.WithVolatility(x)
	}
}

// Point is one sample of a price curve.
type Point struct {
	X     float64 `csv:"x" json:"x"`
	Price float64 `csv:"price" json:"price"`
}

// SurfacePoint is one sample of a delta surface.
type SurfacePoint struct {
	Days  int     `csv:"days" json:"days"`
	Spot  float64 `csv:"spot" json:"spot"`
	Delta float64 `csv:"delta" json:"delta"`
}

// ConvergencePoint compares a lattice price with the closed form.
type ConvergencePoint struct {
	Steps     int     `csv:"steps" json:"steps"`
	Price     float64 `csv:"price" json:"price"`
	Reference float64 `csv:"reference" json:"reference"`
	Error     float64 `csv:"error" json:"error"`
}

// Engine runs sweeps on a worker pool. Results always come back in input
// order.
type Engine struct {
	workers   int
	precision int
}

// NewEngine creates a sweep engine. workers == 0 uses every CPU.
func NewEngine(workers, precision int) (*Engine, error) {
	if workers < 0 {
		return nil, apperrors.NewValidationError("workers", workers, "must not be negative")
	}
	return &Engine{workers: workers, precision: precision}, nil
}

// PriceCurve prices base in closed form for every axis value in [from, to].
func (e *Engine) PriceCurve(ctx context.Context, base models.Instrument, axis Axis, from, to, step float64) ([]Point, error) {
	xs, err := Range(from, to, step)
	if err != nil {
		return nil, err
	}
	if _, err := ParseAxis(string(axis)); err != nil {
		return nil, err
	}

	pricer := pricing.NewBlackScholesPricer(pricing.WithPrecision(e.precision))
	return run(ctx, e.workers, xs, func(x float64) (Point, error) {
		price, err := pricer.Price(axis.apply(base, x))
		if err != nil {
			return Point{}, fmt.Errorf("%s=%v: %w", axis, x, err)
		}
		return Point{X: x, Price: price}, nil
	})
}

// DeltaSurface computes delta over spots × days to maturity. Rows are ordered
// by spot, then days.
func (e *Engine) DeltaSurface(ctx context.Context, base models.Instrument, spots []float64, days []int) ([]SurfacePoint, error) {
	if len(spots) == 0 || len(days) == 0 {
		return nil, apperrors.NewValidationError("grid", len(spots)*len(days), "spots and days must not be empty")
	}
	if len(spots)*len(days) > MaxPoints {
		return nil, apperrors.NewValidationError("grid", len(spots)*len(days), fmt.Sprintf("more than %d points", MaxPoints))
	}

	grid := make([]SurfacePoint, 0, len(spots)*len(days))
	for _, s := range spots {
		for _, d := range days {
			grid = append(grid, SurfacePoint{Days: d, Spot: s})
		}
	}

	greeks := pricing.NewGreeks(pricing.WithPrecision(e.precision))
	return run(ctx, e.workers, grid, func(p SurfacePoint) (SurfacePoint, error) {
		inst := base.WithSpot(p.Spot).WithExpiry(float64(p.Days) / 365)
		delta, err := greeks.Delta(inst)
		if err != nil {
			return SurfacePoint{}, fmt.Errorf("spot=%v days=%d: %w", p.Spot, p.Days, err)
		}
		p.Delta = delta
		return p, nil
	})
}

// Convergence prices base on lattices of fromSteps..toSteps (every stride
// steps) next to the closed-form reference.
func (e *Engine) Convergence(ctx context.Context, base models.Instrument, fromSteps, toSteps, stride int) ([]ConvergencePoint, error) {
	if fromSteps <= 0 || toSteps < fromSteps || stride <= 0 {
		return nil, apperrors.NewValidationError("steps", fmt.Sprintf("%d..%d/%d", fromSteps, toSteps, stride),
			"need 0 < from <= to and a positive stride")
	}
	count := (toSteps-fromSteps)/stride + 1
	if count > MaxPoints {
		return nil, apperrors.NewValidationError("steps", count, fmt.Sprintf("more than %d points", MaxPoints))
	}
	steps := make([]int, count)
	for i := range steps {
		steps[i] = fromSteps + i*stride
	}

	reference, err := pricing.NewBlackScholesPricer(pricing.WithPrecision(e.precision)).Price(base)
	if err != nil {
		return nil, err
	}

	return run(ctx, e.workers, steps, func(n int) (ConvergencePoint, error) {
		tree, err := pricing.NewBinomialTreePricer(n, pricing.WithPrecision(e.precision))
		if err != nil {
			return ConvergencePoint{}, err
		}
		price, err := tree.Price(base)
		if err != nil {
			return ConvergencePoint{}, fmt.Errorf("steps=%d: %w", n, err)
		}
		return ConvergencePoint{Steps: n, Price: price, Reference: reference, Error: price - reference}, nil
	})
}

// Range returns from, from+step, ... up to and including to. The end point is
// kept when rounding leaves it within a millionth of a step.
func Range(from, to, step float64) ([]float64, error) {
	for _, v := range []float64{from, to, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperrors.NewValidationError("range", v, "must be finite")
		}
	}
	if step <= 0 {
		return nil, apperrors.NewValidationError("step", step, "must be positive")
	}
	if to < from {
		return nil, apperrors.NewValidationError("to", to, "must not be below from")
	}

	span := (to-from)/step + 1e-6
	if span >= MaxPoints {
		return nil, apperrors.NewValidationError("range", span, fmt.Sprintf("more than %d points", MaxPoints))
	}
	n := int(math.Floor(span)) + 1

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = from + float64(i)*step
	}
	return xs, nil
}

// run applies fn to every item on a worker pool and returns the results in
// input order. The error of the earliest failing item wins.
func run[T, R any](ctx context.Context, workers int, items []T, fn func(T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	pool := performance.NewWorkerPool(min(workers, len(items)))
	pool.Start()

	var wg sync.WaitGroup
	var submitErr error
	for i, item := range items {
		i, item := i, item
		wg.Add(1)
		err := pool.SubmitContext(ctx, func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = fn(item)
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}

	wg.Wait()
	pool.Stop()

	stats := pool.Stats()
	logger := logging.FromContext(ctx)
	logger.Debug().
		Int("workers", stats.Workers).
		Uint64("submitted", stats.TasksTotal).
		Uint64("done", stats.TasksDone).
		Msg("Sweep pool drained")

	if submitErr != nil {
		return nil, submitErr
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// WriteCSV encodes a slice of Point, SurfacePoint or ConvergencePoint as CSV
// with a header row.
func WriteCSV(w io.Writer, rows interface{}) error {
	return gocsv.Marshal(rows, w)
}
