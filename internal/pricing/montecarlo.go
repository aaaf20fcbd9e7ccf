package pricing

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sourcegraph/conc/pool"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/models"
	"optpricer/internal/numeric"
)

// cancelCheckInterval is how many paths a worker simulates between
// cancellation checks.
const cancelCheckInterval = 4096

// MonteCarloPricer estimates European option values by simulating terminal
// spots under geometric Brownian motion. With workers > 0 the paths are split
// across that many goroutines, each with its own random stream, so a fixed
// seed and worker count always give the same price.
type MonteCarloPricer struct {
	paths     int
	workers   int
	seed      uint64
	precision int
}

// NewMonteCarloPricer creates a simulation pricer. workers == 0 runs every
// path on the calling goroutine. Without WithSeed the seed is taken from the
// clock.
func NewMonteCarloPricer(paths, workers int, opts ...Option) (*MonteCarloPricer, error) {
	if paths <= 0 {
		return nil, apperrors.NewValidationError("paths", paths, "must be a positive integer")
	}

	s := newSettings(opts)
	seed := s.seed
	if !s.seeded {
		seed = uint64(time.Now().UnixNano())
	}

	p := &MonteCarloPricer{
		paths:     paths,
		seed:      seed,
		precision: s.precision,
	}
	if err := p.SetWorkers(workers); err != nil {
		return nil, err
	}
	return p, nil
}

// SetWorkers changes the degree of parallelism.
func (p *MonteCarloPricer) SetWorkers(workers int) error {
	if workers < 0 {
		return apperrors.NewValidationError("workers", workers, "must not be negative")
	}
	p.workers = workers
	return nil
}

// Workers returns the number of worker goroutines, 0 meaning inline.
func (p *MonteCarloPricer) Workers() int { return p.workers }

// Paths returns the number of simulated paths.
func (p *MonteCarloPricer) Paths() int { return p.paths }

// Seed returns the seed the random streams derive from.
func (p *MonteCarloPricer) Seed() uint64 { return p.seed }

// Price runs the simulation to completion.
func (p *MonteCarloPricer) Price(inst models.Instrument) (float64, error) {
	return p.PriceContext(context.Background(), inst)
}

// PriceContext runs the simulation and stops early when ctx is done.
func (p *MonteCarloPricer) PriceContext(ctx context.Context, inst models.Instrument) (float64, error) {
	if err := inst.Validate(); err != nil {
		return 0, err
	}
	carry, err := inst.ResolveCostOfCarry()
	if err != nil {
		return 0, err
	}

	g := gbm{
		spot:   inst.Spot,
		strike: inst.Strike,
		sign:   inst.Kind.Sign(),
		drift:  (carry - inst.Volatility*inst.Volatility/2) * inst.Expiry,
		diffus: inst.Volatility * math.Sqrt(inst.Expiry),
	}

	var total float64
	if p.workers == 0 {
		total, err = g.run(ctx, rand.New(rand.NewPCG(p.seed, 0)), p.paths)
		if err != nil {
			return 0, err
		}
	} else {
		total, err = p.fanOut(ctx, g)
		if err != nil {
			return 0, err
		}
	}

	price := math.Exp(-inst.Rate*inst.Expiry) * total / float64(p.paths)
	return numeric.Round(price, p.precision), nil
}

// fanOut runs one block of paths per worker and adds the partial sums in
// worker order.
func (p *MonteCarloPricer) fanOut(ctx context.Context, g gbm) (float64, error) {
	shares := partition(p.paths, p.workers)
	sums := make([]float64, len(shares))

	wp := pool.New().WithContext(ctx).WithMaxGoroutines(len(shares))
	for i, n := range shares {
		i, n := i, n
		wp.Go(func(ctx context.Context) error {
			rng := rand.New(rand.NewPCG(p.seed, uint64(i)+1))
			sum, err := g.run(ctx, rng, n)
			if err != nil {
				return err
			}
			sums[i] = sum
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return 0, err
	}

	var total float64
	for _, s := range sums {
		total += s
	}
	return total, nil
}

// partition splits paths over workers as evenly as possible. The first
// paths % workers shares take one extra path.
func partition(paths, workers int) []int {
	if workers > paths {
		workers = paths
	}
	base, extra := paths/workers, paths%workers
	shares := make([]int, workers)
	for i := range shares {
		shares[i] = base
		if i < extra {
			shares[i]++
		}
	}
	return shares
}

// gbm is the per-instrument state a path needs.
type gbm struct {
	spot   float64
	strike float64
	sign   float64
	drift  float64 // (b - σ²/2)·T
	diffus float64 // σ·√T
}

// run sums the payoffs of n paths drawn from rng.
func (g gbm) run(ctx context.Context, rng *rand.Rand, n int) (float64, error) {
	var sum float64
	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}

		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		z, err := numeric.InverseNormalCDF(u)
		if err != nil {
			return 0, err
		}

		st := g.spot * math.Exp(g.drift+g.diffus*z)
		sum += math.Max(g.sign*(st-g.strike), 0)
	}
	return sum, nil
}
