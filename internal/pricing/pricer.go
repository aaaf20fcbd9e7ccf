// Package pricing implements the European option pricing engines: the
// generalized Black-Scholes formula, a binomial lattice, Monte Carlo
// simulation, closed-form single-barrier options and delta.
package pricing

import (
	"optpricer/internal/models"
	"optpricer/internal/numeric"
)

// Pricer prices a vanilla European option.
type Pricer interface {
	Price(inst models.Instrument) (float64, error)
}

// Option configures a pricer.
type Option func(*settings)

type settings struct {
	precision int
	seed      uint64
	seeded    bool
}

func newSettings(opts []Option) settings {
	s := settings{precision: numeric.DefaultPrecision}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithPrecision sets the number of decimals results are rounded to. A
// negative precision disables rounding.
func WithPrecision(precision int) Option {
	return func(s *settings) {
		s.precision = precision
	}
}

// WithSeed fixes the random seed of a Monte Carlo pricer. Other pricers
// ignore it.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = seed
		s.seeded = true
	}
}
