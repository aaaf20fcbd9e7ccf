package pricing

import (
	"math"

	"optpricer/internal/models"
	"optpricer/internal/numeric"
)

// Greeks computes spot sensitivities under the generalized Black-Scholes
// model.
type Greeks struct {
	precision int
}

// NewGreeks creates a sensitivity calculator.
func NewGreeks(opts ...Option) *Greeks {
	s := newSettings(opts)
	return &Greeks{precision: s.precision}
}

// Delta returns the first derivative of the option value with respect to
// spot:
//
//	call: e^((b-r)T)·N(d1)
//	put:  e^((b-r)T)·(N(d1) - 1)
func (g *Greeks) Delta(inst models.Instrument) (float64, error) {
	if err := inst.Validate(); err != nil {
		return 0, err
	}
	carry, err := inst.ResolveCostOfCarry()
	if err != nil {
		return 0, err
	}

	d1, _ := d1d2(inst.Spot, inst.Strike, inst.Expiry, inst.Volatility, carry)
	carryDiscount := math.Exp((carry - inst.Rate) * inst.Expiry)

	var delta float64
	switch inst.Kind {
	case models.Call:
		delta = carryDiscount * numeric.NormalCDF(d1)
	case models.Put:
		delta = carryDiscount * (numeric.NormalCDF(d1) - 1)
	}

	return numeric.Round(delta, g.precision), nil
}
