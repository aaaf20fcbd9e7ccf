package pricing

import (
	"math"

	"optpricer/internal/models"
	"optpricer/internal/numeric"
)

// BlackScholesPricer evaluates the generalized Black-Scholes formula
//
//	c = S·e^((b-r)T)·N(d1) - X·e^(-rT)·N(d2)
//	p = X·e^(-rT)·N(-d2) - S·e^((b-r)T)·N(-d1)
//
// where b is the cost of carry. b = r gives the stock model, b = r - q the
// dividend-yield model, b = 0 options on futures and b = r - rf currency
// options. It holds no mutable state and is safe for concurrent use.
type BlackScholesPricer struct {
	precision int
}

// NewBlackScholesPricer creates a closed-form pricer.
func NewBlackScholesPricer(opts ...Option) *BlackScholesPricer {
	s := newSettings(opts)
	return &BlackScholesPricer{precision: s.precision}
}

// Precision returns the number of decimals results are rounded to.
func (p *BlackScholesPricer) Precision() int {
	return p.precision
}

// Price returns the option value rounded to the configured precision.
func (p *BlackScholesPricer) Price(inst models.Instrument) (float64, error) {
	if err := inst.Validate(); err != nil {
		return 0, err
	}
	carry, err := inst.ResolveCostOfCarry()
	if err != nil {
		return 0, err
	}

	d1, d2 := d1d2(inst.Spot, inst.Strike, inst.Expiry, inst.Volatility, carry)
	carryDiscount := math.Exp((carry - inst.Rate) * inst.Expiry)
	discount := math.Exp(-inst.Rate * inst.Expiry)

	var price float64
	switch inst.Kind {
	case models.Call:
		price = inst.Spot*carryDiscount*numeric.NormalCDF(d1) - inst.Strike*discount*numeric.NormalCDF(d2)
	case models.Put:
		price = inst.Strike*discount*numeric.NormalCDF(-d2) - inst.Spot*carryDiscount*numeric.NormalCDF(-d1)
	}

	return numeric.Round(price, p.precision), nil
}

// d1d2 is shared by the price and the delta.
func d1d2(spot, strike, expiry, vol, carry float64) (d1, d2 float64) {
	volSqrtT := vol * math.Sqrt(expiry)
	d1 = (math.Log(spot/strike) + (carry+vol*vol/2)*expiry) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}
