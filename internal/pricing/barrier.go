package pricing

import (
	"math"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/models"
	"optpricer/internal/numeric"
)

// barrierTerms are the quantities shared by the six partial formulas. They
// depend only on the instrument.
type barrierTerms struct {
	mu       float64 // (b - σ²/2) / σ²
	lambda   float64 // sqrt(mu² + 2r/σ²)
	volSqrtT float64
	x1       float64
	x2       float64
	y1       float64
	y2       float64
	z        float64
}

// partials holds A..F in that order.
type partials [6]float64

// combination holds the coefficients of A..F in one payoff.
type combination [6]float64

type barrierCase struct {
	barrier     models.BarrierKind
	kind        models.OptionKind
	spotAbove   bool // S > H: down-and-in / down-and-out
	strikeAbove bool // X > H
}

// barrierPolicy maps every single-barrier case to its combination of A..F.
var barrierPolicy = map[barrierCase]combination{
	// down-and-in call
	{models.BarrierIn, models.Call, true, true}:  {0, 0, 1, 0, 1, 0},  // C + E
	{models.BarrierIn, models.Call, true, false}: {1, -1, 0, 1, 1, 0}, // A - B + D + E
	// up-and-in call
	{models.BarrierIn, models.Call, false, true}:  {1, 0, 0, 0, 1, 0},  // A + E
	{models.BarrierIn, models.Call, false, false}: {0, 1, -1, 1, 1, 0}, // B - C + D + E
	// down-and-in put
	{models.BarrierIn, models.Put, true, true}:  {0, 1, -1, 1, 1, 0}, // B - C + D + E
	{models.BarrierIn, models.Put, true, false}: {1, 0, 0, 0, 1, 0},  // A + E
	// up-and-in put
	{models.BarrierIn, models.Put, false, true}:  {1, -1, 0, 1, 1, 0}, // A - B + D + E
	{models.BarrierIn, models.Put, false, false}: {0, 0, 1, 0, 1, 0},  // C + E
	// down-and-out call
	{models.BarrierOut, models.Call, true, true}:  {1, 0, -1, 0, 0, 1}, // A - C + F
	{models.BarrierOut, models.Call, true, false}: {0, 1, 0, -1, 0, 1}, // B - D + F
	// up-and-out call
	{models.BarrierOut, models.Call, false, true}:  {0, 0, 0, 0, 0, 1},   // F
	{models.BarrierOut, models.Call, false, false}: {1, -1, 1, -1, 0, 1}, // A - B + C - D + F
	// down-and-out put
	{models.BarrierOut, models.Put, true, true}:  {1, -1, 1, -1, 0, 1}, // A - B + C - D + F
	{models.BarrierOut, models.Put, true, false}: {0, 0, 0, 0, 0, 1},   // F
	// up-and-out put
	{models.BarrierOut, models.Put, false, true}:  {0, 1, 0, -1, 0, 1}, // B - D + F
	{models.BarrierOut, models.Put, false, false}: {1, 0, -1, 0, 0, 1}, // A - C + F
}

// BarrierPricer values standard single-barrier options in closed form
// (Haug, "The Complete Guide to Option Pricing Formulas", §4.17.1).
type BarrierPricer struct {
	inst      models.BarrierInstrument
	carry     float64
	terms     barrierTerms
	precision int
}

// NewBarrierPricer validates the instrument and computes the derived terms
// once.
func NewBarrierPricer(bi models.BarrierInstrument, opts ...Option) (*BarrierPricer, error) {
	if err := bi.Validate(); err != nil {
		return nil, err
	}
	carry, err := bi.ResolveCostOfCarry()
	if err != nil {
		return nil, err
	}

	s := newSettings(opts)
	terms, err := newBarrierTerms(bi, carry)
	if err != nil {
		return nil, err
	}

	return &BarrierPricer{
		inst:      bi,
		carry:     carry,
		terms:     terms,
		precision: s.precision,
	}, nil
}

func newBarrierTerms(bi models.BarrierInstrument, carry float64) (barrierTerms, error) {
	vol2 := bi.Volatility * bi.Volatility
	mu := (carry - vol2/2) / vol2
	radicand := mu*mu + 2*bi.Rate/vol2
	if radicand < 0 {
		return barrierTerms{}, apperrors.NewValidationError("rate", bi.Rate,
			"too negative for the barrier formulas")
	}
	lambda := math.Sqrt(radicand)
	vst := bi.Volatility * math.Sqrt(bi.Expiry)

	S, X, H := bi.Spot, bi.Strike, bi.Barrier
	return barrierTerms{
		mu:       mu,
		lambda:   lambda,
		volSqrtT: vst,
		x1:       math.Log(S/X)/vst + (1+mu)*vst,
		x2:       math.Log(S/H)/vst + (1+mu)*vst,
		y1:       math.Log(H*H/(S*X))/vst + (1+mu)*vst,
		y2:       math.Log(H/S)/vst + (1+mu)*vst,
		z:        math.Log(H/S)/vst + lambda*vst,
	}, nil
}

// Payoff returns the value of the barrier option of the given kinds. The
// direction (down or up) follows from where spot sits relative to the
// barrier.
func (p *BarrierPricer) Payoff(kind models.OptionKind, barrier models.BarrierKind) (float64, error) {
	if err := barrier.Validate(); err != nil {
		return 0, err
	}
	if err := kind.Validate(); err != nil {
		return 0, err
	}

	c := barrierCase{
		barrier:     barrier,
		kind:        kind,
		spotAbove:   p.inst.SpotAboveBarrier(),
		strikeAbove: p.inst.StrikeAboveBarrier(),
	}
	coef := barrierPolicy[c]

	eta := 1.0
	if !c.spotAbove {
		eta = -1
	}
	terms := p.partials(eta, kind.Sign())

	var value float64
	for i, w := range coef {
		if w != 0 {
			value += w * terms[i]
		}
	}

	return numeric.Round(value, p.precision), nil
}

// partials evaluates A..F for the reflection sign eta and the kind sign phi.
func (p *BarrierPricer) partials(eta, phi float64) partials {
	bi, t := p.inst, p.terms
	S, X, H, K := bi.Spot, bi.Strike, bi.Barrier, bi.Rebate
	N := numeric.NormalCDF

	carryDiscount := math.Exp((p.carry - bi.Rate) * bi.Expiry)
	discount := math.Exp(-bi.Rate * bi.Expiry)
	ratio := H / S
	pow2mu := math.Pow(ratio, 2*t.mu)
	pow2mu2 := math.Pow(ratio, 2*t.mu+2)

	vanilla := func(x float64) float64 {
		return phi*S*carryDiscount*N(phi*x) - phi*X*discount*N(phi*x-phi*t.volSqrtT)
	}
	reflected := func(y float64) float64 {
		return phi*S*carryDiscount*pow2mu2*N(eta*y) - phi*X*discount*pow2mu*N(eta*y-eta*t.volSqrtT)
	}

	return partials{
		vanilla(t.x1),
		vanilla(t.x2),
		reflected(t.y1),
		reflected(t.y2),
		K * discount * (N(eta*t.x2-eta*t.volSqrtT) - pow2mu*N(eta*t.y2-eta*t.volSqrtT)),
		K * (math.Pow(ratio, t.mu+t.lambda)*N(eta*t.z) +
			math.Pow(ratio, t.mu-t.lambda)*N(eta*t.z-2*eta*t.lambda*t.volSqrtT)),
	}
}
