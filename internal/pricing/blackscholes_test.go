package pricing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/models"
)

func TestBlackScholesPricer_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		inst models.Instrument
		want float64
	}{
		{
			name: "stock call",
			inst: models.NewInstrument(models.Call, 60, 65, 0.08, 0.25, 0.3).
				WithProduct(models.ProductStockOption),
			want: 2.1334,
		},
		{
			name: "put with dividend yield",
			inst: models.NewInstrument(models.Put, 100, 95, 0.10, 0.5, 0.2).
				WithDividend(0.05).
				WithProduct(models.ProductStockOptionWithDividend),
			want: 2.4648,
		},
		{
			name: "futures call",
			inst: models.NewInstrument(models.Call, 19, 19, 0.1, 0.75, 0.28).
				WithDividend(0.1).
				WithProduct(models.ProductFuturesOption),
			want: 1.7011,
		},
		{
			name: "futures put",
			inst: models.NewInstrument(models.Put, 19, 19, 0.1, 0.75, 0.28).
				WithDividend(0.1).
				WithProduct(models.ProductFuturesOption),
			want: 1.7011,
		},
		{
			name: "currency call",
			inst: models.NewInstrument(models.Call, 1.56, 1.6, 0.06, 0.5, 0.12).
				WithDividend(0.08).
				WithProduct(models.ProductCurrencyOption),
			want: 0.0291,
		},
		{
			name: "currency put",
			inst: models.NewInstrument(models.Put, 1/1.56, 1/1.6, 0.08, 0.5, 0.12).
				WithDividend(0.06).
				WithProduct(models.ProductCurrencyOption),
			want: 0.0117,
		},
		{
			name: "stock put",
			inst: models.NewInstrument(models.Put, 50, 52, 0.05, 2, 0.3).
				WithProduct(models.ProductStockOption),
			want: 6.7601,
		},
		{
			name: "commodity call with explicit carry",
			inst: models.NewInstrument(models.Call, 90, 40, 0.03, 2, 0.2).
				WithCostOfCarry(0.09),
			want: 63.8051,
		},
	}

	pricer := NewBlackScholesPricer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pricer.Price(tt.inst)
			if err != nil {
				t.Fatalf("Price() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Price() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlackScholesPricer_Precision(t *testing.T) {
	inst := models.NewInstrument(models.Call, 60, 65, 0.08, 0.25, 0.3).
		WithProduct(models.ProductStockOption)

	tests := []struct {
		precision int
		want      float64
		tol       float64
	}{
		{2, 2.13, 0},
		{6, 2.133368, 0},
		{-1, 2.133368444916, 1e-11},
	}

	for _, tt := range tests {
		got, err := NewBlackScholesPricer(WithPrecision(tt.precision)).Price(inst)
		if err != nil {
			t.Fatalf("Price() error = %v", err)
		}
		if math.Abs(got-tt.want) > tt.tol {
			t.Errorf("precision %d: Price() = %v, want %v", tt.precision, got, tt.want)
		}
	}
}

func TestBlackScholesPricer_Errors(t *testing.T) {
	pricer := NewBlackScholesPricer()

	_, err := pricer.Price(models.NewInstrument(models.Call, 60, 65, 0.08, 0.25, 0.3))
	if !errors.Is(err, apperrors.ErrMissingCostOfCarry) {
		t.Errorf("missing carry: error = %v, want ErrMissingCostOfCarry", err)
	}

	_, err = pricer.Price(models.NewInstrument("STRADDLE", 60, 65, 0.08, 0.25, 0.3).
		WithProduct(models.ProductStockOption))
	if !errors.Is(err, apperrors.ErrUnknownOptionKind) {
		t.Errorf("unknown kind: error = %v, want ErrUnknownOptionKind", err)
	}

	_, err = pricer.Price(models.NewInstrument(models.Call, 60, 65, 0.08, 0, 0.3).
		WithProduct(models.ProductStockOption))
	if !errors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("zero expiry: error = %v, want ErrInvalidParameter", err)
	}
}

// Property: call - put = S·e^((b-r)T) - X·e^(-rT) for every valid instrument.
func TestBlackScholesPricer_PutCallParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	raw := NewBlackScholesPricer(WithPrecision(-1))
	rounded := NewBlackScholesPricer()

	parity := func(spot, strike, rate, expiry, vol, carry float64) (lhs, rhs, lhsRounded float64, ok bool) {
		call := models.NewInstrument(models.Call, spot, strike, rate, expiry, vol).WithCostOfCarry(carry)
		put := call.WithKind(models.Put)

		c, err1 := raw.Price(call)
		p, err2 := raw.Price(put)
		cr, err3 := rounded.Price(call)
		pr, err4 := rounded.Price(put)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return 0, 0, 0, false
		}
		rhs = spot*math.Exp((carry-rate)*expiry) - strike*math.Exp(-rate*expiry)
		return c - p, rhs, cr - pr, true
	}

	properties.Property("raw prices satisfy parity", prop.ForAll(
		func(spot, strike, rate, expiry, vol, carry float64) bool {
			lhs, rhs, _, ok := parity(spot, strike, rate, expiry, vol, carry)
			return ok && math.Abs(lhs-rhs) <= 1e-9*math.Max(1, math.Abs(rhs))
		},
		gen.Float64Range(10, 200),
		gen.Float64Range(10, 200),
		gen.Float64Range(-0.02, 0.15),
		gen.Float64Range(0.05, 3),
		gen.Float64Range(0.05, 0.8),
		gen.Float64Range(-0.1, 0.15),
	))

	properties.Property("rounded prices satisfy parity within rounding", prop.ForAll(
		func(spot, strike, rate, expiry, vol, carry float64) bool {
			_, rhs, lhs, ok := parity(spot, strike, rate, expiry, vol, carry)
			return ok && math.Abs(lhs-rhs) <= 1.0001e-4+1e-9*math.Abs(rhs)
		},
		gen.Float64Range(10, 200),
		gen.Float64Range(10, 200),
		gen.Float64Range(-0.02, 0.15),
		gen.Float64Range(0.05, 3),
		gen.Float64Range(0.05, 0.8),
		gen.Float64Range(-0.1, 0.15),
	))

	properties.TestingRun(t)
}

func TestGreeks_Delta(t *testing.T) {
	futures := models.NewInstrument(models.Call, 105, 100, 0.1, 0.5, 0.36).
		WithProduct(models.ProductFuturesOption)
	commodity := models.NewInstrument(models.Call, 90, 40, 0.03, 2, 0.2).
		WithCostOfCarry(0.09)

	tests := []struct {
		name string
		inst models.Instrument
		want float64
	}{
		{"futures call", futures, 0.5946},
		{"futures put", futures.WithKind(models.Put), -0.3566},
		{"commodity call", commodity, 1.1273},
	}

	g := NewGreeks()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Delta(tt.inst)
			if err != nil {
				t.Fatalf("Delta() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Delta() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGreeks_DeltaMatchesPriceMove(t *testing.T) {
	// A one unit move in spot moves the commodity call by about its delta.
	inst := models.NewInstrument(models.Call, 90, 40, 0.03, 2, 0.2).WithCostOfCarry(0.09)
	pricer := NewBlackScholesPricer()

	base, err := pricer.Price(inst)
	if err != nil {
		t.Fatal(err)
	}
	bumped, err := pricer.Price(inst.WithSpot(91))
	if err != nil {
		t.Fatal(err)
	}
	delta, err := NewGreeks().Delta(inst)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(bumped-base-delta) > 1e-3 {
		t.Errorf("price move = %v, delta = %v", bumped-base, delta)
	}
}

func TestGreeks_DeltaBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	g := NewGreeks(WithPrecision(-1))

	properties.Property("call delta minus put delta equals the carry discount", prop.ForAll(
		func(spot, strike, rate, expiry, vol float64) bool {
			call := models.NewInstrument(models.Call, spot, strike, rate, expiry, vol).
				WithProduct(models.ProductStockOption)
			dc, err1 := g.Delta(call)
			dp, err2 := g.Delta(call.WithKind(models.Put))
			if err1 != nil || err2 != nil {
				return false
			}
			return dc >= 0 && dc <= 1 && dp >= -1 && dp <= 0 && math.Abs(dc-dp-1) < 1e-12
		},
		gen.Float64Range(10, 200),
		gen.Float64Range(10, 200),
		gen.Float64Range(0, 0.15),
		gen.Float64Range(0.05, 3),
		gen.Float64Range(0.05, 0.8),
	))

	properties.TestingRun(t)
}

func BenchmarkBlackScholesPricer_Price(b *testing.B) {
	pricer := NewBlackScholesPricer()
	inst := models.NewInstrument(models.Put, 50, 52, 0.05, 2, 0.3).
		WithProduct(models.ProductStockOption)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pricer.Price(inst)
	}
}
