package models

import (
	"math"
	"testing"

	apperrors "optpricer/internal/errors"
)

func TestResolveCostOfCarry_ProductTable(t *testing.T) {
	base := NewInstrument(Call, 100, 100, 0.08, 1, 0.2).WithDividend(0.03)

	tests := []struct {
		product ProductCategory
		want    float64
	}{
		{ProductStockOption, 0.08},
		{ProductStockOptionWithDividend, 0.05},
		{ProductFuturesOption, 0},
		{ProductMarginedFuturesOption, 0},
		{ProductCurrencyOption, 0.05},
	}

	for _, tt := range tests {
		t.Run(string(tt.product), func(t *testing.T) {
			got, err := base.WithProduct(tt.product).ResolveCostOfCarry()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-15 {
				t.Errorf("cost of carry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveCostOfCarry_ExplicitWins(t *testing.T) {
	inst := NewInstrument(Call, 100, 100, 0.08, 1, 0.2).
		WithProduct(ProductFuturesOption).
		WithCostOfCarry(0.09)

	got, err := inst.ResolveCostOfCarry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.09 {
		t.Errorf("explicit cost of carry overwritten: got %v", got)
	}

	// An explicit zero is still explicit.
	zero := NewInstrument(Call, 100, 100, 0.08, 1, 0.2).
		WithProduct(ProductStockOption).
		WithCostOfCarry(0)
	if got, _ := zero.ResolveCostOfCarry(); got != 0 {
		t.Errorf("explicit zero overwritten: got %v", got)
	}
}

func TestResolveCostOfCarry_Missing(t *testing.T) {
	inst := NewInstrument(Put, 50, 52, 0.05, 2, 0.3)
	if _, err := inst.ResolveCostOfCarry(); !apperrors.Is(err, apperrors.ErrMissingCostOfCarry) {
		t.Errorf("error = %v, want ErrMissingCostOfCarry", err)
	}

	unknown := inst.WithProduct(ProductCategory("bond_option"))
	if _, err := unknown.ResolveCostOfCarry(); !apperrors.Is(err, apperrors.ErrMissingCostOfCarry) {
		t.Errorf("error = %v, want ErrMissingCostOfCarry", err)
	}
}

func TestWithMethodsDoNotMutate(t *testing.T) {
	orig := NewInstrument(Call, 100, 100, 0.05, 1, 0.2)
	_ = orig.WithCostOfCarry(0.01).WithSpot(120).WithKind(Put)

	if orig.CostOfCarry != nil || orig.Spot != 100 || orig.Kind != Call {
		t.Errorf("original instrument modified: %+v", orig)
	}
}

func TestInstrumentValidate(t *testing.T) {
	valid := NewInstrument(Call, 60, 65, 0.08, 0.25, 0.3)
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid instrument rejected: %v", err)
	}

	tests := []struct {
		name string
		inst Instrument
		want error
	}{
		{"zero spot", valid.WithSpot(0), apperrors.ErrInvalidParameter},
		{"negative strike", valid.WithStrike(-1), apperrors.ErrInvalidParameter},
		{"zero expiry", valid.WithExpiry(0), apperrors.ErrInvalidParameter},
		{"negative vol", valid.WithVolatility(-0.2), apperrors.ErrInvalidParameter},
		{"NaN spot", valid.WithSpot(math.NaN()), apperrors.ErrInvalidParameter},
		{"infinite carry", valid.WithCostOfCarry(math.Inf(1)), apperrors.ErrInvalidParameter},
		{"unknown kind", valid.WithKind("STRADDLE"), apperrors.ErrUnknownOptionKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.inst.Validate(); !apperrors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseKinds(t *testing.T) {
	if k, err := ParseOptionKind(" call "); err != nil || k != Call {
		t.Errorf("ParseOptionKind(call) = %v, %v", k, err)
	}
	if _, err := ParseOptionKind("swap"); !apperrors.Is(err, apperrors.ErrUnknownOptionKind) {
		t.Errorf("ParseOptionKind(swap) error = %v", err)
	}
	if k, err := ParseBarrierKind("Out"); err != nil || k != BarrierOut {
		t.Errorf("ParseBarrierKind(Out) = %v, %v", k, err)
	}
	if _, err := ParseBarrierKind("through"); !apperrors.Is(err, apperrors.ErrUnknownBarrierKind) {
		t.Errorf("ParseBarrierKind(through) error = %v", err)
	}
	if p, err := ParseProductCategory("Currency_Option"); err != nil || p != ProductCurrencyOption {
		t.Errorf("ParseProductCategory = %v, %v", p, err)
	}
	if p, err := ParseProductCategory(""); err != nil || p != "" {
		t.Errorf("empty category = %v, %v", p, err)
	}
	if _, err := ParseProductCategory("bond_option"); !apperrors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("unknown category error = %v", err)
	}
}

func TestBarrierInstrumentValidate(t *testing.T) {
	bi := NewBarrierInstrument(100, 90, 0.08, 0.5, 0.25, 0.04, 3, 95)
	if err := bi.Validate(); err != nil {
		t.Fatalf("valid barrier instrument rejected: %v", err)
	}
	if !bi.SpotAboveBarrier() || bi.StrikeAboveBarrier() {
		t.Errorf("unexpected barrier orientation for %+v", bi)
	}

	bi.Barrier = 0
	if err := bi.Validate(); !apperrors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("zero barrier error = %v", err)
	}
	bi.Barrier = 95
	bi.Rebate = -1
	if err := bi.Validate(); !apperrors.Is(err, apperrors.ErrInvalidParameter) {
		t.Errorf("negative rebate error = %v", err)
	}
}
