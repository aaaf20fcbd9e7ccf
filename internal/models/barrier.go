package models

import (
	"fmt"
	"math"
	"strings"

	apperrors "optpricer/internal/errors"
)

// BarrierKind says whether crossing the barrier activates or extinguishes
// the option.
type BarrierKind string

const (
	BarrierIn  BarrierKind = "IN"
	BarrierOut BarrierKind = "OUT"
)

// ParseBarrierKind parses "in"/"out" in any case.
func ParseBarrierKind(s string) (BarrierKind, error) {
	kind := BarrierKind(strings.ToUpper(strings.TrimSpace(s)))
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

// Validate reports ErrUnknownBarrierKind for anything but IN and OUT.
func (k BarrierKind) Validate() error {
	switch k {
	case BarrierIn, BarrierOut:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be IN or OUT)", apperrors.ErrUnknownBarrierKind, string(k))
	}
}

// BarrierInstrument is a single-barrier contract with a cash rebate.
type BarrierInstrument struct {
	Contract
	Barrier float64
	Rebate  float64
}

// NewBarrierInstrument creates a barrier contract with an explicit cost of
// carry.
func NewBarrierInstrument(spot, strike, rate, expiry, vol, costOfCarry, rebate, barrier float64) BarrierInstrument {
	return BarrierInstrument{
		Contract: Contract{
			Spot:        spot,
			Strike:      strike,
			Rate:        rate,
			Expiry:      expiry,
			Volatility:  vol,
			CostOfCarry: &costOfCarry,
		},
		Barrier: barrier,
		Rebate:  rebate,
	}
}

// Validate checks the contract plus barrier level and rebate.
func (b BarrierInstrument) Validate() error {
	if err := b.Contract.Validate(); err != nil {
		return err
	}
	if math.IsNaN(b.Barrier) || math.IsInf(b.Barrier, 0) || b.Barrier <= 0 {
		return apperrors.NewValidationError("barrier", b.Barrier, "must be a positive finite number")
	}
	if math.IsNaN(b.Rebate) || math.IsInf(b.Rebate, 0) || b.Rebate < 0 {
		return apperrors.NewValidationError("rebate", b.Rebate, "must be a non-negative finite number")
	}
	return nil
}

// SpotAboveBarrier reports whether the option starts above the barrier
// (down-and-in / down-and-out).
func (b BarrierInstrument) SpotAboveBarrier() bool {
	return b.Spot > b.Barrier
}

// StrikeAboveBarrier reports whether the strike lies above the barrier.
func (b BarrierInstrument) StrikeAboveBarrier() bool {
	return b.Strike > b.Barrier
}
