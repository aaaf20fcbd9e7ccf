package models

import "time"

// PricingMethod identifies the engine behind a quote.
type PricingMethod string

const (
	MethodFormula    PricingMethod = "formula"
	MethodBinomial   PricingMethod = "bitree"
	MethodSimulation PricingMethod = "simulation"
	MethodDelta      PricingMethod = "delta"
	MethodBarrier    PricingMethod = "barrier"
)

// Quote records one pricing run.
type Quote struct {
	ID          int64           `json:"id"`
	Method      PricingMethod   `json:"method"`
	Kind        OptionKind      `json:"kind"`
	BarrierKind BarrierKind     `json:"barrier_kind,omitempty"` // barrier quotes only
	Spot        float64         `json:"spot"`
	Strike      float64         `json:"strike"`
	Rate        float64         `json:"rate"`
	Expiry      float64         `json:"expiry"`
	Volatility  float64         `json:"volatility"`
	Dividend    float64         `json:"dividend"`
	CostOfCarry float64         `json:"cost_of_carry"` // resolved value
	Product     ProductCategory `json:"product,omitempty"`
	Barrier     float64         `json:"barrier,omitempty"`
	Rebate      float64         `json:"rebate,omitempty"`
	Steps       int             `json:"steps,omitempty"`   // bitree
	Paths       int             `json:"paths,omitempty"`   // simulation
	Workers     int             `json:"workers,omitempty"` // simulation
	Seed        uint64          `json:"seed,omitempty"`    // simulation
	Precision   int             `json:"precision"`
	Value       float64         `json:"value"`
	Elapsed     time.Duration   `json:"elapsed_ns"`
	CreatedAt   time.Time       `json:"created_at"`
}
