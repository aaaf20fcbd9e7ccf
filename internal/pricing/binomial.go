package pricing

import (
	"math"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/models"
	"optpricer/internal/numeric"
)

// latticeNode is one point of the recombining tree.
type latticeNode struct {
	spot  float64
	value float64
}

// BinomialTreePricer prices European options on a Cox-Ross-Rubinstein tree:
//
//	u = e^(σ√Δt), d = 1/u, a = e^(rΔt), p = (a - d) / (u - d)
//
// Each node is worth (p·up + (1-p)·down) / a of its two children. Cost
// grows with steps². SetSteps must not race with Price.
type BinomialTreePricer struct {
	steps     int
	precision int
}

// NewBinomialTreePricer creates a lattice pricer with the given number of
// time steps.
func NewBinomialTreePricer(steps int, opts ...Option) (*BinomialTreePricer, error) {
	s := newSettings(opts)
	p := &BinomialTreePricer{precision: s.precision}
	if err := p.SetSteps(steps); err != nil {
		return nil, err
	}
	return p, nil
}

// SetSteps changes the number of time steps.
func (p *BinomialTreePricer) SetSteps(steps int) error {
	if steps <= 0 {
		return apperrors.NewValidationError("steps", steps, "must be a positive integer")
	}
	p.steps = steps
	return nil
}

// Steps returns the number of time steps.
func (p *BinomialTreePricer) Steps() int {
	return p.steps
}

// Price builds the tree, fills terminal payoffs and rolls back to the root.
// The cost of carry is not used.
func (p *BinomialTreePricer) Price(inst models.Instrument) (float64, error) {
	if err := inst.Validate(); err != nil {
		return 0, err
	}

	dt := inst.Expiry / float64(p.steps)
	up := math.Exp(inst.Volatility * math.Sqrt(dt))
	down := 1 / up
	growth := math.Exp(inst.Rate * dt)
	prob := (growth - down) / (up - down)
	if !(prob > 0 && prob < 1) {
		return 0, apperrors.NewValidationError("steps", p.steps,
			"risk-neutral probability falls outside (0, 1); use more steps")
	}

	tree := buildLattice(inst.Spot, up, down, p.steps)

	sign := inst.Kind.Sign()
	for i := range tree[p.steps] {
		node := &tree[p.steps][i]
		node.value = math.Max(sign*(node.spot-inst.Strike), 0)
	}

	for lv := p.steps - 1; lv >= 0; lv-- {
		next := tree[lv+1]
		for j := range tree[lv] {
			tree[lv][j].value = (prob*next[j].value + (1-prob)*next[j+1].value) / growth
		}
	}

	return numeric.Round(tree[0][0].value, p.precision), nil
}

// buildLattice returns steps+1 levels. Level k has k+1 nodes ordered from the
// highest spot down: node 0 moves up from its parent, node j > 0 moves down
// from parent j-1.
func buildLattice(spot, up, down float64, steps int) [][]latticeNode {
	tree := make([][]latticeNode, steps+1)
	tree[0] = []latticeNode{{spot: spot}}
	for lv := 1; lv <= steps; lv++ {
		prev := tree[lv-1]
		level := make([]latticeNode, lv+1)
		level[0].spot = prev[0].spot * up
		for j := 1; j <= lv; j++ {
			level[j].spot = prev[j-1].spot * down
		}
		tree[lv] = level
	}
	return tree
}
