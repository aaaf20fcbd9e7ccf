// Package models provides domain models for option pricing.
package models

import (
	"fmt"
	"math"
	"strings"

	apperrors "optpricer/internal/errors"
)

// OptionKind represents the right an option grants.
type OptionKind string

const (
	Call OptionKind = "CALL"
	Put  OptionKind = "PUT"
)

// ParseOptionKind parses "call"/"put" in any case.
func ParseOptionKind(s string) (OptionKind, error) {
	kind := OptionKind(strings.ToUpper(strings.TrimSpace(s)))
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

// Validate reports ErrUnknownOptionKind for anything but CALL and PUT.
func (k OptionKind) Validate() error {
	switch k {
	case Call, Put:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be CALL or PUT)", apperrors.ErrUnknownOptionKind, string(k))
	}
}

// Sign is +1 for calls and -1 for puts.
func (k OptionKind) Sign() float64 {
	if k == Put {
		return -1
	}
	return 1
}

// ProductCategory selects how the cost of carry follows from rate and yield.
type ProductCategory string

const (
	ProductStockOption             ProductCategory = "stock_option"
	ProductStockOptionWithDividend ProductCategory = "stock_option_with_dividend"
	ProductFuturesOption           ProductCategory = "futures_option"
	ProductMarginedFuturesOption   ProductCategory = "margined_futures_option"
	ProductCurrencyOption          ProductCategory = "currency_option"
)

// ProductCategories lists every recognised category.
var ProductCategories = []ProductCategory{
	ProductStockOption,
	ProductStockOptionWithDividend,
	ProductFuturesOption,
	ProductMarginedFuturesOption,
	ProductCurrencyOption,
}

// ParseProductCategory parses a category name. The empty string yields the
// empty category.
func ParseProductCategory(s string) (ProductCategory, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	p := ProductCategory(s)
	if _, ok := p.CostOfCarry(0, 0); !ok {
		return "", apperrors.NewValidationError("product", s, "unknown product category")
	}
	return p, nil
}

// CostOfCarry returns the carry rate implied by the category, and false when
// the category is not recognised.
func (p ProductCategory) CostOfCarry(rate, dividend float64) (float64, bool) {
	switch p {
	case ProductStockOption:
		return rate, true
	case ProductStockOptionWithDividend, ProductCurrencyOption:
		return rate - dividend, true
	case ProductFuturesOption, ProductMarginedFuturesOption:
		return 0, true
	default:
		return 0, false
	}
}

// Contract holds the market and contract parameters shared by vanilla and
// barrier instruments.
type Contract struct {
	Spot       float64
	Strike     float64
	Rate       float64 // continuously compounded risk-free rate
	Expiry     float64 // years
	Volatility float64
	Dividend   float64 // continuous yield, or the foreign rate for currency options

	// CostOfCarry, when set, wins over the product category.
	CostOfCarry *float64
	Product     ProductCategory
}

// Validate checks the parameters every pricer relies on.
func (c Contract) Validate() error {
	positive := []struct {
		field string
		value float64
	}{
		{"spot", c.Spot},
		{"strike", c.Strike},
		{"expiry", c.Expiry},
		{"volatility", c.Volatility},
	}
	for _, p := range positive {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return apperrors.NewValidationError(p.field, p.value, "must be a positive finite number")
		}
	}

	finite := []struct {
		field string
		value float64
	}{
		{"rate", c.Rate},
		{"dividend", c.Dividend},
	}
	for _, f := range finite {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return apperrors.NewValidationError(f.field, f.value, "must be finite")
		}
	}
	if c.CostOfCarry != nil && (math.IsNaN(*c.CostOfCarry) || math.IsInf(*c.CostOfCarry, 0)) {
		return apperrors.NewValidationError("cost_of_carry", *c.CostOfCarry, "must be finite")
	}

	return nil
}

// ResolveCostOfCarry returns the explicit cost of carry if one was given,
// otherwise the value implied by the product category.
func (c Contract) ResolveCostOfCarry() (float64, error) {
	if c.CostOfCarry != nil {
		return *c.CostOfCarry, nil
	}
	if c.Product == "" {
		return 0, fmt.Errorf("%w: neither cost of carry nor product category given", apperrors.ErrMissingCostOfCarry)
	}
	b, ok := c.Product.CostOfCarry(c.Rate, c.Dividend)
	if !ok {
		return 0, fmt.Errorf("%w: unknown product category %q", apperrors.ErrMissingCostOfCarry, string(c.Product))
	}
	return b, nil
}

// Instrument is a European option contract. It is a value type: the With
// methods return modified copies.
type Instrument struct {
	Kind OptionKind
	Contract
}

// NewInstrument creates an instrument without dividend, carry or category.
func NewInstrument(kind OptionKind, spot, strike, rate, expiry, vol float64) Instrument {
	return Instrument{
		Kind: kind,
		Contract: Contract{
			Spot:       spot,
			Strike:     strike,
			Rate:       rate,
			Expiry:     expiry,
			Volatility: vol,
		},
	}
}

// Validate checks the option kind and the contract parameters.
func (i Instrument) Validate() error {
	if err := i.Kind.Validate(); err != nil {
		return err
	}
	return i.Contract.Validate()
}

// WithKind returns a copy with a different option kind.
func (i Instrument) WithKind(kind OptionKind) Instrument {
	i.Kind = kind
	return i
}

// WithDividend returns a copy with the given dividend yield.
func (i Instrument) WithDividend(q float64) Instrument {
	i.Dividend = q
	return i
}

// WithCostOfCarry returns a copy with an explicit cost of carry.
func (i Instrument) WithCostOfCarry(b float64) Instrument {
	i.CostOfCarry = &b
	return i
}

// WithProduct returns a copy tagged with a product category.
func (i Instrument) WithProduct(p ProductCategory) Instrument {
	i.Product = p
	return i
}

// WithSpot returns a copy with a different spot price.
func (i Instrument) WithSpot(s float64) Instrument {
	i.Spot = s
	return i
}

// WithStrike returns a copy with a different strike.
func (i Instrument) WithStrike(x float64) Instrument {
	i.Strike = x
	return i
}

// WithExpiry returns a copy with a different time to expiry.
func (i Instrument) WithExpiry(t float64) Instrument {
	i.Expiry = t
	return i
}

// WithVolatility returns a copy with a different volatility.
func (i Instrument) WithVolatility(v float64) Instrument {
	i.Volatility = v
	return i
}
