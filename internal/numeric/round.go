package numeric

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimals every pricer reports unless
// configured otherwise.
const DefaultPrecision = 4

// MaxPrecision bounds the configurable precision.
const MaxPrecision = 12

// maxFloatDecimals is past the last decimal place of the shortest
// representation of any float64 (5e-324), so rounding there is a no-op.
const maxFloatDecimals = 340

// Round rounds x to precision decimal places, half away from zero, working on
// the shortest decimal representation of x. A negative precision returns x
// unchanged, as do NaN, infinities and precisions beyond any float64 digit.
func Round(x float64, precision int) float64 {
	if precision < 0 || precision > maxFloatDecimals || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(int32(precision)).InexactFloat64()
}
