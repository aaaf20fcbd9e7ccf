// Package numeric provides the normal-distribution approximations and
// rounding shared by the pricing engines.
package numeric

import (
	"fmt"
	"math"

	apperrors "optpricer/internal/errors"
)

// Hart's approximation: polynomial regime below hartSplit, continued-fraction
// tail up to hartCutoff, zero tail beyond.
const (
	hartSplit  = 7.0710678118654755
	hartCutoff = 37.0
	sqrt2Pi    = 2.5066282746310002
)

var (
	hartNum = [7]float64{
		0.0352624965998911, 0.700383064443688,
		6.37396220353165, 33.912866078383,
		112.079291497871, 221.213596169931,
		220.206867912376,
	}
	hartDen = [8]float64{
		0.0883883476483184, 1.75566716318264,
		16.064177579207, 86.7807322029461,
		296.564248779674, 637.333633378831,
		793.826512519948, 440.413735824752,
	}
)

// Acklam's rational approximation of the normal quantile.
const (
	acklamLow  = 0.02425
	acklamHigh = 1 - acklamLow
)

var (
	acklamA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00,
	}
	acklamB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	acklamC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00,
	}
	acklamD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00,
	}
)

// NormalCDF approximates the standard normal cumulative distribution
// function using Hart's algorithm.
func NormalCDF(x float64) float64 {
	y := math.Abs(x)

	var tail float64
	switch {
	case y < hartSplit:
		num := horner(hartNum[:], y)
		den := horner(hartDen[:], y)
		tail = math.Exp(-y*y/2) * num / den
	case y <= hartCutoff:
		c := y + 1/(y+2/(y+3/(y+4/(y+0.65))))
		tail = math.Exp(-y*y/2) / (sqrt2Pi * c)
	default:
		tail = 0
	}

	if x > 0 {
		return 1 - tail
	}
	return tail
}

// InverseNormalCDF returns the x for which NormalCDF(x) == p, with a relative
// error below 1.15e-9.
func InverseNormalCDF(p float64) (float64, error) {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: got %v", apperrors.ErrInvalidProbability, p)
	}

	switch {
	case p < acklamLow:
		q := math.Sqrt(-2 * math.Log(p))
		return acklamTail(q), nil
	case p > acklamHigh:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -acklamTail(q), nil
	default:
		q := p - 0.5
		r := q * q
		num := horner(acklamA[:], r) * q
		den := horner(acklamB[:], r)*r + 1
		return num / den, nil
	}
}

func acklamTail(q float64) float64 {
	num := horner(acklamC[:], q)
	den := horner(acklamD[:], q)*q + 1
	return num / den
}

// horner evaluates coef[0]*x^(n-1) + ... + coef[n-1].
func horner(coef []float64, x float64) float64 {
	acc := coef[0]
	for _, c := range coef[1:] {
		acc = acc*x + c
	}
	return acc
}
