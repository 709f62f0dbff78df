// Package valuation estimates an intrinsic value from per-share fundamentals
// with a Graham-style formula.
package valuation

import "math"

// UndefinedMargin is the margin reported when no intrinsic value exists.
// It is deliberately larger than any real margin so undefined estimates rank worst.
const UndefinedMargin = 999.0

// grahamFactor is 15 (max P/E) times 1.5 (max P/B).
const grahamFactor = 22.5

// Estimate is an intrinsic value that may be undefined.
type Estimate struct {
	Value   float64
	Defined bool
}

// Intrinsic returns sqrt(22.5 * eps * bvps) when both inputs are positive.
func Intrinsic(eps, bvps float64) Estimate {
	if eps <= 0 || bvps <= 0 || math.IsNaN(eps) || math.IsNaN(bvps) {
		return Estimate{}
	}
	v := math.Sqrt(grahamFactor * eps * bvps)
	if math.IsInf(v, 0) {
		return Estimate{}
	}
	return Estimate{Value: v, Defined: true}
}

// Margin returns price / intrinsic value, or UndefinedMargin.
func Margin(price float64, est Estimate) float64 {
	if !est.Defined || est.Value <= 0 {
		return UndefinedMargin
	}
	return price / est.Value
}
