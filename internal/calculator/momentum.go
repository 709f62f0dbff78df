package calculator

import (
	"errors"
	"math"

	"B3Sentinel/internal/model"
)

// ErrNoHistory is returned when a series has no usable observation.
var ErrNoHistory = errors.New("no price history")

// Closes extracts the close prices of bars in order.
func Closes(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// LastClose returns the most recent close and whether it is a usable price.
func LastClose(closes []float64) (float64, bool) {
	if len(closes) == 0 {
		return 0, false
	}
	last := closes[len(closes)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) || last <= 0 {
		return last, false
	}
	return last, true
}

// Momentum returns last/first - 1 over the final `bars` observations.
// bars <= 0 uses the whole series. A series no longer than bars has no
// momentum over that window and yields 0.
func Momentum(closes []float64, bars int) (float64, error) {
	if len(closes) == 0 {
		return 0, ErrNoHistory
	}
	window := closes
	if bars > 0 {
		if len(closes) <= bars {
			return 0, nil
		}
		window = closes[len(closes)-bars:]
	}
	first := window[0]
	last := window[len(window)-1]
	if first <= 0 || math.IsNaN(first) || math.IsNaN(last) {
		return 0, errors.New("momentum: first close is not a usable price")
	}
	return last/first - 1, nil
}

// Returns converts prices to simple daily returns, skipping zero bases.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(closes[i]) {
			continue
		}
		out = append(out, (closes[i]-prev)/prev)
	}
	return out
}
