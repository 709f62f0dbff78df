package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDays annualizes daily statistics.
const TradingDays = 252

// Volatility is the annualized standard deviation of daily returns.
// Fewer than two returns yield 0.
func Volatility(closes []float64) float64 {
	returns := Returns(closes)
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDays)
}
