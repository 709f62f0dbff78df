package universe

import (
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/valuation"
)

// Eligible applies the coarse filters. It returns the rejection reason when false.
func (b *Builder) Eligible(inst model.Instrument, capital float64) (string, bool) {
	if inst.Price <= 0 {
		return "no price", false
	}
	if capital > 0 && inst.Price > capital {
		return "price above capital", false
	}
	if inst.Liquidity <= b.cfg.MinLiquidity {
		return "low liquidity", false
	}
	if b.excluded(inst.Ticker) {
		return "excluded", false
	}
	if inst.DividendYield < b.minYield {
		return "low yield", false
	}
	if inst.IsFund() {
		if inst.PriceToBook >= b.cfg.FundMaxPB {
			return "fund p/vp too high", false
		}
		return "", true
	}
	if inst.PriceToEarnings <= 0 {
		return "non-positive p/l", false
	}
	if b.cfg.SafetyFilter {
		return b.Safe(inst)
	}
	return "", true
}

// Safe rejects insolvent or overleveraged equities and admits only
// discounted, yielding or high-quality ones.
func (b *Builder) Safe(inst model.Instrument) (string, bool) {
	if !inst.IgnoreSolvency && inst.NetEquity <= 0 {
		return "negative equity", false
	}
	if inst.NetEquity > 1 && inst.GrossDebt/inst.NetEquity > b.cfg.MaxDebtToEquity {
		return "overleveraged", false
	}

	margin := valuation.Margin(inst.Price, valuation.Intrinsic(inst.EPS, inst.BVPS))
	pe := inst.PriceToEarnings
	switch {
	case margin <= 1.0 && pe < 25:
	case inst.DividendYield >= b.minYield && pe < 25:
	case inst.ROE > 0.20 && pe < 15:
	default:
		return "no safety margin", false
	}
	return "", true
}

func (b *Builder) excluded(ticker string) bool {
	base := model.BaseTicker(ticker)
	for _, e := range b.cfg.Exclusions {
		if model.BaseTicker(e) == base {
			return true
		}
	}
	return false
}
