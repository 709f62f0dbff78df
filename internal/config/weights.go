package config

// Scoring rule names, used as keys of ScoringConfig.Weights.
const (
	RuleYieldExceptional = "yield_exceptional"
	RuleYieldAttractive  = "yield_attractive"
	RuleYieldBase        = "yield_base"
	RulePBSevere         = "pb_severe"
	RulePBMild           = "pb_mild"
	RulePBPremium        = "pb_premium"
	RuleMomentumPositive = "momentum_positive"
	RuleMomentumNegative = "momentum_negative"
	RuleGraham           = "graham_discount"
	RuleSectorFund       = "sector_fund"
	RuleSectorResilient  = "sector_resilient"
	RuleQualityROE       = "quality_roe"
	RuleGrowth           = "growth_5y"
	RuleLowPE            = "low_pe"
	RulePennyFund        = "penny_fund"
)

// DefaultWeights returns a fresh copy of the income-mode weights.
// sector_resilient only counts in the rebalancing variant.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		RuleYieldExceptional: 2.5,
		RuleYieldAttractive:  2.0,
		RuleYieldBase:        1.0,
		RulePBSevere:         2.0,
		RulePBMild:           1.0,
		RulePBPremium:        -0.5,
		RuleMomentumPositive: 1.5,
		RuleMomentumNegative: -1.0,
		RuleGraham:           1.5,
		RuleSectorFund:       0.5,
		RuleSectorResilient:  1.0,
		RuleQualityROE:       0,
		RuleGrowth:           0,
		RuleLowPE:            0,
		RulePennyFund:        -5.0,
	}
}
