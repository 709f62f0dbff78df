package strategy

import (
	"fmt"
	"strings"

	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
)

// Yield and valuation tier boundaries.
const (
	yieldExceptional = 0.12
	yieldAttractive  = 0.08
	pbSevere         = 0.85
	pbFair           = 1.0
	pbPremium        = 1.20
	momentumUp       = 0.05
	momentumDown     = -0.10
	grahamDiscount   = 0.70
	roeQuality       = 0.15
	growthQuality    = 0.10
	peLow            = 10
)

// Rule is one scoring predicate. Within a category only the first matching
// rule counts; categories add up.
type Rule struct {
	Name     string
	Category string
	// Premise rules are business assumptions, reported apart from the technical reasons.
	Premise bool
	When    func(c model.Candidate, s config.ScoringConfig) bool
	Message func(c model.Candidate) string
}

// Rules is the ordered rule table.
var Rules = []Rule{
	{
		Name: config.RuleYieldExceptional, Category: "yield",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.DividendYield >= yieldExceptional },
		Message: func(c model.Candidate) string { return fmt.Sprintf("DY excepcional %.1f%%", c.DividendYield*100) },
	},
	{
		Name: config.RuleYieldAttractive, Category: "yield",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.DividendYield >= yieldAttractive },
		Message: func(c model.Candidate) string { return fmt.Sprintf("DY atrativo %.1f%%", c.DividendYield*100) },
	},
	{
		Name: config.RuleYieldBase, Category: "yield",
		When:    func(c model.Candidate, s config.ScoringConfig) bool { return c.DividendYield >= s.MinYield },
		Message: func(c model.Candidate) string { return fmt.Sprintf("DY %.1f%%", c.DividendYield*100) },
	},
	{
		Name: config.RulePBSevere, Category: "valuation",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.PriceToBook > 0 && c.PriceToBook < pbSevere },
		Message: func(c model.Candidate) string { return fmt.Sprintf("P/VP muito descontado %.2f", c.PriceToBook) },
	},
	{
		Name: config.RulePBMild, Category: "valuation",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.PriceToBook > 0 && c.PriceToBook < pbFair },
		Message: func(c model.Candidate) string { return fmt.Sprintf("P/VP descontado %.2f", c.PriceToBook) },
	},
	{
		Name: config.RulePBPremium, Category: "valuation",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.PriceToBook > pbPremium },
		Message: func(c model.Candidate) string { return fmt.Sprintf("P/VP com ágio %.2f", c.PriceToBook) },
	},
	{
		Name: config.RuleMomentumPositive, Category: "momentum",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.Momentum > momentumUp },
		Message: func(c model.Candidate) string { return fmt.Sprintf("tendência de alta %+.1f%%", c.Momentum*100) },
	},
	{
		Name: config.RuleMomentumNegative, Category: "momentum",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.Momentum < momentumDown },
		Message: func(c model.Candidate) string { return fmt.Sprintf("tendência de queda %+.1f%%", c.Momentum*100) },
	},
	{
		Name: config.RuleGraham, Category: "graham",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.ValueDefined && c.MarginRatio < grahamDiscount },
		Message: func(c model.Candidate) string { return fmt.Sprintf("abaixo do valor de Graham (%.0f%%)", c.MarginRatio*100) },
	},
	{
		Name: config.RuleSectorFund, Category: "sector",
		When: func(c model.Candidate, s config.ScoringConfig) bool {
			return c.IsFund() && matchesAny(c.Sector, s.FundSectors) &&
				c.DividendYield >= s.MinYield && c.PriceToBook > 0 && c.PriceToBook < pbFair
		},
		Message: func(c model.Candidate) string { return "segmento " + c.Sector + " descontado" },
	},
	{
		Name: config.RuleSectorResilient, Category: "sector", Premise: true,
		When: func(c model.Candidate, s config.ScoringConfig) bool {
			return !c.IsFund() && matchesAny(c.Sector, s.ResilientSectors)
		},
		Message: func(c model.Candidate) string { return "setor resiliente (" + c.Sector + ")" },
	},
	{
		Name: config.RuleQualityROE, Category: "quality",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.ROE > roeQuality },
		Message: func(c model.Candidate) string { return fmt.Sprintf("ROE %.1f%%", c.ROE*100) },
	},
	{
		Name: config.RuleGrowth, Category: "growth",
		When:    func(c model.Candidate, _ config.ScoringConfig) bool { return c.Growth5y > growthQuality },
		Message: func(c model.Candidate) string { return fmt.Sprintf("receita cresce %.1f%% em 5a", c.Growth5y*100) },
	},
	{
		Name: config.RuleLowPE, Category: "pe",
		When: func(c model.Candidate, _ config.ScoringConfig) bool {
			return c.PriceToEarnings > 0 && c.PriceToEarnings < peLow
		},
		Message: func(c model.Candidate) string { return fmt.Sprintf("P/L baixo %.1f", c.PriceToEarnings) },
	},
	{
		Name: config.RulePennyFund, Category: "penalty", Premise: true,
		When:    func(c model.Candidate, s config.ScoringConfig) bool { return c.IsFund() && c.Price < s.PennyPrice },
		Message: func(c model.Candidate) string { return fmt.Sprintf("cota abaixo de R$ %.2f, risco de liquidez", c.Price) },
	},
}

func matchesAny(sector string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(sector, k) {
			return true
		}
	}
	return false
}
