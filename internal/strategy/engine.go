package strategy

import (
	"B3Sentinel/internal/config"
	"B3Sentinel/internal/model"
)

// Variant selects the profile ladder and which rules are active.
type Variant int

const (
	// Screening ranks the whole market for a single purchase.
	Screening Variant = iota
	// Rebalancing scores holdings and candidates against bucket targets.
	Rebalancing
)

type tier struct {
	MinScore float64
	Profile  model.Profile
}

// Engine evaluates candidates against the rule table.
type Engine struct {
	cfg     config.ScoringConfig
	variant Variant
	tiers   []tier
}

// NewEngine builds an engine for one variant.
func NewEngine(cfg config.ScoringConfig, variant Variant) *Engine {
	return &Engine{
		cfg:     cfg,
		variant: variant,
		tiers: []tier{
			{cfg.ExceptionalScore, model.ProfileExceptional},
			{cfg.StrongScore, model.ProfileStrongBuy},
		},
	}
}

func (e *Engine) weight(r Rule) float64 {
	if r.Name == config.RuleSectorResilient && e.variant != Rebalancing {
		return 0
	}
	return e.cfg.Weights[r.Name]
}

// Score sums the first matching rule of each category.
func (e *Engine) Score(c model.Candidate) (score float64, reasons, premises []string) {
	fired := make(map[string]bool)
	for _, r := range Rules {
		if fired[r.Category] {
			continue
		}
		w := e.weight(r)
		if w == 0 || !r.When(c, e.cfg) {
			continue
		}
		fired[r.Category] = true
		score += w
		if r.Premise {
			premises = append(premises, r.Message(c))
		} else {
			reasons = append(reasons, r.Message(c))
		}
	}
	return score, reasons, premises
}

// mapProfile maps a score to a profile for the engine's variant.
func (e *Engine) mapProfile(c model.Candidate) model.Profile {
	for _, t := range e.tiers {
		if c.Score >= t.MinScore {
			return t.Profile
		}
	}
	if e.variant == Screening {
		return model.ProfileNeutral
	}
	switch {
	case c.Score >= e.cfg.MinScore && c.DividendYield >= e.cfg.MinYield:
		return model.ProfileIncome
	case c.Momentum > 0.10:
		return model.ProfileGrowth
	default:
		return model.ProfileReview
	}
}

// Evaluate returns a scored copy of c. Evaluating the same input twice yields the same result.
func (e *Engine) Evaluate(c model.Candidate) model.Candidate {
	out := c
	out.Score, out.Justification, out.Premises = e.Score(c)
	out.Profile = e.mapProfile(out)
	return out
}

// EvaluateAll scores every candidate into a new slice.
func (e *Engine) EvaluateAll(cands []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, len(cands))
	for i, c := range cands {
		out[i] = e.Evaluate(c)
	}
	return out
}
