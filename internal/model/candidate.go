package model

import "strings"

// Profile is the categorical label assigned from the final score.
type Profile string

const (
	ProfileExceptional Profile = "JOIA RARA"
	ProfileStrongBuy   Profile = "COMPRA FORTE"
	ProfileIncome      Profile = "RENDA"
	ProfileGrowth      Profile = "CRESCIMENTO"
	ProfileNeutral     Profile = "NEUTRO"
	ProfileReview      Profile = "VENDER/REVISAR"
)

// Candidate is an Instrument enriched with history metrics and its score.
type Candidate struct {
	Instrument

	IntrinsicValue float64
	ValueDefined   bool
	MarginRatio    float64
	Momentum       float64
	Volatility     float64

	Score         float64
	Profile       Profile
	Justification []string
	// Premises holds business assumptions (sector resilience, penny risk),
	// shown apart from the technical justification.
	Premises []string
}

// Reason joins the justification for display.
func (c Candidate) Reason() string {
	return strings.Join(c.Justification, ", ")
}
