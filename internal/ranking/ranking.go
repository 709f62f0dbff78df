// Package ranking orders scored candidates.
package ranking

import (
	"sort"

	"B3Sentinel/internal/model"
)

// TieBreak selects the secondary sort key.
type TieBreak int

const (
	// TieBreakPrice prefers the cheaper instrument among equal scores.
	TieBreakPrice TieBreak = iota
	// TieBreakYield prefers the higher dividend yield among equal scores.
	TieBreakYield
)

// Rank returns a new slice sorted by score descending, then by the tie-break.
// Equal keys keep their input order.
func Rank(cands []model.Candidate, tb TieBreak) []model.Candidate {
	out := make([]model.Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if tb == TieBreakYield {
			return a.DividendYield > b.DividendYield
		}
		return a.Price < b.Price
	})
	return out
}

// Admit keeps candidates scoring at least minScore, preserving order.
func Admit(cands []model.Candidate, minScore float64) []model.Candidate {
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	return out
}
