package strategy

import (
	"slices"

	"createmovie/internal/material"
	"createmovie/internal/matcher"
)

// Scored is a candidate with its base score, strategy bonus and total.
type Scored struct {
	Index    int
	Material *material.Material
	Base     float64
	Bonus    float64
	Score    float64
}

// Rank scores every candidate for cut and orders them by total score
// descending, breaking ties by ascending pool index.
func Rank(cut material.Cut, pool []*material.Material, m *matcher.Matcher, s Strategy) []Scored {
	candidates := m.Candidates(cut, pool)
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		base := m.Score(c.Material, cut)
		bonus := s.AdditionalBonus(c.Material, cut)
		scored = append(scored, Scored{
			Index:    c.Index,
			Material: c.Material,
			Base:     base,
			Bonus:    bonus,
			Score:    base + bonus,
		})
	}
	slices.SortFunc(scored, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Index - b.Index
		}
	})
	return scored
}

// SelectBest returns the top-ranked candidate. The boolean is false when no
// candidate qualifies, which callers treat as a generation fallback.
func SelectBest(cut material.Cut, pool []*material.Material, m *matcher.Matcher, s Strategy) (Scored, bool) {
	ranked := Rank(cut, pool, m, s)
	if len(ranked) == 0 {
		return Scored{}, false
	}
	return ranked[0], true
}
