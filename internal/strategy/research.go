package strategy

import (
	"slices"
	"strings"

	"createmovie/internal/knowledge"
	"createmovie/internal/material"
)

const (
	narrativeWordBonus = 8.0
	themeWordBonus     = 6.0
	visualWordBonus    = 4.0
	bestTimeBonus      = 12.0
	priorityBonus      = 10.0
	suggestionBonus    = 20.0
	suggestionDepth    = 3
)

// researchAware extends the tourism bonus with lookups against a knowledge
// base keyed by the material's location name.
type researchAware struct {
	kb knowledge.Source
}

func (researchAware) Kind() Kind { return ResearchAware }

func (r researchAware) AdditionalBonus(m *material.Material, cut material.Cut) float64 {
	bonus := tourism{}.AdditionalBonus(m, cut)
	if r.kb == nil {
		return bonus
	}
	return bonus + r.researchBonus(m, cut)
}

func (r researchAware) researchBonus(m *material.Material, cut material.Cut) float64 {
	location := material.Value(m.Location)
	if location == "" {
		return 0
	}
	scene := strings.ToLower(cut.SceneDescription)
	bonus := 0.0

	if loc, ok := r.kb.Location(location); ok {
		bonus += float64(knowledge.WordHits(loc.CoreNarrative, scene)) * narrativeWordBonus
		bonus += float64(knowledge.WordHits(loc.StorytellingTheme, scene)) * themeWordBonus
		bonus += float64(knowledge.WordHits(loc.VisualElements.Primary.String(), scene)) * visualWordBonus
		if cut.TimeOfDay != "" && strings.Contains(
			strings.ToLower(loc.FilmingTips.BestTime.String()), strings.ToLower(cut.TimeOfDay)) {
			bonus += bestTimeBonus
		}
		if r.kb.IsPriority(loc.Name) {
			bonus += priorityBonus
		}
	}

	suggested := r.kb.SuggestLocations(scene, cut.Mood, cut.TimeOfDay)
	if len(suggested) > suggestionDepth {
		suggested = suggested[:suggestionDepth]
	}
	if rank := slices.Index(suggested, location); rank >= 0 {
		bonus += suggestionBonus / float64(rank+1)
	}
	return bonus
}
