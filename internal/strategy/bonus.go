package strategy

import (
	"strings"

	"createmovie/internal/material"
)

type defaultStrategy struct{}

func (defaultStrategy) Kind() Kind { return Default }

func (defaultStrategy) AdditionalBonus(*material.Material, material.Cut) float64 { return 0 }

type tourism struct{}

func (tourism) Kind() Kind { return Tourism }

func (tourism) AdditionalBonus(m *material.Material, cut material.Cut) float64 {
	bonus := 0.0
	location := material.Value(m.Location)
	if location != "" {
		bonus += 10.0
	}
	if lowerIn(m.Weather, "sunny", "clear") {
		bonus += 5.0
	}
	if lowerIn(m.TimeOfDay, "golden_hour", "blue_hour") {
		bonus += 5.0
	}
	if location != "" && strings.Contains(strings.ToLower(cut.SceneDescription), strings.ToLower(location)) {
		bonus += 15.0
	}
	return bonus
}

type education struct{}

func (education) Kind() Kind { return Education }

func (education) AdditionalBonus(m *material.Material, _ material.Cut) float64 {
	bonus := 0.0
	if lowerIn(m.Composition, "centered", "simple") {
		bonus += 10.0
	}
	if lowerIn(m.ColorTone, "bright", "clear") {
		bonus += 5.0
	}
	return bonus
}

var emotionalKeywords = []string{"exciting", "luxurious", "premium", "lifestyle", "elegant"}

type marketing struct{}

func (marketing) Kind() Kind { return Marketing }

func (marketing) AdditionalBonus(m *material.Material, _ material.Cut) float64 {
	bonus := 0.0
	desc := strings.ToLower(m.Description)
	for _, kw := range emotionalKeywords {
		if strings.Contains(desc, kw) {
			bonus += 10.0
			break
		}
	}
	if lowerIn(m.Composition, "rule_of_thirds", "leading_lines") {
		bonus += 5.0
	}
	if lowerIn(m.ColorTone, "vivid", "bright", "saturated") {
		bonus += 3.0
	}
	return bonus
}

type competition struct{}

func (competition) Kind() Kind { return Competition }

func (competition) AdditionalBonus(m *material.Material, _ material.Cut) float64 {
	if m.IsAssigned() {
		return 0
	}
	return 20.0
}
