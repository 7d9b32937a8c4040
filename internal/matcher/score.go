package matcher

import (
	"slices"
	"strings"
	"unicode"

	"createmovie/internal/material"
)

const minKeywordRunes = 3

type weights struct {
	keyword  float64
	category float64
	time     float64
	mood     float64
	quality  float64
	unused   float64
}

func resolveWeights(cfg material.ProjectConfig) weights {
	return weights{
		keyword:  cfg.Weight(material.WeightKeywordMatch),
		category: cfg.Weight(material.WeightCategoryMatch),
		time:     cfg.Weight(material.WeightTimeMatch),
		mood:     cfg.Weight(material.WeightMoodMatch),
		quality:  cfg.Weight(material.WeightQualityBonus),
		unused:   cfg.Weight(material.WeightUnusedBonus),
	}
}

// Breakdown itemizes the base score of one material for one cut.
type Breakdown struct {
	Keywords []string `json:"keywords,omitempty"`
	Keyword  float64  `json:"keyword"`
	Category float64  `json:"category"`
	Time     float64  `json:"time"`
	Mood     float64  `json:"mood"`
	Quality  float64  `json:"quality"`
	Unused   float64  `json:"unused"`
}

// Total sums the components in a fixed order.
func (b Breakdown) Total() float64 {
	return b.Keyword + b.Category + b.Time + b.Mood + b.Quality + b.Unused
}

// Score returns the base relevance of mat for cut. It does not modify mat.
func (m *Matcher) Score(mat *material.Material, cut material.Cut) float64 {
	return m.Explain(mat, cut).Total()
}

// Explain returns the itemized base score of mat for cut.
func (m *Matcher) Explain(mat *material.Material, cut material.Cut) Breakdown {
	var b Breakdown
	w := m.weights

	text := mat.Text()
	for _, kw := range Keywords(cut.SceneDescription) {
		if strings.Contains(text, kw) {
			b.Keywords = append(b.Keywords, kw)
		}
	}
	b.Keyword = float64(len(b.Keywords)) * w.keyword

	if slices.Contains(cut.Categories, mat.Category) {
		b.Category = w.category
	}

	if cutTime := strings.ToLower(cut.TimeOfDay); cutTime != "" && mat.TimeOfDay != nil {
		if strings.Contains(strings.ToLower(*mat.TimeOfDay), cutTime) {
			b.Time = w.time
		}
	}

	if cut.Mood != "" && mat.ColorTone != nil && MoodMatchesColor(cut.Mood, *mat.ColorTone) {
		b.Mood = w.mood
	}

	if mat.IsHD() {
		b.Quality = w.quality
	}
	b.Quality += mat.QualityScore * w.quality

	if !mat.IsAssigned() {
		b.Unused = w.unused
	}
	return b
}

// Keywords extracts the unique word tokens of at least three runes from text,
// lowercased, in order of first appearance. Letters, digits and underscore
// count as word characters.
func Keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minKeywordRunes {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}
