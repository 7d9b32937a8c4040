package knowledge

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	nameScore          = 20.0
	narrativeWordScore = 5.0
	featureWordScore   = 3.0
	moodScore          = 10.0
	bestTimeScore      = 8.0
)

var moodKeywords = map[string][]string{
	"peaceful":  {"静", "穏やか", "平和", "calm"},
	"energetic": {"動", "ダイナミック", "dynamic", "賑わい"},
	"romantic":  {"ロマン", "romantic", "夕日", "sunset"},
	"spiritual": {"霊場", "巡礼", "祈り", "spiritual"},
	"natural":   {"自然", "野趣", "nature", "波"},
}

// Suggestion is a scored location recommendation for a scene.
type Suggestion struct {
	Name  string  `json:"name"`
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// RankLocations scores every location against a scene. Only locations with
// a positive score are returned, ordered by score descending and then file
// order.
func (db *Database) RankLocations(scene, mood, timeOfDay string) []Suggestion {
	desc := strings.ToLower(scene)
	out := make([]Suggestion, 0, len(db.locations))
	for _, loc := range db.locations {
		score := 0.0
		if strings.Contains(desc, strings.ToLower(loc.Name)) {
			score += nameScore
		}
		score += float64(WordHits(loc.CoreNarrative, desc)) * narrativeWordScore
		for _, feature := range loc.KeyFeatures {
			score += float64(WordHits(feature, desc)) * featureWordScore
		}
		if keywords, ok := moodKeywords[strings.ToLower(mood)]; ok {
			theme := strings.ToLower(loc.StorytellingTheme + " " + loc.CoreNarrative)
			for _, kw := range keywords {
				if strings.Contains(theme, kw) {
					score += moodScore
					break
				}
			}
		}
		if timeOfDay != "" && strings.Contains(strings.ToLower(loc.FilmingTips.BestTime.String()), strings.ToLower(timeOfDay)) {
			score += bestTimeScore
		}
		if score > 0 {
			out = append(out, Suggestion{Name: loc.Name, ID: loc.ID, Score: score})
		}
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return out
}

// SuggestLocations returns the names from RankLocations.
func (db *Database) SuggestLocations(scene, mood, timeOfDay string) []string {
	ranked := db.RankLocations(scene, mood, timeOfDay)
	names := make([]string, 0, len(ranked))
	for _, s := range ranked {
		names = append(names, s.Name)
	}
	return names
}

// WordHits counts the whitespace-separated words of text longer than two
// runes that occur in scene. text is lowercased; scene must already be.
// Repeated words count every time.
func WordHits(text, scene string) int {
	hits := 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(word) > 2 && strings.Contains(scene, word) {
			hits++
		}
	}
	return hits
}
