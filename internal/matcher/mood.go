package matcher

import "strings"

type moodColors struct {
	mood   string
	colors []string
}

// moodTable maps storyboard moods to colour-tone keywords. Order matters for
// the partial-match pass.
var moodTable = []moodColors{
	{"hopeful", []string{"warm", "bright", "gold", "yellow"}},
	{"adventurous", []string{"vivid", "blue", "bright"}},
	{"romantic", []string{"warm", "pink", "soft", "pastel"}},
	{"peaceful", []string{"blue", "soft", "calm", "muted"}},
	{"energetic", []string{"vivid", "bright", "saturated"}},
	{"nostalgic", []string{"warm", "sepia", "muted"}},
	{"mysterious", []string{"dark", "cool", "shadow"}},
	{"joyful", []string{"bright", "vivid", "saturated"}},
	{"melancholy", []string{"muted", "gray", "soft"}},
}

// MoodMatchesColor reports whether colorTone contains a keyword associated
// with mood. An exact mood entry is consulted first; otherwise every entry
// whose name appears inside mood (e.g. "hopeful and excited") is tried.
func MoodMatchesColor(mood, colorTone string) bool {
	mood = strings.ToLower(strings.TrimSpace(mood))
	tone := strings.ToLower(colorTone)
	if mood == "" {
		return false
	}
	for _, entry := range moodTable {
		if entry.mood == mood {
			return containsAny(tone, entry.colors)
		}
	}
	for _, entry := range moodTable {
		if strings.Contains(mood, entry.mood) && containsAny(tone, entry.colors) {
			return true
		}
	}
	return false
}

// MoodColors returns the colour keywords for an exact mood name.
func MoodColors(mood string) ([]string, bool) {
	mood = strings.ToLower(strings.TrimSpace(mood))
	for _, entry := range moodTable {
		if entry.mood == mood {
			return append([]string(nil), entry.colors...), true
		}
	}
	return nil, false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
