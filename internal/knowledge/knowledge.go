package knowledge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"createmovie/internal/services"
)

// Source is the read-only view of a research knowledge base consumed by the
// research-aware matching strategy.
type Source interface {
	Location(name string) (Location, bool)
	SuggestLocations(scene, mood, timeOfDay string) []string
	IsPriority(name string) bool
}

// Project describes the research project the database belongs to.
type Project struct {
	Name      string `yaml:"name" json:"name"`
	Theme     string `yaml:"theme" json:"theme"`
	CoreValue string `yaml:"core_value" json:"core_value"`
}

// Location is one researched filming location.
type Location struct {
	ID                string         `yaml:"id" json:"id"`
	Name              string         `yaml:"name" json:"name"`
	Category          string         `yaml:"category" json:"category"`
	Type              string         `yaml:"type" json:"type"`
	CoreNarrative     string         `yaml:"core_narrative" json:"core_narrative"`
	StorytellingTheme string         `yaml:"storytelling_theme" json:"storytelling_theme"`
	KeyFeatures       []string       `yaml:"key_features" json:"key_features"`
	VisualElements    VisualElements `yaml:"visual_elements" json:"visual_elements"`
	FilmingTips       FilmingTips    `yaml:"filming_tips" json:"filming_tips"`
	NarrativeRole     string         `yaml:"narrative_role,omitempty" json:"narrative_role,omitempty"`
	Symbolism         string         `yaml:"symbolism,omitempty" json:"symbolism,omitempty"`
}

// VisualElements lists what a location looks like on camera.
type VisualElements struct {
	Primary   Text `yaml:"primary" json:"primary"`
	Secondary Text `yaml:"secondary,omitempty" json:"secondary,omitempty"`
}

// FilmingTips carries practical shooting advice.
type FilmingTips struct {
	BestTime  Text `yaml:"best_time" json:"best_time"`
	BestAngle Text `yaml:"best_angle,omitempty" json:"best_angle,omitempty"`
}

// Priority marks a location as a key visual for the project.
type Priority struct {
	Location string `yaml:"location" json:"location"`
	Reason   string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Text decodes a YAML scalar as text. Lists and mappings decode to the empty
// string so a structured best_time never matches a time of day.
type Text string

func (s *Text) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag != "!!null" {
		*s = Text(node.Value)
		return nil
	}
	*s = ""
	return nil
}

// String returns the decoded text.
func (s Text) String() string { return string(s) }

type databaseFile struct {
	Project        Project             `yaml:"project"`
	Locations      []Location          `yaml:"locations"`
	NarrativeTexts map[string][]string `yaml:"narrative_phrases"`
	FilmingSummary struct {
		KeyVisualPriorities []Priority `yaml:"key_visual_priorities"`
	} `yaml:"filming_summary"`
}

// Database is a research knowledge base loaded from YAML. Locations keep
// file order, which is the tie-breaker for suggestions.
type Database struct {
	path       string
	project    Project
	locations  []Location
	byID       map[string]int
	byName     map[string]int
	priorities []Priority
	phrases    map[string][]string
}

// Load reads a research YAML file.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "knowledge", "load", "read "+path, err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, err
	}
	db.path = path
	return db, nil
}

// Parse decodes research YAML.
func Parse(data []byte) (*Database, error) {
	var file databaseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "knowledge", "parse", "decode yaml", err)
	}
	db := &Database{
		project:    file.Project,
		locations:  file.Locations,
		byID:       make(map[string]int, len(file.Locations)),
		byName:     make(map[string]int, len(file.Locations)),
		priorities: file.FilmingSummary.KeyVisualPriorities,
		phrases:    file.NarrativeTexts,
	}
	for i, loc := range file.Locations {
		if strings.TrimSpace(loc.ID) == "" || strings.TrimSpace(loc.Name) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "knowledge", "parse",
				fmt.Sprintf("locations[%d] requires id and name", i), nil)
		}
		if _, dup := db.byID[loc.ID]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "knowledge", "parse",
				fmt.Sprintf("duplicate location id %q", loc.ID), nil)
		}
		db.byID[loc.ID] = i
		if _, seen := db.byName[loc.Name]; !seen {
			db.byName[loc.Name] = i
		}
	}
	return db, nil
}

// Path returns the file the database was loaded from, if any.
func (db *Database) Path() string { return db.path }

// Project returns the project metadata.
func (db *Database) Project() Project { return db.project }

// Locations returns all locations in file order.
func (db *Database) Locations() []Location {
	return append([]Location(nil), db.locations...)
}

// Location looks up a location by its exact name.
func (db *Database) Location(name string) (Location, bool) {
	idx, ok := db.byName[name]
	if !ok {
		return Location{}, false
	}
	return db.locations[idx], true
}

// LocationByID looks up a location by id.
func (db *Database) LocationByID(id string) (Location, bool) {
	idx, ok := db.byID[id]
	if !ok {
		return Location{}, false
	}
	return db.locations[idx], true
}

// Priorities returns the key visual priorities in file order.
func (db *Database) Priorities() []Priority {
	return append([]Priority(nil), db.priorities...)
}

// IsPriority reports whether name is listed as a key visual priority.
func (db *Database) IsPriority(name string) bool {
	for _, p := range db.priorities {
		if p.Location == name {
			return true
		}
	}
	return false
}

// NarrativePhrases returns the phrases of the given kind (openings,
// transitions, closings).
func (db *Database) NarrativePhrases(kind string) []string {
	return append([]string(nil), db.phrases[kind]...)
}

// SearchLocations filters by category and type (exact, empty matches all)
// and requires every keyword to appear, case-insensitively, in the location's
// name, narrative, theme or key features.
func (db *Database) SearchLocations(category, locationType string, keywords []string) []Location {
	var out []Location
	for _, loc := range db.locations {
		if category != "" && loc.Category != category {
			continue
		}
		if locationType != "" && loc.Type != locationType {
			continue
		}
		if len(keywords) > 0 {
			text := strings.ToLower(strings.Join([]string{
				loc.Name, loc.CoreNarrative, loc.StorytellingTheme, strings.Join(loc.KeyFeatures, " "),
			}, " "))
			if !containsAll(text, keywords) {
				continue
			}
		}
		out = append(out, loc)
	}
	return out
}

func containsAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, strings.ToLower(strings.TrimSpace(kw))) {
			return false
		}
	}
	return true
}
