package material

import (
	"encoding/json"
	"strings"
)

// HD thresholds used by IsHD.
const (
	HDWidth  = 1920
	HDHeight = 1080
)

// Material is one source asset eligible for assignment to a cut.
//
// Optional semantic attributes are pointers: nil means the metadata did not
// provide a value, which is distinct from an empty string.
type Material struct {
	ID           string  `yaml:"id" json:"id"`
	Filename     string  `yaml:"filename" json:"filename"`
	Path         string  `yaml:"path" json:"path"`
	Category     string  `yaml:"category" json:"category"`
	Width        int     `yaml:"width" json:"width"`
	Height       int     `yaml:"height" json:"height"`
	FileSize     int64   `yaml:"file_size" json:"file_size"`
	Description  string  `yaml:"description,omitempty" json:"description,omitempty"`
	MainSubject  string  `yaml:"main_subject,omitempty" json:"main_subject,omitempty"`
	Location     *string `yaml:"location,omitempty" json:"location,omitempty"`
	TimeOfDay    *string `yaml:"time_of_day,omitempty" json:"time_of_day,omitempty"`
	Weather      *string `yaml:"weather,omitempty" json:"weather,omitempty"`
	ColorTone    *string `yaml:"color_tone,omitempty" json:"color_tone,omitempty"`
	Composition  *string `yaml:"composition,omitempty" json:"composition,omitempty"`
	QualityScore float64 `yaml:"quality_score" json:"quality_score"`
	AssignedTo   *int    `yaml:"assigned_to,omitempty" json:"assigned_to,omitempty"`
}

// IsHD reports whether the material meets HD resolution on either axis.
func (m *Material) IsHD() bool {
	return m.Width >= HDWidth || m.Height >= HDHeight
}

// AspectRatio returns width/height, or 1 when the height is unknown.
func (m *Material) AspectRatio() float64 {
	if m.Height <= 0 {
		return 1.0
	}
	return float64(m.Width) / float64(m.Height)
}

// IsAssigned reports whether a cut already owns the material.
func (m *Material) IsAssigned() bool {
	return m.AssignedTo != nil
}

// Text returns the lowercased description, main subject and location joined
// for keyword matching.
func (m *Material) Text() string {
	parts := []string{m.Description, m.MainSubject, Value(m.Location)}
	return strings.ToLower(strings.Join(parts, " "))
}

// Value dereferences an optional attribute, returning "" for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to s. Handy when building materials in code.
func Ptr(s string) *string {
	return &s
}

type materialFields Material

// materialView is the serialized form; it carries the derived is_hd flag.
type materialView struct {
	materialFields `yaml:",inline"`
	IsHD           bool `yaml:"is_hd" json:"is_hd"`
}

// MarshalYAML emits the material with is_hd recomputed from its dimensions.
func (m Material) MarshalYAML() (any, error) {
	return materialView{materialFields: materialFields(m), IsHD: m.IsHD()}, nil
}

// MarshalJSON emits the material with is_hd recomputed from its dimensions.
func (m Material) MarshalJSON() ([]byte, error) {
	return json.Marshal(materialView{materialFields: materialFields(m), IsHD: m.IsHD()})
}

// Cut is one storyboard segment requesting a visual asset.
type Cut struct {
	// ID is the storyboard cut number. Zero means "use the 1-based position".
	ID               int      `yaml:"cut_number,omitempty" json:"cut_number,omitempty"`
	SceneDescription string   `yaml:"scene_description" json:"scene_description"`
	Mood             string   `yaml:"mood" json:"mood"`
	TimeOfDay        string   `yaml:"time_of_day" json:"time_of_day"`
	Categories       []string `yaml:"categories" json:"categories"`
	CameraAngle      string   `yaml:"camera_angle,omitempty" json:"camera_angle,omitempty"`
}
