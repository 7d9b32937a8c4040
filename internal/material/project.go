package material

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"createmovie/internal/services"
)

// Scoring weight names recognised by the matcher.
const (
	WeightKeywordMatch  = "keyword_match"
	WeightCategoryMatch = "category_match"
	WeightTimeMatch     = "time_match"
	WeightMoodMatch     = "mood_match"
	WeightQualityBonus  = "quality_bonus"
	WeightUnusedBonus   = "unused_bonus"
)

// DefaultWeights returns the base scoring weights. The returned map is a copy.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		WeightKeywordMatch:  5.0,
		WeightCategoryMatch: 3.0,
		WeightTimeMatch:     2.0,
		WeightMoodMatch:     2.0,
		WeightQualityBonus:  1.0,
		WeightUnusedBonus:   0.5,
	}
}

// Usage holds allocation requirements for a project.
type Usage struct {
	MinimumUsageRate float64 `yaml:"minimum_usage_rate" json:"minimum_usage_rate"`
	AllowReuse       bool    `yaml:"allow_reuse" json:"allow_reuse"`
}

// ProjectConfig is the per-project allocation configuration.
type ProjectConfig struct {
	// Root is the directory holding the project file. Material paths default
	// to <Root>/source_materials/raw/<category>/<filename>.
	Root           string             `json:"-"`
	ProjectType    string             `json:"project_type"`
	Categories     []string           `json:"categories"`
	Usage          Usage              `json:"usage_requirements"`
	Constraints    map[string]bool    `json:"constraints,omitempty"`
	ScoringWeights map[string]float64 `json:"scoring_weights,omitempty"`
}

// Weight returns the configured weight for name, falling back to the default.
func (c ProjectConfig) Weight(name string) float64 {
	if w, ok := c.ScoringWeights[name]; ok {
		return w
	}
	return DefaultWeights()[name]
}

// MaterialsRoot is the directory under which raw materials and metadata live.
func (c ProjectConfig) MaterialsRoot() string {
	return filepath.Join(c.Root, "source_materials")
}

// MetadataPath is the conventional location of the material metadata file.
func (c ProjectConfig) MetadataPath() string {
	return filepath.Join(c.MaterialsRoot(), "metadata", "photo_descriptions.yaml")
}

// Validate checks value ranges and normalizes the category list in place.
func (c *ProjectConfig) Validate() error {
	if r := c.Usage.MinimumUsageRate; !(r >= 0 && r <= 1) {
		return &ConfigError{Field: "usage_requirements.minimum_usage_rate", Message: fmt.Sprintf("must be between 0 and 1, got %g", r)}
	}
	names := make([]string, 0, len(c.ScoringWeights))
	for name := range c.ScoringWeights {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if w := c.ScoringWeights[name]; !(w >= 0) || math.IsInf(w, 1) {
			return &ConfigError{Field: "material_scoring_weights." + name, Message: fmt.Sprintf("must be a finite non-negative number, got %g", w)}
		}
	}
	cleaned := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		cat = strings.TrimSpace(cat)
		if cat == "" {
			return &ConfigError{Field: "requirements.materials.categories", Message: "category name must not be empty"}
		}
		if !slices.Contains(cleaned, cat) {
			cleaned = append(cleaned, cat)
		}
	}
	c.Categories = cleaned
	return nil
}

// ConfigError reports malformed project or material configuration. It
// matches services.ErrConfiguration under errors.Is.
type ConfigError struct {
	Path    string
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("material config")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{services.ErrConfiguration, e.Err}
	}
	return []error{services.ErrConfiguration}
}

type projectFile struct {
	Project struct {
		Type string `yaml:"type"`
		Name string `yaml:"name"`
	} `yaml:"project"`
	Requirements struct {
		Materials struct {
			Categories        categoryList    `yaml:"categories"`
			UsageRequirements Usage           `yaml:"usage_requirements"`
			Constraints       map[string]bool `yaml:"constraints"`
		} `yaml:"materials"`
	} `yaml:"requirements"`
	Weights map[string]float64 `yaml:"material_scoring_weights"`
}

// categoryList accepts either a sequence of names or a mapping whose keys are
// the names (e.g. {beach: "4-5"}). Mapping keys keep their document order.
type categoryList []string

func (l *categoryList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*l = names
	case yaml.MappingNode:
		names := make([]string, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			names = append(names, node.Content[i].Value)
		}
		*l = names
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("categories must be a list or mapping, got %q", node.Value)
		}
		*l = nil
	default:
		return errors.New("categories must be a list or mapping")
	}
	return nil
}

// LoadProject reads a project YAML file.
func LoadProject(path string) (ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectConfig{}, &ConfigError{Path: path, Message: "read project file", Err: err}
	}
	cfg, err := ParseProject(data)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return ProjectConfig{}, err
	}
	cfg.Root = filepath.Dir(path)
	return cfg, nil
}

// ParseProject decodes and validates project YAML.
func ParseProject(data []byte) (ProjectConfig, error) {
	var file projectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ProjectConfig{}, &ConfigError{Message: "parse project yaml", Err: err}
	}
	cfg := ProjectConfig{
		ProjectType:    strings.ToLower(strings.TrimSpace(file.Project.Type)),
		Categories:     []string(file.Requirements.Materials.Categories),
		Usage:          file.Requirements.Materials.UsageRequirements,
		Constraints:    file.Requirements.Materials.Constraints,
		ScoringWeights: file.Weights,
	}
	if err := cfg.Validate(); err != nil {
		return ProjectConfig{}, err
	}
	return cfg, nil
}
