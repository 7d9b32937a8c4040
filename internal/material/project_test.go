package material_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"createmovie/internal/material"
	"createmovie/internal/services"
)

func TestParseProjectListCategories(t *testing.T) {
	cfg, err := material.ParseProject([]byte(`
project:
  type: Tourism
requirements:
  materials:
    categories: [beach, " town ", beach, nature]
    usage_requirements:
      minimum_usage_rate: 0.75
      allow_reuse: false
    constraints:
      no_deformation: true
material_scoring_weights:
  keyword_match: 7
`))
	if err != nil {
		t.Fatalf("ParseProject returned error: %v", err)
	}
	if cfg.ProjectType != "tourism" {
		t.Fatalf("unexpected project type %q", cfg.ProjectType)
	}
	if got := strings.Join(cfg.Categories, ","); got != "beach,town,nature" {
		t.Fatalf("categories not normalized: %q", got)
	}
	if cfg.Usage.MinimumUsageRate != 0.75 || cfg.Usage.AllowReuse {
		t.Fatalf("unexpected usage %+v", cfg.Usage)
	}
	if !cfg.Constraints["no_deformation"] {
		t.Fatal("expected constraint flag")
	}
	if cfg.Weight(material.WeightKeywordMatch) != 7 {
		t.Fatalf("override ignored: %v", cfg.Weight(material.WeightKeywordMatch))
	}
	if cfg.Weight(material.WeightCategoryMatch) != 3 {
		t.Fatalf("default weight missing: %v", cfg.Weight(material.WeightCategoryMatch))
	}
}

func TestParseProjectMappingCategoriesKeepDocumentOrder(t *testing.T) {
	cfg, err := material.ParseProject([]byte(`
requirements:
  materials:
    categories:
      town: "2-3"
      beach: "4-5"
      nature: "4-5"
`))
	if err != nil {
		t.Fatalf("ParseProject returned error: %v", err)
	}
	if got := strings.Join(cfg.Categories, ","); got != "town,beach,nature" {
		t.Fatalf("unexpected category order %q", got)
	}
	if cfg.ProjectType != "" {
		t.Fatalf("missing project type should stay empty, got %q", cfg.ProjectType)
	}
}

func TestParseProjectValidation(t *testing.T) {
	tests := map[string]string{
		"usage rate":      "requirements: {materials: {usage_requirements: {minimum_usage_rate: 1.5}}}",
		"nan usage rate":  "requirements: {materials: {usage_requirements: {minimum_usage_rate: .nan}}}",
		"inf usage rate":  "requirements: {materials: {usage_requirements: {minimum_usage_rate: .inf}}}",
		"negative weight": "material_scoring_weights: {mood_match: -1}",
		"nan weight":      "material_scoring_weights: {keyword_match: .nan}",
		"inf weight":      "material_scoring_weights: {keyword_match: .inf}",
		"empty category":  "requirements: {materials: {categories: [beach, '']}}",
		"bad categories":  "requirements: {materials: {categories: beach}}",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := material.ParseProject([]byte(doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestLoadProjectSetsRootAndPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("project: {type: education}\n"), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}
	cfg, err := material.LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject returned error: %v", err)
	}
	if cfg.Root != dir {
		t.Fatalf("unexpected root %q", cfg.Root)
	}
	want := filepath.Join(dir, "source_materials", "metadata", "photo_descriptions.yaml")
	if cfg.MetadataPath() != want {
		t.Fatalf("unexpected metadata path %q", cfg.MetadataPath())
	}

	_, err = material.LoadProject(filepath.Join(dir, "missing.yaml"))
	var cfgErr *material.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Path == "" {
		t.Fatalf("expected ConfigError with path, got %v", err)
	}
}
