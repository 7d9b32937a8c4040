package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// ProjectFiles locates the files written by WriteProject.
type ProjectFiles struct {
	Root       string
	Project    string
	Metadata   string
	Storyboard string
}

const sampleProject = `project:
  type: tourism
  name: Shirahama coast
requirements:
  materials:
    categories:
      - beach
      - town
      - nature
    usage_requirements:
      minimum_usage_rate: 0.5
      allow_reuse: false
`

const sampleMetadata = `photos:
  - id: beach_001
    filename: beach_001.jpg
    category: beach
    width: 1920
    height: 1080
    description: Sunset over the white sand beach with gentle waves
    main_subject: beach
    time_of_day: evening
    color_tone: warm
    quality_score: 0.9
  - id: beach_002
    filename: beach_002.jpg
    category: beach
    width: 640
    height: 480
    description: parking lot near the beach
    quality_score: 0.3
  - id: town_001
    filename: town_001.jpg
    category: town
    width: 1920
    height: 1080
    description: Lively shopping street with lanterns at night
    main_subject: street
    time_of_day: night
    color_tone: vibrant
    quality_score: 0.8
  - id: nature_001
    filename: nature_001.jpg
    category: nature
    width: 3840
    height: 2160
    description: Forest trail in the morning mist
    time_of_day: morning
    quality_score: 0.85
`

const sampleStoryboard = `title: Shirahama in a day
cuts:
  - cut_number: 1
    scene_description: Waves on the beach at sunset
    mood: romantic
    time_of_day: evening
    categories: [beach]
  - cut_number: 2
    scene_description: Shopping street with lanterns at night
    mood: lively
    time_of_day: night
    categories: [town]
  - cut_number: 3
    scene_description: Observation deck over the sea
    mood: majestic
    time_of_day: day
    categories: [landmark]
`

// WriteProject lays out a small tourism project under dir: the project file,
// material metadata at the conventional location, and a three-cut
// storyboard whose last cut has no matching material.
func WriteProject(t testing.TB, dir string) ProjectFiles {
	t.Helper()

	files := ProjectFiles{
		Root:       dir,
		Project:    filepath.Join(dir, "project_config.yaml"),
		Metadata:   filepath.Join(dir, "source_materials", "metadata", "photo_descriptions.yaml"),
		Storyboard: filepath.Join(dir, "storyboard.yaml"),
	}
	WriteFile(t, files.Project, sampleProject)
	WriteFile(t, files.Metadata, sampleMetadata)
	WriteFile(t, files.Storyboard, sampleStoryboard)
	return files
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
