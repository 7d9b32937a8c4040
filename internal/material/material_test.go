package material_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"createmovie/internal/material"
	"createmovie/internal/services"
)

func TestIsHDFollowsDimensions(t *testing.T) {
	tests := []struct {
		width, height int
		want          bool
	}{
		{1920, 0, true},
		{0, 1080, true},
		{1919, 1079, false},
		{3840, 2160, true},
		{0, 0, false},
	}
	for _, tt := range tests {
		m := material.Material{Width: tt.width, Height: tt.height}
		if got := m.IsHD(); got != tt.want {
			t.Fatalf("IsHD(%dx%d) = %v, want %v", tt.width, tt.height, got, tt.want)
		}
	}

	m := material.Material{Width: 1280, Height: 720}
	if m.IsHD() {
		t.Fatal("720p should not be HD")
	}
	m.Width, m.Height = 1920, 1080
	if !m.IsHD() {
		t.Fatal("IsHD must be recomputed after dimensions change")
	}
}

func TestAspectRatio(t *testing.T) {
	m := material.Material{Width: 1920, Height: 1080}
	if got := m.AspectRatio(); got < 1.77 || got > 1.78 {
		t.Fatalf("unexpected aspect ratio %v", got)
	}
	if got := (&material.Material{Width: 100}).AspectRatio(); got != 1.0 {
		t.Fatalf("expected 1.0 for zero height, got %v", got)
	}
}

func TestMarshalEmitsDerivedHDFlag(t *testing.T) {
	m := material.Material{ID: "beach_a", Filename: "a.jpg", Category: "beach", Width: 1920, Height: 1080}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	if !strings.Contains(string(data), `"is_hd":true`) {
		t.Fatalf("expected is_hd in json, got %s", data)
	}
	if strings.Contains(string(data), "location") {
		t.Fatalf("nil location should be omitted, got %s", data)
	}

	out, err := yaml.Marshal(m)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	if !strings.Contains(string(out), "is_hd: true") || !strings.Contains(string(out), "filename: a.jpg") {
		t.Fatalf("unexpected yaml output:\n%s", out)
	}
}

func TestParsePoolAppliesDefaults(t *testing.T) {
	data := []byte(`
photos:
  - filename: sunset.jpg
    category: beach
    width: 1920
    height: 1080
    description: sunset beach waves
    location: Shirahama
    quality_score: 0.9
    is_hd: false
  - filename: lot.png
    width: 640
    height: 480
`)
	pool, err := material.ParsePool(data, "/materials")
	if err != nil {
		t.Fatalf("ParsePool returned error: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(pool))
	}

	first := pool[0]
	if first.ID != "beach_sunset" {
		t.Fatalf("unexpected default id %q", first.ID)
	}
	if first.Path != filepath.Join("/materials", "raw", "beach", "sunset.jpg") {
		t.Fatalf("unexpected default path %q", first.Path)
	}
	if !first.IsHD() {
		t.Fatal("is_hd input must be ignored in favour of dimensions")
	}
	if material.Value(first.Location) != "Shirahama" {
		t.Fatalf("unexpected location %v", first.Location)
	}

	second := pool[1]
	if second.Category != material.UnknownCategory || second.ID != "unknown_lot" {
		t.Fatalf("unexpected defaults for second material: %+v", second)
	}
	if second.Location != nil || second.TimeOfDay != nil || second.ColorTone != nil {
		t.Fatal("missing optional fields must stay nil")
	}
	if second.AssignedTo != nil {
		t.Fatal("expected unassigned material")
	}
}

func TestParsePoolRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"duplicate id":   "photos:\n  - {filename: a.jpg, category: x}\n  - {filename: a.png, category: x}\n",
		"missing name":   "photos:\n  - {category: x}\n",
		"quality range":  "photos:\n  - {filename: a.jpg, quality_score: 1.5}\n",
		"quality nan":    "photos:\n  - {filename: a.jpg, quality_score: .nan}\n",
		"quality inf":    "photos:\n  - {filename: a.jpg, quality_score: .inf}\n",
		"malformed yaml": "photos: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := material.ParsePool([]byte(doc), "/root")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestSavePoolRoundTripsAssignments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata", "photo_descriptions.yaml")
	cut := 3
	pool := []*material.Material{
		{ID: "beach_a", Filename: "a.jpg", Path: "/x/a.jpg", Category: "beach", Width: 1920, Height: 1080, QualityScore: 0.8, AssignedTo: &cut, Location: material.Ptr("Shirahama")},
		{ID: "town_b", Filename: "b.jpg", Path: "/x/b.jpg", Category: "town", Width: 800, Height: 600},
	}
	if err := material.SavePool(path, pool); err != nil {
		t.Fatalf("SavePool returned error: %v", err)
	}

	loaded, err := material.LoadPool(path, "")
	if err != nil {
		t.Fatalf("LoadPool returned error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(loaded))
	}
	if loaded[0].AssignedTo == nil || *loaded[0].AssignedTo != 3 {
		t.Fatalf("assignment not persisted: %+v", loaded[0].AssignedTo)
	}
	if loaded[1].AssignedTo != nil {
		t.Fatal("unassigned material gained an owner")
	}
	if loaded[0].Path != "/x/a.jpg" {
		t.Fatalf("explicit path must be preserved, got %q", loaded[0].Path)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadStoryboardYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "storyboard.yaml")
	yamlDoc := `
title: Shirahama
cuts:
  - cut_number: 1
    scene_description: waves crashing on the beach at sunset
    mood: peaceful
    time_of_day: sunset
    categories: [beach, " "]
    camera_angle: ELS
  - scene_description: town street
`
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write storyboard: %v", err)
	}
	cuts, err := material.LoadStoryboard(yamlPath)
	if err != nil {
		t.Fatalf("LoadStoryboard returned error: %v", err)
	}
	if len(cuts) != 2 || cuts[0].ID != 1 || cuts[0].CameraAngle != "ELS" {
		t.Fatalf("unexpected cuts %+v", cuts)
	}
	if len(cuts[0].Categories) != 1 || cuts[0].Categories[0] != "beach" {
		t.Fatalf("blank categories should be dropped: %v", cuts[0].Categories)
	}
	if cuts[1].ID != 0 || len(cuts[1].Categories) != 0 {
		t.Fatalf("unexpected second cut %+v", cuts[1])
	}

	jsonPath := filepath.Join(dir, "storyboard.json")
	if err := os.WriteFile(jsonPath, []byte(`{"cuts":[{"scene_description":"temple","mood":"mysterious"}]}`), 0o644); err != nil {
		t.Fatalf("write storyboard: %v", err)
	}
	cuts, err = material.LoadStoryboard(jsonPath)
	if err != nil {
		t.Fatalf("LoadStoryboard json returned error: %v", err)
	}
	if len(cuts) != 1 || cuts[0].Mood != "mysterious" {
		t.Fatalf("unexpected json cuts %+v", cuts)
	}
}
