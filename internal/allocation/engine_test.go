package allocation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"createmovie/internal/allocation"
	"createmovie/internal/logging"
	"createmovie/internal/material"
	"createmovie/internal/services"
	"createmovie/internal/strategy"
)

func scenarioAPool() []*material.Material {
	return []*material.Material{
		{ID: "A", Filename: "a.jpg", Path: "/raw/beach/a.jpg", Category: "beach", Width: 1920, Height: 1080, Description: "sunset beach waves", QualityScore: 0.9},
		{ID: "B", Filename: "b.jpg", Path: "/raw/beach/b.jpg", Category: "beach", Width: 640, Height: 480, Description: "parking lot", QualityScore: 0.2},
	}
}

func mixedPool() []*material.Material {
	var pool []*material.Material
	cats := []string{"beach", "town", "nature"}
	for i := 0; i < 9; i++ {
		cat := cats[i%len(cats)]
		pool = append(pool, &material.Material{
			ID:           fmt.Sprintf("%s_%d", cat, i),
			Filename:     fmt.Sprintf("%d.jpg", i),
			Category:     cat,
			Width:        1920 - (i%2)*1000,
			Height:       1080,
			Description:  "quiet " + cat + " scene",
			QualityScore: 0.5,
		})
	}
	return pool
}

func mixedCuts() []material.Cut {
	return []material.Cut{
		{SceneDescription: "a quiet beach", Categories: []string{"beach"}},
		{SceneDescription: "town scene", Categories: []string{"town"}},
		{SceneDescription: "anything quiet"},
		{SceneDescription: "beach again", Categories: []string{"beach"}},
		{SceneDescription: "beach once more", Categories: []string{"beach"}},
		{SceneDescription: "and again", Categories: []string{"beach"}},
		{SceneDescription: "space station", Categories: []string{"space"}},
	}
}

func clonePool(pool []*material.Material) []*material.Material {
	out := make([]*material.Material, len(pool))
	for i, m := range pool {
		c := *m
		out[i] = &c
	}
	return out
}

func TestScenarioA(t *testing.T) {
	pool := scenarioAPool()
	engine := allocation.New(material.ProjectConfig{}, strategy.New(strategy.Default, nil))
	res, err := engine.Run(context.Background(), pool, []material.Cut{
		{SceneDescription: "waves crashing on the beach at sunset", Categories: []string{"beach"}},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Cuts) != 1 || res.Cuts[0].Source == nil || res.Cuts[0].Source.Filename != "a.jpg" {
		t.Fatalf("expected a.jpg to be selected, got %+v", res.Cuts)
	}
	if res.Cuts[0].Source.Confidence <= 0 {
		t.Fatalf("expected positive confidence, got %v", res.Cuts[0].Source.Confidence)
	}
	if res.Usage.Percentage != "50.0%" {
		t.Fatalf("unexpected usage %+v", res.Usage)
	}
	report := res.Report(pool)
	if len(report.UnusedMaterials) != 1 || report.UnusedMaterials[0].Filename != "b.jpg" ||
		report.UnusedMaterials[0].Reason != "Low quality (not HD resolution)" {
		t.Fatalf("unexpected unused materials %+v", report.UnusedMaterials)
	}
	if res.RunID == "" || res.Strategy != "default" {
		t.Fatalf("unexpected run metadata %+v", res)
	}
}

func TestExclusivityWithoutReuse(t *testing.T) {
	pool := mixedPool()
	engine := allocation.New(material.ProjectConfig{}, strategy.New(strategy.Competition, nil))
	res, err := engine.Run(context.Background(), pool, mixedCuts())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	seen := map[string]int{}
	for _, a := range res.Tracker.Assignments() {
		if prev, dup := seen[a.MaterialID]; dup {
			t.Fatalf("material %s assigned to cuts %d and %d", a.MaterialID, prev, a.CutID)
		}
		seen[a.MaterialID] = a.CutID
	}
	last := res.Cuts[len(res.Cuts)-1]
	if !last.GenerationRequired || last.Source != nil {
		t.Fatalf("space cut should require generation, got %+v", last)
	}
	if !strings.Contains(last.GenerationPrompt, "- Description: space station") {
		t.Fatalf("unexpected prompt %q", last.GenerationPrompt)
	}
	for _, m := range pool {
		if a := res.Tracker.AssignmentsFor(m.ID); len(a) == 1 {
			if m.AssignedTo == nil || *m.AssignedTo != a[0].CutID {
				t.Fatalf("AssignedTo out of sync for %s", m.ID)
			}
		} else if m.AssignedTo != nil {
			t.Fatalf("unused material %s has an owner", m.ID)
		}
	}
}

func TestDeterminism(t *testing.T) {
	base := mixedPool()
	for _, kind := range strategy.Kinds() {
		var firstCuts []allocation.CutResult
		var firstReport []byte
		for run := 0; run < 3; run++ {
			pool := clonePool(base)
			engine := allocation.New(material.ProjectConfig{Categories: []string{"beach", "town"}}, strategy.New(kind, nil))
			res, err := engine.Run(context.Background(), pool, mixedCuts())
			if err != nil {
				t.Fatalf("%v: Run returned error: %v", kind, err)
			}
			report, err := json.Marshal(res.Report(pool))
			if err != nil {
				t.Fatalf("marshal report: %v", err)
			}
			if run == 0 {
				firstCuts, firstReport = res.Cuts, report
				continue
			}
			if !reflect.DeepEqual(firstCuts, res.Cuts) {
				t.Fatalf("%v: cut results differ between runs", kind)
			}
			if !bytes.Equal(firstReport, report) {
				t.Fatalf("%v: reports differ between runs", kind)
			}
		}
	}
}

func TestUsageIsMonotonic(t *testing.T) {
	engine := allocation.New(material.ProjectConfig{}, strategy.New(strategy.Tourism, nil))
	res, err := engine.Run(context.Background(), mixedPool(), mixedCuts())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	prev := 0
	for _, c := range res.Cuts {
		if c.UsedAfter < prev {
			t.Fatalf("usage decreased at cut %d: %d -> %d", c.CutID, prev, c.UsedAfter)
		}
		prev = c.UsedAfter
	}
	if prev != res.Usage.Used {
		t.Fatalf("final running count %d != usage %d", prev, res.Usage.Used)
	}
}

func TestStrictModeFailsOnMissingCandidate(t *testing.T) {
	engine := allocation.New(material.ProjectConfig{}, strategy.New(strategy.Default, nil), allocation.WithAllowGeneration(false))
	_, err := engine.Run(context.Background(), scenarioAPool(), []material.Cut{
		{SceneDescription: "beach", Categories: []string{"beach"}},
		{SceneDescription: "temple", Categories: []string{"culture"}},
	})
	if !errors.Is(err, services.ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
	var nc *allocation.NoCandidateError
	if !errors.As(err, &nc) || nc.CutID != 2 {
		t.Fatalf("expected NoCandidateError for cut 2, got %v", err)
	}
}

func TestCutIDsDefaultToPosition(t *testing.T) {
	engine := allocation.New(material.ProjectConfig{}, nil)
	res, err := engine.Run(context.Background(), mixedPool(), []material.Cut{
		{SceneDescription: "one"},
		{ID: 10, SceneDescription: "ten"},
		{SceneDescription: "three"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var ids []int
	for _, c := range res.Cuts {
		ids = append(ids, c.CutID)
	}
	if !reflect.DeepEqual(ids, []int{1, 10, 3}) {
		t.Fatalf("unexpected cut ids %v", ids)
	}
}

func TestRunRejectsDuplicateCutIDs(t *testing.T) {
	tests := map[string][]material.Cut{
		"position collides with number": {{SceneDescription: "first"}, {ID: 1, SceneDescription: "numbered one"}},
		"repeated number":               {{ID: 4, SceneDescription: "a"}, {ID: 4, SceneDescription: "b"}},
		"negative number":               {{ID: -1, SceneDescription: "a"}},
	}
	for name, cuts := range tests {
		t.Run(name, func(t *testing.T) {
			pool := mixedPool()
			engine := allocation.New(material.ProjectConfig{}, nil)
			_, err := engine.Run(context.Background(), pool, cuts)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			for _, m := range pool {
				if m.AssignedTo != nil {
					t.Fatalf("material %s assigned despite rejected storyboard", m.ID)
				}
			}
		})
	}
}

func TestReuseAllowsRepeatedMaterial(t *testing.T) {
	pool := []*material.Material{{ID: "only", Filename: "only.jpg", Category: "beach", Width: 1920, Height: 1080}}
	cfg := material.ProjectConfig{Usage: material.Usage{AllowReuse: true}}
	res, err := allocation.New(cfg, nil).Run(context.Background(), pool, []material.Cut{
		{Categories: []string{"beach"}}, {Categories: []string{"beach"}}, {Categories: []string{"beach"}},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, c := range res.Cuts {
		if c.Source == nil || c.Source.MaterialID != "only" {
			t.Fatalf("expected reuse of the only material, got %+v", c)
		}
	}
	if res.Usage.Used != 1 || len(res.Tracker.AssignmentsFor("only")) != 3 {
		t.Fatalf("unexpected usage %+v", res.Usage)
	}
	if *pool[0].AssignedTo != 1 {
		t.Fatalf("first owner must be kept, got %d", *pool[0].AssignedTo)
	}
}

func TestAlternativesAndDecisionLogging(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	engine := allocation.New(material.ProjectConfig{ProjectType: "tourism"}, strategy.New(strategy.Tourism, nil),
		allocation.WithLogger(logger), allocation.WithAlternatives(2))
	res, err := engine.Run(context.Background(), mixedPool(), []material.Cut{{SceneDescription: "quiet beach", Categories: []string{"beach"}}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := len(res.Cuts[0].Alternatives); got != 2 {
		t.Fatalf("expected 2 alternatives, got %d", got)
	}
	if res.Cuts[0].Alternatives[0].Score > res.Cuts[0].Source.Confidence {
		t.Fatal("alternatives must not outscore the winner")
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry[logging.FieldDecisionType] == "material_allocation" {
			found = true
			if entry[logging.FieldRunID] != res.RunID || entry[logging.FieldCutID] != float64(1) {
				t.Fatalf("decision log missing run context: %v", entry)
			}
			if entry[logging.FieldComponent] != "allocation" {
				t.Fatalf("decision log missing component: %v", entry)
			}
		}
	}
	if !found {
		t.Fatalf("no decision log in %s", buf.String())
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := allocation.New(material.ProjectConfig{}, nil).Run(ctx, mixedPool(), mixedCuts())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerationPrompt(t *testing.T) {
	got := allocation.GenerationPrompt(material.Cut{
		SceneDescription: "temple at dawn", Mood: "spiritual", TimeOfDay: "dawn", CameraAngle: "ELS",
	}, "tourism")
	want := "Generate an image for this scene:\n- Description: temple at dawn\n- Mood: spiritual\n- Time: dawn\n- Camera: ELS\n- Style: tourism\n"
	if got != want {
		t.Fatalf("unexpected prompt:\n%s", got)
	}
}
