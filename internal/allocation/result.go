package allocation

import (
	"fmt"
	"strings"
	"time"

	"createmovie/internal/material"
	"createmovie/internal/services"
	"createmovie/internal/usage"
)

// SourceMaterial is the material chosen for a cut.
type SourceMaterial struct {
	MaterialID string  `json:"material_id"`
	Filename   string  `json:"filename"`
	Path       string  `json:"path"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Alternative is a runner-up candidate for a cut.
type Alternative struct {
	MaterialID string  `json:"material_id"`
	Score      float64 `json:"score"`
	Base       float64 `json:"base"`
	Bonus      float64 `json:"bonus"`
}

// CutResult is the outcome for one cut: either a source material or a
// generation request.
type CutResult struct {
	CutID              int             `json:"cut_id"`
	SceneDescription   string          `json:"scene_description"`
	Source             *SourceMaterial `json:"source_material,omitempty"`
	GenerationRequired bool            `json:"generation_required"`
	GenerationPrompt   string          `json:"generation_prompt,omitempty"`
	Alternatives       []Alternative   `json:"alternatives,omitempty"`
	// UsedAfter is the number of distinct materials in use once this cut
	// was processed.
	UsedAfter int `json:"used_after"`
}

// Result is the outcome of one allocation run.
type Result struct {
	RunID       string          `json:"run_id"`
	Strategy    string          `json:"strategy"`
	ProjectType string          `json:"project_type"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Cuts        []CutResult     `json:"cuts"`
	Usage       usage.UsageRate `json:"material_usage"`
	Tracker     *usage.Tracker  `json:"-"`
}

// GenerationCount returns how many cuts need a generated image.
func (r *Result) GenerationCount() int {
	n := 0
	for _, c := range r.Cuts {
		if c.GenerationRequired {
			n++
		}
	}
	return n
}

// Report builds the detailed usage report for the run.
func (r *Result) Report(pool []*material.Material) usage.Report {
	return r.Tracker.DetailedReport(pool)
}

// Validate checks the run against the project's requirements.
func (r *Result) Validate(cfg material.ProjectConfig, pool []*material.Material) usage.Validation {
	return r.Tracker.ValidateRequirements(cfg, pool)
}

// NoCandidateError is returned when a cut has no candidate and generation is
// disabled. It matches services.ErrNoCandidate.
type NoCandidateError struct {
	CutID      int
	Categories []string
}

func (e *NoCandidateError) Error() string {
	if len(e.Categories) == 0 {
		return fmt.Sprintf("no suitable material found for cut %d", e.CutID)
	}
	return fmt.Sprintf("no suitable material found for cut %d (categories: %s)", e.CutID, strings.Join(e.Categories, ", "))
}

func (e *NoCandidateError) Unwrap() error { return services.ErrNoCandidate }

// GenerationPrompt describes a cut for an external image generator.
func GenerationPrompt(cut material.Cut, style string) string {
	var b strings.Builder
	b.WriteString("Generate an image for this scene:\n")
	fmt.Fprintf(&b, "- Description: %s\n", cut.SceneDescription)
	fmt.Fprintf(&b, "- Mood: %s\n", cut.Mood)
	fmt.Fprintf(&b, "- Time: %s\n", cut.TimeOfDay)
	fmt.Fprintf(&b, "- Camera: %s\n", cut.CameraAngle)
	fmt.Fprintf(&b, "- Style: %s\n", style)
	return b.String()
}
