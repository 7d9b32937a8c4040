package usage

import (
	"fmt"

	"createmovie/internal/material"
	"createmovie/internal/services"
)

// Assignment records one material serving one cut, with the score that won
// the selection.
type Assignment struct {
	MaterialID string  `json:"material_id"`
	CutID      int     `json:"cut_id"`
	Score      float64 `json:"score"`
}

// Tracker is the bookkeeping for a single allocation run. It is the only
// writer of Material.AssignedTo.
type Tracker struct {
	allowReuse  bool
	assignments map[string][]Assignment
	order       []Assignment
}

// NewTracker returns an empty tracker for the project.
func NewTracker(cfg material.ProjectConfig) *Tracker {
	return &Tracker{
		allowReuse:  cfg.Usage.AllowReuse,
		assignments: make(map[string][]Assignment),
	}
}

// MarkUsed records that m serves cutID. The first owner is written to
// m.AssignedTo; later owners (reuse only) are kept in the tracker.
func (t *Tracker) MarkUsed(m *material.Material, cutID int, score float64) error {
	if prev := t.assignments[m.ID]; len(prev) > 0 && !t.allowReuse {
		return services.Wrap(services.ErrValidation, "usage", "mark used",
			fmt.Sprintf("material %s already assigned to cut %d", m.ID, prev[0].CutID), nil)
	}
	a := Assignment{MaterialID: m.ID, CutID: cutID, Score: score}
	t.assignments[m.ID] = append(t.assignments[m.ID], a)
	t.order = append(t.order, a)
	if m.AssignedTo == nil {
		owner := cutID
		m.AssignedTo = &owner
	}
	return nil
}

// IsUsed reports whether the material id has at least one assignment.
func (t *Tracker) IsUsed(id string) bool {
	return len(t.assignments[id]) > 0
}

// Assignments returns every assignment in the order it was recorded.
func (t *Tracker) Assignments() []Assignment {
	return append([]Assignment(nil), t.order...)
}

// AssignmentsFor returns the assignments of one material in record order.
func (t *Tracker) AssignmentsFor(id string) []Assignment {
	return append([]Assignment(nil), t.assignments[id]...)
}

// UsageRate summarizes how much of a pool is in use.
type UsageRate struct {
	Used       int     `json:"used"`
	Total      int     `json:"total"`
	Rate       float64 `json:"rate"`
	Percentage string  `json:"percentage"`
}

// CalculateUsageRate counts distinct pool materials with an assignment.
func (t *Tracker) CalculateUsageRate(pool []*material.Material) UsageRate {
	used := 0
	for _, m := range pool {
		if t.IsUsed(m.ID) {
			used++
		}
	}
	return newRate(used, len(pool))
}

// CategoryUsage counts used materials per category. Categories with no used
// material are absent.
func (t *Tracker) CategoryUsage(pool []*material.Material) map[string]int {
	out := make(map[string]int)
	for _, m := range pool {
		if t.IsUsed(m.ID) {
			out[m.Category]++
		}
	}
	return out
}

func newRate(used, total int) UsageRate {
	rate := 0.0
	if total > 0 {
		rate = float64(used) / float64(total)
	}
	return UsageRate{Used: used, Total: total, Rate: rate, Percentage: FormatPercent(rate)}
}

// FormatPercent renders a 0..1 ratio with one decimal, e.g. 0.5 -> "50.0%".
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
