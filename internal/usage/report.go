package usage

import (
	"cmp"
	"fmt"
	"slices"
	"unicode/utf8"

	"createmovie/internal/material"
)

const (
	lowQualityThreshold      = 0.5
	oversupplyMinimum        = 5
	specificDescriptionRunes = 100
	variationQuality         = 0.7
	recategorizeQuality      = 0.6
)

// CategoryStats is the per-category part of a report.
type CategoryStats struct {
	Total      int     `json:"total"`
	Used       int     `json:"used"`
	Rate       float64 `json:"rate"`
	Percentage string  `json:"percentage"`
}

// UsedMaterial is one assignment in a report.
type UsedMaterial struct {
	CutID      int     `json:"cut_id"`
	MaterialID string  `json:"material_id"`
	Filename   string  `json:"filename"`
	Category   string  `json:"category"`
	MatchScore float64 `json:"match_score"`
	Path       string  `json:"path"`
}

// UnusedMaterial explains why a material was left out.
type UnusedMaterial struct {
	MaterialID   string   `json:"material_id"`
	Filename     string   `json:"filename"`
	Category     string   `json:"category"`
	Reason       string   `json:"reason"`
	QualityScore float64  `json:"quality_score"`
	Suggestions  []string `json:"suggestions"`
}

// Report is the detailed usage report for one run.
type Report struct {
	Summary         UsageRate                `json:"summary"`
	ByCategory      map[string]CategoryStats `json:"by_category"`
	UsedMaterials   []UsedMaterial           `json:"used_materials"`
	UnusedMaterials []UnusedMaterial         `json:"unused_materials"`
	ScoreStats      ScoreStats               `json:"score_stats"`
}

// Categories returns the report's category names sorted alphabetically.
func (r Report) Categories() []string {
	names := make([]string, 0, len(r.ByCategory))
	for name := range r.ByCategory {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DetailedReport builds the usage report for pool. Used entries are ordered
// by cut id then pool index; unused entries follow pool order.
func (t *Tracker) DetailedReport(pool []*material.Material) Report {
	report := Report{
		Summary:         t.CalculateUsageRate(pool),
		ByCategory:      make(map[string]CategoryStats),
		UsedMaterials:   []UsedMaterial{},
		UnusedMaterials: []UnusedMaterial{},
	}

	counts := t.categoryCounts(pool)
	for cat, c := range counts {
		rate := newRate(c.used, c.total)
		report.ByCategory[cat] = CategoryStats{Total: c.total, Used: c.used, Rate: rate.Rate, Percentage: rate.Percentage}
	}

	type usedEntry struct {
		UsedMaterial
		index int
	}
	var used []usedEntry
	var scores []float64
	for i, m := range pool {
		assignments := t.assignments[m.ID]
		if len(assignments) == 0 {
			report.UnusedMaterials = append(report.UnusedMaterials, UnusedMaterial{
				MaterialID:   m.ID,
				Filename:     m.Filename,
				Category:     m.Category,
				Reason:       unusedReason(m, counts[m.Category]),
				QualityScore: m.QualityScore,
				Suggestions:  suggestions(m),
			})
			continue
		}
		for _, a := range assignments {
			used = append(used, usedEntry{
				UsedMaterial: UsedMaterial{
					CutID:      a.CutID,
					MaterialID: m.ID,
					Filename:   m.Filename,
					Category:   m.Category,
					MatchScore: a.Score,
					Path:       m.Path,
				},
				index: i,
			})
			scores = append(scores, a.Score)
		}
	}
	slices.SortStableFunc(used, func(a, b usedEntry) int {
		if c := cmp.Compare(a.CutID, b.CutID); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	for _, u := range used {
		report.UsedMaterials = append(report.UsedMaterials, u.UsedMaterial)
	}
	report.ScoreStats = ComputeScoreStats(scores)
	return report
}

type categoryCount struct {
	total int
	used  int
}

func (t *Tracker) categoryCounts(pool []*material.Material) map[string]categoryCount {
	counts := make(map[string]categoryCount)
	for _, m := range pool {
		c := counts[m.Category]
		c.total++
		if t.IsUsed(m.ID) {
			c.used++
		}
		counts[m.Category] = c
	}
	return counts
}

// unusedReason applies the reason rules in priority order; the first match wins.
func unusedReason(m *material.Material, cat categoryCount) string {
	switch {
	case !m.IsHD():
		return "Low quality (not HD resolution)"
	case m.QualityScore < lowQualityThreshold:
		return fmt.Sprintf("Low quality score (%.2f)", m.QualityScore)
	case cat.total > oversupplyMinimum && cat.used >= cat.total-1:
		return fmt.Sprintf("Category oversupplied (%d %s materials, %d used)", cat.total, m.Category, cat.used)
	case material.Value(m.Location) != "" && utf8.RuneCountInString(m.Description) > specificDescriptionRunes:
		return "Content too specific for current story requirements"
	default:
		return "Not matched to any scene requirements (lower score than alternatives)"
	}
}

func suggestions(m *material.Material) []string {
	out := []string{}
	if m.QualityScore >= variationQuality {
		out = append(out, "Consider using in video variation or alternative version")
	}
	if !m.IsHD() {
		out = append(out, "Consider using higher resolution version if available")
	}
	if m.QualityScore >= recategorizeQuality {
		out = append(out, fmt.Sprintf("Could be recategorized from '%s' to better match scenes", m.Category))
	}
	return out
}
