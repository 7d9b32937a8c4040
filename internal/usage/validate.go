package usage

import (
	"fmt"

	"createmovie/internal/material"
)

// Validation is the structured result of checking a run against project
// requirements. A failed validation is not an error.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateRequirements marks the run invalid iff the usage rate is below the
// configured minimum, and warns once for every declared category with no
// used material, in declaration order.
func (t *Tracker) ValidateRequirements(cfg material.ProjectConfig, pool []*material.Material) Validation {
	out := Validation{Valid: true, Errors: []string{}, Warnings: []string{}}

	rate := t.CalculateUsageRate(pool)
	if minimum := cfg.Usage.MinimumUsageRate; rate.Rate < minimum {
		out.Valid = false
		out.Errors = append(out.Errors, fmt.Sprintf("Usage rate %s below requirement %s",
			FormatPercent(rate.Rate), FormatPercent(minimum)))
	}

	byCategory := t.CategoryUsage(pool)
	warned := make(map[string]bool, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		if warned[cat] {
			continue
		}
		warned[cat] = true
		if byCategory[cat] == 0 {
			out.Warnings = append(out.Warnings, "No materials used from category: "+cat)
		}
	}
	return out
}
