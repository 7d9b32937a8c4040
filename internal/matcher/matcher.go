package matcher

import (
	"slices"
	"strings"

	"createmovie/internal/material"
)

// Candidate is a pool material eligible for a cut, along with its position in
// the pool. The index is the tie-breaker when scores are equal.
type Candidate struct {
	Index    int
	Material *material.Material
}

// Matcher indexes a material pool and computes base relevance scores.
type Matcher struct {
	cfg        material.ProjectConfig
	weights    weights
	pool       []*material.Material
	byCategory map[string][]int
	bySubject  map[string][]int
	byTime     map[string][]int
}

// New constructs a matcher for the given project configuration.
func New(cfg material.ProjectConfig) *Matcher {
	return &Matcher{
		cfg:     cfg,
		weights: resolveWeights(cfg),
	}
}

// Config returns the project configuration the matcher scores against.
func (m *Matcher) Config() material.ProjectConfig {
	return m.cfg
}

// Index rebuilds the category, subject and time buckets from scratch.
// Bucket entries are pool indices in ascending order.
func (m *Matcher) Index(pool []*material.Material) {
	m.pool = pool
	m.byCategory = make(map[string][]int)
	m.bySubject = make(map[string][]int)
	m.byTime = make(map[string][]int)
	for i, mat := range pool {
		m.byCategory[mat.Category] = append(m.byCategory[mat.Category], i)
		if subject := strings.ToLower(mat.MainSubject); subject != "" {
			m.bySubject[subject] = append(m.bySubject[subject], i)
		}
		if tod := strings.ToLower(material.Value(mat.TimeOfDay)); tod != "" {
			m.byTime[tod] = append(m.byTime[tod], i)
		}
	}
}

// Candidates returns the materials eligible for cut. With categories set on
// the cut the union of those category buckets is used, otherwise the whole
// pool. Materials that already have an owner are dropped unless the project
// allows reuse. The result is ordered by pool index.
func (m *Matcher) Candidates(cut material.Cut, pool []*material.Material) []Candidate {
	var indices []int
	if len(cut.Categories) > 0 {
		for _, cat := range cut.Categories {
			indices = append(indices, m.byCategory[cat]...)
		}
		slices.Sort(indices)
		indices = slices.Compact(indices)
	} else {
		indices = make([]int, len(pool))
		for i := range pool {
			indices[i] = i
		}
	}

	out := make([]Candidate, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(pool) {
			continue
		}
		mat := pool[idx]
		if mat.IsAssigned() && !m.cfg.Usage.AllowReuse {
			continue
		}
		out = append(out, Candidate{Index: idx, Material: mat})
	}
	return out
}

// BySubject returns indexed materials whose main subject equals subject
// (case-insensitive).
func (m *Matcher) BySubject(subject string) []*material.Material {
	return m.lookup(m.bySubject, strings.ToLower(strings.TrimSpace(subject)))
}

// ByTime returns indexed materials whose time of day equals tod
// (case-insensitive).
func (m *Matcher) ByTime(tod string) []*material.Material {
	return m.lookup(m.byTime, strings.ToLower(strings.TrimSpace(tod)))
}

// ByCategory returns indexed materials in category.
func (m *Matcher) ByCategory(category string) []*material.Material {
	return m.lookup(m.byCategory, category)
}

func (m *Matcher) lookup(bucket map[string][]int, key string) []*material.Material {
	indices := bucket[key]
	out := make([]*material.Material, 0, len(indices))
	for _, idx := range indices {
		out = append(out, m.pool[idx])
	}
	return out
}
