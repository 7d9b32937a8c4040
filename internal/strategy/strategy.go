package strategy

import (
	"strings"

	"createmovie/internal/knowledge"
	"createmovie/internal/material"
)

// Kind identifies a matching strategy.
type Kind int

const (
	Default Kind = iota
	Tourism
	Education
	Marketing
	Competition
	ResearchAware
)

var kindNames = [...]string{
	Default:       "default",
	Tourism:       "tourism",
	Education:     "education",
	Marketing:     "marketing",
	Competition:   "competition",
	ResearchAware: "research_aware",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds lists every strategy kind in declaration order.
func Kinds() []Kind {
	return []Kind{Default, Tourism, Education, Marketing, Competition, ResearchAware}
}

// ParseKind maps a project type to a strategy kind. Unrecognised values,
// including the empty string and "custom", select Default.
func ParseKind(projectType string) Kind {
	switch strings.ToLower(strings.TrimSpace(projectType)) {
	case "tourism":
		return Tourism
	case "education":
		return Education
	case "marketing":
		return Marketing
	case "competition":
		return Competition
	case "research", "research_aware", "research-aware":
		return ResearchAware
	default:
		return Default
	}
}

// Strategy adds a domain-specific bonus on top of the matcher's base score.
type Strategy interface {
	Kind() Kind
	AdditionalBonus(m *material.Material, cut material.Cut) float64
}

// New returns the strategy for kind. kb is only consulted by ResearchAware;
// without one that strategy scores exactly like Tourism.
func New(kind Kind, kb knowledge.Source) Strategy {
	switch kind {
	case Tourism:
		return tourism{}
	case Education:
		return education{}
	case Marketing:
		return marketing{}
	case Competition:
		return competition{}
	case ResearchAware:
		return researchAware{kb: kb}
	default:
		return defaultStrategy{}
	}
}

func lowerIn(value *string, options ...string) bool {
	if value == nil {
		return false
	}
	v := strings.ToLower(*value)
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
