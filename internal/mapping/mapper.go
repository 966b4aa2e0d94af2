// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mapping ranks research sources against outline sections with a
// three-factor relevance score (semantic, keyword, contextual) and
// optionally lets an AI judge refine the ranking.
package mapping

import (
	"slices"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// Match is one source mapped to a section.
type Match struct {
	Source types.Source `json:"source"`

	// Score is the composite relevance score, or the judge's confidence
	// when Validated is set.
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`

	// Validated marks a match recommended by the AI judge.
	Validated bool `json:"validated,omitempty"`
}

// Result maps section IDs to their matches, best first. Every section of
// the mapped outline has an entry, possibly empty.
type Result map[string][]Match

// Clone returns a copy of the result that shares no slices with r.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for id, matches := range r {
		out[id] = slices.Clone(matches)
	}
	return out
}

// References converts a section's matches into outline references.
func (r Result) References(sectionID string) []types.Reference {
	matches := r[sectionID]
	refs := make([]types.Reference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, types.Reference{Source: m.Source, RelevanceScore: m.Score})
	}
	return refs
}

// Mapper scores every (section, source) pair algorithmically.
type Mapper struct {
	industry string
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithIndustry sets the industry whose terms count toward contextual relevance.
func WithIndustry(industry string) MapperOption {
	return func(m *Mapper) { m.industry = industry }
}

// NewMapper returns a Mapper.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map ranks the bundle's sources for each section. Sources scoring below
// MinScore are dropped; at most types.MaxReferences survive per section.
// Ties keep catalogue order. The sections and the bundle are not modified.
func (m *Mapper) Map(sections []types.OutlineSection, bundle *types.ResearchBundle) Result {
	result := make(Result, len(sections))
	rc := newResearchContext(bundle, m.industry)

	var sources []types.Source
	if bundle != nil {
		sources = bundle.Sources
	}
	profiles := make([]sourceProfile, len(sources))
	for i, src := range sources {
		profiles[i] = newSourceProfile(src)
	}

	for _, sec := range sections {
		sp := newSectionProfile(sec)
		matches := []Match{}
		for i, src := range sources {
			b := score(sp, profiles[i], rc)
			if total := b.Total(); total >= MinScore {
				matches = append(matches, Match{Source: src, Score: total, Breakdown: b})
			}
		}
		slices.SortStableFunc(matches, func(a, b Match) int {
			switch {
			case a.Score > b.Score:
				return -1
			case a.Score < b.Score:
				return 1
			}
			return 0
		})
		if len(matches) > types.MaxReferences {
			matches = matches[:types.MaxReferences]
		}
		result[sec.ID] = matches
	}
	return result
}
