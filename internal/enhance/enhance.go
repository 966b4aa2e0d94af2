// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enhance applies source mappings and grounding insights to outline
// sections. It is a pure transformation: inputs are never modified and no
// AI provider is involved.
package enhance

import (
	"fmt"
	"strings"

	"github.com/pdiddy/outline-engine/internal/mapping"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// Per-section limits on insight-driven additions.
const (
	MaxInsightSubheadings = 2
	MaxAuthorityKeyPoints = 2
	MaxConceptKeywords    = 3

	maxSubheadingWords = 12
)

// Enhance returns copies of sections with references set from result and
// insight-driven subheadings, key points, and keywords added. With a
// neutral report the output equals ApplyMapping alone.
func Enhance(sections []types.OutlineSection, result mapping.Result, report types.InsightReport) []types.OutlineSection {
	return ApplyInsights(ApplyMapping(sections, result), report)
}

// ApplyMapping returns copies of sections whose references come from result.
func ApplyMapping(sections []types.OutlineSection, result mapping.Result) []types.OutlineSection {
	out := types.CloneSections(sections)
	for i := range out {
		out[i].References = result.References(out[i].ID)
	}
	return out
}

// ApplyInsights returns copies of sections enriched from report. Only
// insights that share a term with a section are applied to it.
func ApplyInsights(sections []types.OutlineSection, report types.InsightReport) []types.OutlineSection {
	out := types.CloneSections(sections)
	for i := range out {
		sec := &out[i]
		terms := sectionTerms(*sec)

		added := 0
		for _, insight := range report.Confidence.HighConfidenceInsights {
			if added == MaxInsightSubheadings {
				break
			}
			heading := subheadingFrom(insight)
			if heading == "" || !sharesTerm(terms, insight) || containsFold(sec.Subheadings, heading) {
				continue
			}
			sec.Subheadings = append(sec.Subheadings, heading)
			added++
		}

		added = 0
		for _, src := range report.Authority.HighAuthoritySources {
			if added == MaxAuthorityKeyPoints {
				break
			}
			point := fmt.Sprintf("Cite %s as an authoritative source", src.Title)
			if src.Title == "" || !sharesTerm(terms, src.Title) || containsFold(sec.KeyPoints, point) {
				continue
			}
			sec.KeyPoints = append(sec.KeyPoints, point)
			added++
		}

		added = 0
		for _, concept := range report.Relationships.RelatedConcepts {
			if added == MaxConceptKeywords {
				break
			}
			kw := strings.ToLower(concept)
			if !sharesTerm(terms, concept) || containsFold(sec.Keywords, kw) {
				continue
			}
			sec.Keywords = append(sec.Keywords, kw)
			added++
		}
	}
	return out
}

// sectionTerms collects the scoring tokens of a section's heading,
// subheadings, and keywords.
func sectionTerms(s types.OutlineSection) map[string]bool {
	terms := map[string]bool{}
	add := func(text string) {
		for _, t := range mapping.Tokenize(text) {
			terms[t] = true
		}
	}
	add(s.Heading)
	for _, sh := range s.Subheadings {
		add(sh)
	}
	for _, k := range s.Keywords {
		add(k)
	}
	return terms
}

func sharesTerm(terms map[string]bool, text string) bool {
	for _, t := range mapping.Tokenize(text) {
		if terms[t] {
			return true
		}
	}
	return false
}

// subheadingFrom turns an insight sentence into a short subheading.
func subheadingFrom(insight string) string {
	words := strings.Fields(strings.TrimRight(strings.TrimSpace(insight), ".!?;:"))
	if len(words) > maxSubheadingWords {
		words = append(words[:maxSubheadingWords:maxSubheadingWords], "...")
	}
	return strings.Join(words, " ")
}

func containsFold(items []string, s string) bool {
	for _, it := range items {
		if strings.EqualFold(it, s) {
			return true
		}
	}
	return false
}
