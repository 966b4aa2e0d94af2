// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"slices"
)

// MaxReferences is the most references an outline section may carry.
const MaxReferences = 3

// Reference is a research source attached to an outline section together
// with the score that earned it the slot: the composite relevance score for
// algorithmic mappings, or the judge's confidence for AI substitutions.
type Reference struct {
	Source         `yaml:",inline"`
	RelevanceScore float64 `json:"relevanceScore" yaml:"relevance_score"`
}

// OutlineSection is one section of a content outline.
type OutlineSection struct {
	// ID is the positional identifier "s1".."sN".
	ID string `json:"id" yaml:"id"`

	Heading     string   `json:"heading" yaml:"heading"`
	Subheadings []string `json:"subheadings" yaml:"subheadings"`
	KeyPoints   []string `json:"keyPoints" yaml:"key_points"`

	// References holds at most MaxReferences supporting sources, best first.
	References []Reference `json:"references" yaml:"references"`

	// TargetWords is the word budget assigned to this section.
	TargetWords int `json:"targetWords" yaml:"target_words"`

	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Clone returns a deep copy of the section. Nil slices stay nil so a clone
// compares equal to its original.
func (s OutlineSection) Clone() OutlineSection {
	s.Subheadings = slices.Clone(s.Subheadings)
	s.KeyPoints = slices.Clone(s.KeyPoints)
	s.References = slices.Clone(s.References)
	s.Keywords = slices.Clone(s.Keywords)
	return s
}

// CloneSections deep-copies a section list.
func CloneSections(sections []OutlineSection) []OutlineSection {
	if sections == nil {
		return nil
	}
	out := make([]OutlineSection, len(sections))
	for i, s := range sections {
		out[i] = s.Clone()
	}
	return out
}

// SectionID returns the positional ID for the section at index i.
func SectionID(i int) string {
	return fmt.Sprintf("s%d", i+1)
}

// ResequenceIDs assigns s1..sN in order. Call it after any stage adds,
// removes, or merges sections.
func ResequenceIDs(sections []OutlineSection) {
	for i := range sections {
		sections[i].ID = SectionID(i)
	}
}

// OutlineRequest is the caller's request for an outline.
type OutlineRequest struct {
	Keywords           []string `json:"keywords" yaml:"keywords"`
	Industry           string   `json:"industry" yaml:"industry"`
	Audience           string   `json:"audience" yaml:"audience"`
	WordCount          int      `json:"wordCount" yaml:"word_count"`
	CustomInstructions string   `json:"customInstructions,omitempty" yaml:"custom_instructions,omitempty"`
	PersonaFingerprint string   `json:"personaFingerprint,omitempty" yaml:"persona_fingerprint,omitempty"`
}

// Validate checks the request for values the pipeline cannot work with.
func (r OutlineRequest) Validate() error {
	hasKeyword := false
	for _, k := range r.Keywords {
		if k != "" {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return fmt.Errorf("outline request needs at least one keyword")
	}
	if r.WordCount < 0 {
		return fmt.Errorf("word count %d is negative", r.WordCount)
	}
	return nil
}

// SourceMappingStats summarizes how well sections were backed by sources.
type SourceMappingStats struct {
	// TotalMapped is the number of section references across the outline.
	TotalMapped int `json:"totalMapped" yaml:"total_mapped"`

	// CoveragePercent is the share of sections with at least one reference (0-100).
	CoveragePercent float64 `json:"coveragePercent" yaml:"coverage_percent"`

	// AvgRelevance is the mean reference score.
	AvgRelevance float64 `json:"avgRelevance" yaml:"avg_relevance"`

	// HighConfidenceCount counts references scoring at or above HighConfidenceScore.
	HighConfidenceCount int `json:"highConfidenceCount" yaml:"high_confidence_count"`
}

// HighConfidenceScore is the reference score counted as high confidence.
const HighConfidenceScore = 0.7

// OptimizationResults reports what the optimization pass achieved.
type OptimizationResults struct {
	QualityScore     float64  `json:"qualityScore" yaml:"quality_score"`
	ImprovementsMade []string `json:"improvementsMade" yaml:"improvements_made"`
}

// ResearchCoverage reports how much of the research the outline draws on.
type ResearchCoverage struct {
	SourcesUtilized       int      `json:"sourcesUtilized" yaml:"sources_utilized"`
	GapsIdentified        int      `json:"gapsIdentified" yaml:"gaps_identified"`
	CompetitiveAdvantages []string `json:"competitiveAdvantages" yaml:"competitive_advantages"`
}

// OutlineResult is the pipeline's output and the unit stored in the cache.
type OutlineResult struct {
	TitleOptions        []string            `json:"titleOptions" yaml:"title_options"`
	Sections            []OutlineSection    `json:"sections" yaml:"sections"`
	SourceMappingStats  SourceMappingStats  `json:"sourceMappingStats" yaml:"source_mapping_stats"`
	GroundingInsights   InsightReport       `json:"groundingInsights" yaml:"grounding_insights"`
	OptimizationResults OptimizationResults `json:"optimizationResults" yaml:"optimization_results"`
	ResearchCoverage    ResearchCoverage    `json:"researchCoverage" yaml:"research_coverage"`
}

// TotalTargetWords sums the word budget over all sections.
func (r *OutlineResult) TotalTargetWords() int {
	total := 0
	for _, s := range r.Sections {
		total += s.TargetWords
	}
	return total
}
