// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TemporalBalance classifies how recency-focused the grounding evidence is.
type TemporalBalance string

const (
	BalanceRecentHeavy    TemporalBalance = "recent_heavy"
	BalanceEvergreenHeavy TemporalBalance = "evergreen_heavy"
	BalanceBalanced       TemporalBalance = "balanced"
)

// SearchIntent classifies a web search query.
type SearchIntent string

const (
	IntentInformational SearchIntent = "informational"
	IntentComparison    SearchIntent = "comparison"
	IntentTransactional SearchIntent = "transactional"
)

// SearchIntents lists every intent in tie-break order.
var SearchIntents = []SearchIntent{IntentInformational, IntentComparison, IntentTransactional}

// ConfidenceDistribution buckets confidence values.
type ConfidenceDistribution struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

// ConfidenceAnalysis summarizes evidentiary strength.
type ConfidenceAnalysis struct {
	AverageConfidence float64                `json:"averageConfidence" yaml:"average_confidence"`
	Distribution      ConfidenceDistribution `json:"distribution" yaml:"distribution"`

	// HighConfidenceInsights are support segments whose best confidence is
	// in the high bucket.
	HighConfidenceInsights []string `json:"highConfidenceInsights" yaml:"high_confidence_insights"`
}

// AuthoritySource is a grounding chunk with its computed authority.
type AuthoritySource struct {
	Title string  `json:"title" yaml:"title"`
	URL   string  `json:"url" yaml:"url"`
	Score float64 `json:"score" yaml:"score"`
}

// AuthorityAnalysis summarizes source authority.
type AuthorityAnalysis struct {
	AverageAuthority float64 `json:"averageAuthority" yaml:"average_authority"`

	// HighAuthoritySources are chunks scoring at or above the high-authority
	// threshold, best first.
	HighAuthoritySources []AuthoritySource `json:"highAuthoritySources" yaml:"high_authority_sources"`
}

// TemporalAnalysis summarizes recency versus evergreen evidence.
type TemporalAnalysis struct {
	RecentCount    int             `json:"recentCount" yaml:"recent_count"`
	EvergreenCount int             `json:"evergreenCount" yaml:"evergreen_count"`
	Balance        TemporalBalance `json:"balance" yaml:"balance"`
}

// ContentRelationships captures concepts and gaps mentioned across the evidence.
type ContentRelationships struct {
	RelatedConcepts []string `json:"relatedConcepts" yaml:"related_concepts"`
	ContentGaps     []string `json:"contentGaps" yaml:"content_gaps"`
}

// CitationInsights summarizes citation types and density.
type CitationInsights struct {
	Total      int                  `json:"total" yaml:"total"`
	TypeCounts map[CitationType]int `json:"typeCounts" yaml:"type_counts"`

	// Density is citations per 1,000 characters of support text.
	Density float64 `json:"density" yaml:"density"`
}

// SearchIntentInsight summarizes the intent behind the research queries.
type SearchIntentInsight struct {
	PrimaryIntent SearchIntent         `json:"primaryIntent" yaml:"primary_intent"`
	Counts        map[SearchIntent]int `json:"counts" yaml:"counts"`
}

// QualityAssessment is the composite research quality score.
type QualityAssessment struct {
	Score             float64 `json:"score" yaml:"score"`
	Grade             string  `json:"grade" yaml:"grade"`
	AverageConfidence float64 `json:"averageConfidence" yaml:"average_confidence"`
	SourceDiversity   float64 `json:"sourceDiversity" yaml:"source_diversity"`
	ContentDepth      float64 `json:"contentDepth" yaml:"content_depth"`
	CitationQuality   float64 `json:"citationQuality" yaml:"citation_quality"`
}

// InsightReport is the grounding analysis handed to the section enhancer.
// It is always fully populated: maps are non-nil and slices are non-nil,
// so consumers never need to check for absent data.
type InsightReport struct {
	Confidence    ConfidenceAnalysis   `json:"confidenceAnalysis" yaml:"confidence_analysis"`
	Authority     AuthorityAnalysis    `json:"authorityAnalysis" yaml:"authority_analysis"`
	Temporal      TemporalAnalysis     `json:"temporalAnalysis" yaml:"temporal_analysis"`
	Relationships ContentRelationships `json:"contentRelationships" yaml:"content_relationships"`
	Citations     CitationInsights     `json:"citationInsights" yaml:"citation_insights"`
	SearchIntent  SearchIntentInsight  `json:"searchIntentInsights" yaml:"search_intent_insights"`
	Quality       QualityAssessment    `json:"qualityAssessment" yaml:"quality_assessment"`
}
