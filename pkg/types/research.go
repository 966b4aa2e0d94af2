// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the outline-engine pipeline:
// the research bundle consumed at the pipeline boundary, the outline sections
// passed between stages, the grounding insight report, and the final result.
package types

// Source is one research source supplied by the research provider. Sources
// are read-only once the bundle is built.
type Source struct {
	// Title identifies the source. The research provider guarantees titles are
	// stable; they are the join key for AI-recommended substitutions.
	Title string `json:"title" yaml:"title"`

	// URL is the canonical location of the source.
	URL string `json:"url" yaml:"url"`

	// Excerpt is the relevant passage captured during research.
	Excerpt string `json:"excerpt" yaml:"excerpt"`

	// CredibilityScore is a value between 0.0 and 1.0.
	CredibilityScore float64 `json:"credibilityScore" yaml:"credibility_score"`

	// PublishedAt is the publication date as reported by the provider
	// (ISO-8601 when known, empty otherwise).
	PublishedAt string `json:"publishedAt,omitempty" yaml:"published_at,omitempty"`
}

// GroundingChunk is one piece of retrieved evidence.
type GroundingChunk struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`

	// ConfidenceScore is optional; nil means the provider reported none.
	ConfidenceScore *float64 `json:"confidenceScore,omitempty" yaml:"confidence_score,omitempty"`
}

// GroundingSupport links a span of generated text to evidence confidence.
type GroundingSupport struct {
	SegmentText      string    `json:"segmentText" yaml:"segment_text"`
	ConfidenceScores []float64 `json:"confidenceScores" yaml:"confidence_scores"`
}

// CitationType classifies an inline citation.
type CitationType string

const (
	CitationExpertOpinion   CitationType = "expert_opinion"
	CitationStatisticalData CitationType = "statistical_data"
	CitationRecentNews      CitationType = "recent_news"
	CitationResearchStudy   CitationType = "research_study"
	CitationOther           CitationType = "other"
)

// CitationTypes lists every citation type in reporting order.
var CitationTypes = []CitationType{
	CitationExpertOpinion,
	CitationStatisticalData,
	CitationRecentNews,
	CitationResearchStudy,
	CitationOther,
}

// Citation is a claim lifted from research text along with its type.
type Citation struct {
	Text string       `json:"text" yaml:"text"`
	Type CitationType `json:"citationType" yaml:"citation_type"`
}

// KeywordAnalysis groups the keyword research for a topic.
type KeywordAnalysis struct {
	Primary      []string `json:"primary" yaml:"primary"`
	Secondary    []string `json:"secondary" yaml:"secondary"`
	LongTail     []string `json:"longTail" yaml:"long_tail"`
	Semantic     []string `json:"semantic" yaml:"semantic"`
	Trending     []string `json:"trending" yaml:"trending"`
	ContentGaps  []string `json:"contentGaps" yaml:"content_gaps"`
	SearchIntent string   `json:"searchIntent" yaml:"search_intent"`
}

// AllKeywords returns every keyword across the ranking categories
// (primary, secondary, long-tail, semantic, trending) in that order.
// Content gaps are not keywords and are excluded.
func (k KeywordAnalysis) AllKeywords() []string {
	var all []string
	all = append(all, k.Primary...)
	all = append(all, k.Secondary...)
	all = append(all, k.LongTail...)
	all = append(all, k.Semantic...)
	all = append(all, k.Trending...)
	return all
}

// CompetitorAnalysis summarizes what competing content covers and misses.
type CompetitorAnalysis struct {
	TopCompetitors []string `json:"topCompetitors" yaml:"top_competitors"`
	Opportunities  []string `json:"opportunities" yaml:"opportunities"`
	Strengths      []string `json:"strengths" yaml:"strengths"`
	ContentGaps    []string `json:"contentGaps" yaml:"content_gaps"`
}

// ResearchBundle is the complete research output for one outline request.
// It is created once by the research provider and never mutated by the
// pipeline; every stage derives new data from it.
type ResearchBundle struct {
	Sources            []Source           `json:"sources" yaml:"sources"`
	GroundingChunks    []GroundingChunk   `json:"groundingChunks" yaml:"grounding_chunks"`
	GroundingSupports  []GroundingSupport `json:"groundingSupports" yaml:"grounding_supports"`
	Citations          []Citation         `json:"citations" yaml:"citations"`
	WebSearchQueries   []string           `json:"webSearchQueries" yaml:"web_search_queries"`
	KeywordAnalysis    KeywordAnalysis    `json:"keywordAnalysis" yaml:"keyword_analysis"`
	CompetitorAnalysis CompetitorAnalysis `json:"competitorAnalysis" yaml:"competitor_analysis"`
	SuggestedAngles    []string           `json:"suggestedAngles" yaml:"suggested_angles"`
}

// HasGrounding reports whether the bundle carries any grounding metadata.
func (b *ResearchBundle) HasGrounding() bool {
	if b == nil {
		return false
	}
	return len(b.GroundingChunks) > 0 || len(b.GroundingSupports) > 0 ||
		len(b.Citations) > 0 || len(b.WebSearchQueries) > 0
}
