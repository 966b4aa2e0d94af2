// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grounding analyzes the evidentiary metadata of a research bundle:
// confidence, source authority, recency, related concepts, citation mix,
// and search intent, rolled up into a graded quality score.
package grounding

import (
	"math"
	"net/url"
	"slices"
	"strings"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// Confidence and authority thresholds.
const (
	HighConfidence   = 0.8
	MediumConfidence = 0.6
	HighAuthority    = 0.8

	baseAuthority      = 0.5
	highAuthorityBoost = 0.3
	medAuthorityBoost  = 0.2
	lowAuthorityCost   = 0.1
	confidenceBoost    = 0.2

	recentHeavyShare    = 0.7
	evergreenHeavyShare = 0.3

	maxConcepts = 10
	maxGaps     = 5

	diversityDomains = 5.0
	depthChars       = 5000.0
)

// Extract analyzes the bundle's grounding metadata. It never fails: a nil
// bundle, or one without grounding, yields NeutralReport.
func Extract(bundle *types.ResearchBundle) types.InsightReport {
	if bundle == nil {
		bundle = &types.ResearchBundle{}
	}

	confidence := analyzeConfidence(bundle)
	citations := analyzeCitations(bundle)
	report := types.InsightReport{
		Confidence:    confidence,
		Authority:     analyzeAuthority(bundle.GroundingChunks),
		Temporal:      analyzeTemporal(bundle),
		Relationships: analyzeRelationships(bundle),
		Citations:     citations,
		SearchIntent:  classifyQueries(bundle.WebSearchQueries),
	}
	report.Quality = assessQuality(bundle, confidence.AverageConfidence)
	return report
}

// NeutralReport is the report for a bundle with no grounding metadata.
func NeutralReport() types.InsightReport {
	return Extract(nil)
}

// --- Confidence ---

func analyzeConfidence(b *types.ResearchBundle) types.ConfidenceAnalysis {
	var values []float64
	for _, c := range b.GroundingChunks {
		if c.ConfidenceScore != nil {
			values = append(values, clamp(*c.ConfidenceScore))
		}
	}

	insights := []string{}
	seen := map[string]bool{}
	for _, s := range b.GroundingSupports {
		best := -1.0
		for _, v := range s.ConfidenceScores {
			v = clamp(v)
			values = append(values, v)
			best = max(best, v)
		}
		text := strings.TrimSpace(s.SegmentText)
		if best >= HighConfidence && text != "" && !seen[text] {
			seen[text] = true
			insights = append(insights, text)
		}
	}

	ca := types.ConfidenceAnalysis{HighConfidenceInsights: insights}
	for _, v := range values {
		switch {
		case v >= HighConfidence:
			ca.Distribution.High++
		case v >= MediumConfidence:
			ca.Distribution.Medium++
		default:
			ca.Distribution.Low++
		}
	}
	ca.AverageConfidence = mean(values)
	return ca
}

// --- Authority ---

// AuthorityScore rates a grounding chunk by its host and title.
func AuthorityScore(c types.GroundingChunk) float64 {
	subject := strings.ToLower(hostOf(c.URL) + " " + c.Title)
	score := baseAuthority
	switch {
	case containsAny(subject, highAuthorityTerms):
		score += highAuthorityBoost
	case containsAny(subject, mediumAuthorityTerms):
		score += medAuthorityBoost
	}
	if containsAny(subject, lowAuthorityTerms) {
		score -= lowAuthorityCost
	}
	if c.ConfidenceScore != nil {
		score += clamp(*c.ConfidenceScore) * confidenceBoost
	}
	return clamp(score)
}

func analyzeAuthority(chunks []types.GroundingChunk) types.AuthorityAnalysis {
	aa := types.AuthorityAnalysis{HighAuthoritySources: []types.AuthoritySource{}}
	scores := make([]float64, 0, len(chunks))
	for _, c := range chunks {
		s := AuthorityScore(c)
		scores = append(scores, s)
		if s >= HighAuthority {
			aa.HighAuthoritySources = append(aa.HighAuthoritySources, types.AuthoritySource{Title: c.Title, URL: c.URL, Score: s})
		}
	}
	slices.SortStableFunc(aa.HighAuthoritySources, func(a, b types.AuthoritySource) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	aa.AverageAuthority = mean(scores)
	return aa
}

// --- Temporal ---

func analyzeTemporal(b *types.ResearchBundle) types.TemporalAnalysis {
	var ta types.TemporalAnalysis
	for _, c := range b.GroundingChunks {
		lower := strings.ToLower(c.Title + " " + c.URL)
		if recentYearRe.MatchString(lower) || containsAnyWord(lower, recentTerms) {
			ta.RecentCount++
		}
		if containsAnyWord(lower, evergreenTerms) {
			ta.EvergreenCount++
		}
	}

	ta.Balance = types.BalanceBalanced
	if total := ta.RecentCount + ta.EvergreenCount; total > 0 {
		share := float64(ta.RecentCount) / float64(total)
		switch {
		case share > recentHeavyShare:
			ta.Balance = types.BalanceRecentHeavy
		case share < evergreenHeavyShare:
			ta.Balance = types.BalanceEvergreenHeavy
		}
	}
	return ta
}

// --- Relationships ---

func analyzeRelationships(b *types.ResearchBundle) types.ContentRelationships {
	counts := map[string]int{}
	var order []string
	for _, text := range conceptTexts(b) {
		for _, m := range conceptRe.FindAllString(text, -1) {
			concept := trimConcept(m)
			if concept == "" {
				continue
			}
			if counts[concept] == 0 {
				order = append(order, concept)
			}
			counts[concept]++
		}
	}
	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })
	if len(order) > maxConcepts {
		order = order[:maxConcepts]
	}

	gaps := []string{}
	seen := map[string]bool{}
	for _, text := range narrativeTexts(b) {
		for _, sentence := range splitSentences(text) {
			if len(gaps) == maxGaps {
				break
			}
			if containsAnyWord(strings.ToLower(sentence), gapTerms) && !seen[sentence] {
				seen[sentence] = true
				gaps = append(gaps, sentence)
			}
		}
	}

	if order == nil {
		order = []string{}
	}
	return types.ContentRelationships{RelatedConcepts: order, ContentGaps: gaps}
}

// trimConcept drops leading stop words from a capitalized run, so a
// sentence-initial "The Kubernetes Scheduler" yields "Kubernetes Scheduler".
func trimConcept(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && conceptStopWords[words[0]] {
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}
	concept := strings.Join(words, " ")
	if len(words) == 1 && len(concept) < 4 {
		return ""
	}
	return concept
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool { return strings.ContainsRune(sentenceSplitChars, r) })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- Citations ---

func analyzeCitations(b *types.ResearchBundle) types.CitationInsights {
	ci := types.CitationInsights{
		Total:      len(b.Citations),
		TypeCounts: make(map[types.CitationType]int, len(types.CitationTypes)),
	}
	for _, t := range types.CitationTypes {
		ci.TypeCounts[t] = 0
	}
	for _, c := range b.Citations {
		ci.TypeCounts[normalizeCitationType(c.Type)]++
	}
	if chars := supportChars(b); chars > 0 {
		ci.Density = float64(ci.Total) / float64(chars) * 1000
	}
	return ci
}

func normalizeCitationType(t types.CitationType) types.CitationType {
	if slices.Contains(types.CitationTypes, t) {
		return t
	}
	return types.CitationOther
}

// citationQuality is the share of citations backed by experts, statistics,
// or research.
func citationQuality(citations []types.Citation) float64 {
	if len(citations) == 0 {
		return 0
	}
	strong := 0
	for _, c := range citations {
		switch c.Type {
		case types.CitationExpertOpinion, types.CitationStatisticalData, types.CitationResearchStudy:
			strong++
		}
	}
	return float64(strong) / float64(len(citations))
}

// --- Search intent ---

// ClassifyQuery assigns a search intent to one query. Comparison markers
// win over transactional ones; anything else is informational.
func ClassifyQuery(q string) types.SearchIntent {
	lower := strings.ToLower(q)
	switch {
	case containsAnyWord(lower, comparisonTerms):
		return types.IntentComparison
	case containsAnyWord(lower, transactionalTerms):
		return types.IntentTransactional
	default:
		return types.IntentInformational
	}
}

func classifyQueries(queries []string) types.SearchIntentInsight {
	si := types.SearchIntentInsight{Counts: make(map[types.SearchIntent]int, len(types.SearchIntents))}
	for _, intent := range types.SearchIntents {
		si.Counts[intent] = 0
	}
	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		si.Counts[ClassifyQuery(q)]++
	}

	si.PrimaryIntent = types.IntentInformational
	best := 0
	for _, intent := range types.SearchIntents {
		if si.Counts[intent] > best {
			best = si.Counts[intent]
			si.PrimaryIntent = intent
		}
	}
	return si
}

// --- Quality ---

func assessQuality(b *types.ResearchBundle, avgConfidence float64) types.QualityAssessment {
	domains := map[string]bool{}
	for _, c := range b.GroundingChunks {
		if h := hostOf(c.URL); h != "" {
			domains[h] = true
		}
	}

	qa := types.QualityAssessment{
		AverageConfidence: avgConfidence,
		SourceDiversity:   math.Min(1, float64(len(domains))/diversityDomains),
		ContentDepth:      math.Min(1, float64(supportChars(b))/depthChars),
		CitationQuality:   citationQuality(b.Citations),
	}
	qa.Score = 0.3*qa.AverageConfidence + 0.2*qa.SourceDiversity + 0.2*qa.ContentDepth + 0.3*qa.CitationQuality
	qa.Grade = Grade(qa.Score)
	return qa
}

// Grade maps a quality score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 0.9:
		return "A"
	case score >= 0.8:
		return "B"
	case score >= 0.7:
		return "C"
	case score >= 0.6:
		return "D"
	default:
		return "F"
	}
}

// --- helpers ---

// conceptTexts returns chunk titles followed by the narrative texts.
func conceptTexts(b *types.ResearchBundle) []string {
	var texts []string
	for _, c := range b.GroundingChunks {
		texts = append(texts, c.Title)
	}
	return append(texts, narrativeTexts(b)...)
}

// narrativeTexts returns support segments and citation texts.
func narrativeTexts(b *types.ResearchBundle) []string {
	var texts []string
	for _, s := range b.GroundingSupports {
		texts = append(texts, s.SegmentText)
	}
	for _, c := range b.Citations {
		texts = append(texts, c.Text)
	}
	return texts
}

func supportChars(b *types.ResearchBundle) int {
	n := 0
	for _, s := range b.GroundingSupports {
		n += len([]rune(s.SegmentText))
	}
	return n
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// containsAnyWord reports whether any term occurs in s on word boundaries.
func containsAnyWord(s string, terms []string) bool {
	padded := " " + wordsOnly(s) + " "
	for _, t := range terms {
		if strings.Contains(padded, " "+wordsOnly(t)+" ") {
			return true
		}
	}
	return false
}

// wordsOnly replaces punctuation (other than hyphens) with spaces and
// collapses whitespace.
func wordsOnly(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 127 {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
