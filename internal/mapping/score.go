// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"math"
	"strings"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// Factor weights for the composite relevance score.
const (
	semanticWeight   = 0.4
	keywordWeight    = 0.3
	contextualWeight = 0.3
)

// MinScore is the composite score a source needs to be mapped to a section.
const MinScore = 0.4

const (
	bigramBonus    = 0.1
	trigramBonus   = 0.15
	maxPhraseBonus = 0.3

	sectionKeywordShare  = 0.7
	researchKeywordShare = 0.3

	angleWeight     = 0.3
	intentHitWeight = 0.1
	maxIntentBonus  = 0.3
	industryWeight  = 0.2
)

// intentMarkers are words that signal content written for a search intent.
var intentMarkers = map[types.SearchIntent][]string{
	types.IntentInformational: {"guide", "what", "how", "why", "learn", "understand", "overview", "explained", "introduction", "basics", "tutorial"},
	types.IntentComparison:    {"best", "top", "compare", "comparison", "versus", "alternatives", "review", "ranking", "benchmark"},
	types.IntentTransactional: {"buy", "price", "pricing", "cost", "deal", "discount", "purchase", "hire", "subscription", "trial"},
}

// Breakdown is the per-factor detail behind a composite score.
type Breakdown struct {
	Semantic   float64 `json:"semantic"`
	Keyword    float64 `json:"keyword"`
	Contextual float64 `json:"contextual"`
}

// Total is the weighted composite of the three factors.
func (b Breakdown) Total() float64 {
	return semanticWeight*b.Semantic + keywordWeight*b.Keyword + contextualWeight*b.Contextual
}

// sectionProfile is the precomputed text of a section.
type sectionProfile struct {
	tokens   set
	bigrams  set
	trigrams set
	keywords []string // normalized section keywords
}

func newSectionProfile(s types.OutlineSection) sectionProfile {
	fragments := make([]string, 0, 1+len(s.Subheadings)+len(s.KeyPoints)+len(s.Keywords))
	fragments = append(fragments, s.Heading)
	fragments = append(fragments, s.Subheadings...)
	fragments = append(fragments, s.KeyPoints...)
	fragments = append(fragments, s.Keywords...)

	return sectionProfile{
		tokens:   tokenSet(fragments),
		bigrams:  phraseSet(fragments, 2),
		trigrams: phraseSet(fragments, 3),
		keywords: normalizeAll(s.Keywords),
	}
}

// sourceProfile is the precomputed text of a catalogue source.
type sourceProfile struct {
	text     string // normalized title + excerpt
	tokens   set
	words    set
	bigrams  set
	trigrams set
}

func newSourceProfile(src types.Source) sourceProfile {
	fragments := []string{src.Title, src.Excerpt}
	return sourceProfile{
		text:     normalizeText(src.Title + " " + src.Excerpt),
		tokens:   tokenSet(fragments),
		words:    wordSet(fragments),
		bigrams:  phraseSet(fragments, 2),
		trigrams: phraseSet(fragments, 3),
	}
}

// researchContext is the bundle-wide input to keyword and contextual scoring.
type researchContext struct {
	keywords []string // normalized, deduplicated research keywords
	angles   []set    // token set per suggested angle
	markers  []string
	industry set
}

func newResearchContext(bundle *types.ResearchBundle, industry string) researchContext {
	rc := researchContext{industry: tokenSet([]string{industry})}
	if bundle == nil {
		rc.markers = intentMarkers[types.IntentInformational]
		return rc
	}

	seen := map[string]bool{}
	for _, k := range normalizeAll(bundle.KeywordAnalysis.AllKeywords()) {
		if !seen[k] {
			seen[k] = true
			rc.keywords = append(rc.keywords, k)
		}
	}
	for _, a := range bundle.SuggestedAngles {
		if ts := tokenSet([]string{a}); len(ts) > 0 {
			rc.angles = append(rc.angles, ts)
		}
	}
	rc.markers = intentMarkers[parseIntent(bundle.KeywordAnalysis.SearchIntent)]
	return rc
}

// parseIntent maps a free-text intent label onto a known intent, falling
// back to informational.
func parseIntent(s string) types.SearchIntent {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "comparison") || strings.Contains(s, "commercial"):
		return types.IntentComparison
	case strings.Contains(s, "transactional"):
		return types.IntentTransactional
	default:
		return types.IntentInformational
	}
}

// score computes the factor breakdown for one (section, source) pair.
func score(sec sectionProfile, src sourceProfile, rc researchContext) Breakdown {
	return Breakdown{
		Semantic:   semanticScore(sec, src),
		Keyword:    keywordScore(sec, src, rc),
		Contextual: contextualScore(sec, src, rc),
	}
}

func semanticScore(sec sectionProfile, src sourceProfile) float64 {
	bonus := bigramBonus*float64(intersectionSize(sec.bigrams, src.bigrams)) +
		trigramBonus*float64(intersectionSize(sec.trigrams, src.trigrams))
	return math.Min(1, jaccard(sec.tokens, src.tokens)+math.Min(maxPhraseBonus, bonus))
}

func keywordScore(sec sectionProfile, src sourceProfile, rc researchContext) float64 {
	var sectionOverlap float64
	if len(sec.keywords) > 0 {
		sectionOverlap = containedFraction(sec.keywords, src.text)
	} else if len(sec.tokens) > 0 {
		sectionOverlap = float64(intersectionSize(sec.tokens, src.words)) / float64(len(sec.tokens))
	}
	researchOverlap := containedFraction(rc.keywords, src.text)
	return sectionKeywordShare*sectionOverlap + researchKeywordShare*researchOverlap
}

func contextualScore(sec sectionProfile, src sourceProfile, rc researchContext) float64 {
	var total float64

	if len(rc.angles) > 0 {
		matched := 0
		for _, angle := range rc.angles {
			if angleMatches(angle, sec.tokens, src.tokens) {
				matched++
			}
		}
		total += angleWeight * float64(matched) / float64(len(rc.angles))
	}

	hits := 0
	for _, m := range rc.markers {
		if src.words.has(m) {
			hits++
		}
	}
	total += math.Min(maxIntentBonus, intentHitWeight*float64(hits))

	if len(rc.industry) > 0 {
		total += industryWeight * float64(intersectionSize(rc.industry, src.tokens)) / float64(len(rc.industry))
	}
	return math.Min(1, total)
}

// angleMatches reports whether at least half of the angle's words appear
// in both the section and the source.
func angleMatches(angle, sectionTokens, sourceTokens set) bool {
	shared := 0
	for t := range angle {
		if sectionTokens.has(t) && sourceTokens.has(t) {
			shared++
		}
	}
	return shared*2 >= len(angle)
}

func containedFraction(phrases []string, text string) float64 {
	if len(phrases) == 0 {
		return 0
	}
	found := 0
	for _, p := range phrases {
		if containsPhrase(text, p) {
			found++
		}
	}
	return float64(found) / float64(len(phrases))
}

func normalizeAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if n := normalizeText(it); n != "" {
			out = append(out, n)
		}
	}
	return out
}
