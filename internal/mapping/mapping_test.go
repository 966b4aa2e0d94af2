// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/pkg/types"
)

func src(title string) types.Source {
	return types.Source{Title: title, URL: "https://example.com/" + title}
}

func titles(matches []Match) []string {
	var out []string
	for _, m := range matches {
		out = append(out, m.Source.Title)
	}
	return out
}

// --- Tokenization ---

func TestTokenize(t *testing.T) {
	got := tokenize("The Kubernetes scheduler: how it works, and why it's fast (k8s)!")
	assert.Equal(t, []string{"kubernetes", "scheduler", "works", "fast", "k8s"}, got)
}

func TestPhraseSetStaysWithinFragment(t *testing.T) {
	p := phraseSet([]string{"pod scheduling", "node affinity"}, 2)
	assert.True(t, p.has("pod scheduling"))
	assert.True(t, p.has("node affinity"))
	assert.False(t, p.has("scheduling node"))
}

func TestContainsPhraseWordBoundaries(t *testing.T) {
	assert.True(t, containsPhrase("intro to kubernetes scheduling", "kubernetes scheduling"))
	assert.False(t, containsPhrase("kubernetes schedulingx", "kubernetes scheduling"))
	assert.False(t, containsPhrase("anything", ""))
}

// --- Scoring ---

func TestMapSingleRelevantSource(t *testing.T) {
	sections := []types.OutlineSection{
		{ID: "s1", Heading: "Kubernetes Scheduling", Keywords: []string{"kubernetes scheduling"}},
		{ID: "s2", Heading: "Cooking Pasta at Home", Keywords: []string{"pasta recipes"}},
		{ID: "s3", Heading: "Garden Irrigation Systems"},
	}
	bundle := &types.ResearchBundle{
		Sources: []types.Source{
			src("Kubernetes Scheduling Deep Dive"),
			src("Baking Sourdough Bread"),
			src("Quarterly Market Report"),
			src("Ocean Tides Explained"),
			src("Vintage Car Restoration"),
		},
		KeywordAnalysis: types.KeywordAnalysis{Primary: []string{"kubernetes scheduling"}},
	}

	result := NewMapper().Map(sections, bundle)
	require.Len(t, result, 3)

	require.Len(t, result["s1"], 1)
	m := result["s1"][0]
	assert.Equal(t, "Kubernetes Scheduling Deep Dive", m.Source.Title)
	// Jaccard 2/4 plus one shared bigram; both keyword overlaps complete.
	assert.InDelta(t, 0.6, m.Breakdown.Semantic, 1e-9)
	assert.InDelta(t, 1.0, m.Breakdown.Keyword, 1e-9)
	assert.InDelta(t, 0.0, m.Breakdown.Contextual, 1e-9)
	assert.InDelta(t, 0.54, m.Score, 1e-9)

	assert.Empty(t, result["s2"])
	assert.Empty(t, result["s3"])
	assert.NotNil(t, result["s2"])
}

func TestMapTopThreeStableOrder(t *testing.T) {
	sections := []types.OutlineSection{
		{ID: "s1", Heading: "Kubernetes Scheduling", Keywords: []string{"kubernetes scheduling"}},
	}
	bundle := &types.ResearchBundle{
		Sources: []types.Source{
			src("Kubernetes Scheduling Deep Dive"),
			src("Kubernetes Scheduling Guide"),
			src("Kubernetes Scheduling"),
			src("Kubernetes Scheduling Explained"),
			src("Intro to Kubernetes Scheduling Policies and Practices"),
		},
		KeywordAnalysis: types.KeywordAnalysis{Primary: []string{"kubernetes scheduling"}},
	}

	result := NewMapper().Map(sections, bundle)
	matches := result["s1"]
	require.Len(t, matches, types.MaxReferences)
	assert.Equal(t, []string{
		"Kubernetes Scheduling",
		"Kubernetes Scheduling Guide",
		"Kubernetes Scheduling Explained",
	}, titles(matches))
	assert.Equal(t, matches[1].Score, matches[2].Score, "tie keeps catalogue order")
	for i, m := range matches {
		assert.GreaterOrEqual(t, m.Score, MinScore)
		if i > 0 {
			assert.GreaterOrEqual(t, matches[i-1].Score, m.Score)
		}
	}
}

func TestMapKeywordFallbackToSectionWords(t *testing.T) {
	sections := []types.OutlineSection{{ID: "s1", Heading: "Garden Irrigation Systems"}}
	bundle := &types.ResearchBundle{Sources: []types.Source{src("Garden Irrigation Systems Compared")}}

	result := NewMapper().Map(sections, bundle)
	require.Len(t, result["s1"], 1)
	b := result["s1"][0].Breakdown
	assert.InDelta(t, 1.0, b.Semantic, 1e-9)
	assert.InDelta(t, 0.7, b.Keyword, 1e-9)
	assert.InDelta(t, 0.61, result["s1"][0].Score, 1e-9)
}

func TestContextualScore(t *testing.T) {
	sec := newSectionProfile(types.OutlineSection{Heading: "Cost Aware Scheduling Strategies"})
	source := newSourceProfile(types.Source{Title: "Cost Aware Scheduling in Practice", Excerpt: "Running cloud clusters"})

	bundle := &types.ResearchBundle{
		SuggestedAngles: []string{"cost aware scheduling", "security hardening"},
		KeywordAnalysis: types.KeywordAnalysis{SearchIntent: "Transactional"},
	}
	rc := newResearchContext(bundle, "cloud computing")

	// One of two angles (0.15), one transactional marker (0.1), half the
	// industry terms (0.1).
	assert.InDelta(t, 0.35, contextualScore(sec, source, rc), 1e-9)
}

func TestIntentBonusCapped(t *testing.T) {
	sec := newSectionProfile(types.OutlineSection{Heading: "Anything"})
	source := newSourceProfile(types.Source{Title: "Best top compare comparison versus alternatives review"})
	rc := newResearchContext(&types.ResearchBundle{KeywordAnalysis: types.KeywordAnalysis{SearchIntent: "comparison"}}, "")
	assert.InDelta(t, maxIntentBonus, contextualScore(sec, source, rc), 1e-9)
}

func TestMapDoesNotMutateInputs(t *testing.T) {
	sections := []types.OutlineSection{{ID: "s1", Heading: "Kubernetes Scheduling", Keywords: []string{"kubernetes scheduling"}}}
	bundle := &types.ResearchBundle{Sources: []types.Source{src("Kubernetes Scheduling")}}
	before := types.CloneSections(sections)

	NewMapper().Map(sections, bundle)
	assert.Equal(t, before, sections)
	assert.Len(t, bundle.Sources, 1)
}

func TestMapNilBundle(t *testing.T) {
	result := NewMapper(WithIndustry("devops")).Map([]types.OutlineSection{{ID: "s1", Heading: "X"}}, nil)
	assert.Empty(t, result["s1"])
}

// --- Validation ---

type judge struct {
	raw   string
	err   error
	block bool
	calls int
}

func (j *judge) GenerateStructured(ctx context.Context, _ string, _ ai.Schema) (json.RawMessage, error) {
	j.calls++
	if j.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if j.err != nil {
		return nil, j.err
	}
	return json.RawMessage(j.raw), nil
}

func (j *judge) GenerateText(context.Context, string) (string, error) { return "", nil }

func validationFixture() ([]types.OutlineSection, *types.ResearchBundle, Result) {
	sections := []types.OutlineSection{
		{ID: "s1", Heading: "Kubernetes Scheduling"},
		{ID: "s2", Heading: "Scheduling Policies"},
	}
	bundle := &types.ResearchBundle{Sources: []types.Source{
		src("Kubernetes Scheduling Deep Dive"),
		src("Kubernetes Scheduling Guide"),
		src("Policy Engines Compared"),
	}}
	result := Result{
		"s1": {{Source: bundle.Sources[0], Score: 0.54}},
		"s2": {{Source: bundle.Sources[2], Score: 0.45}},
	}
	return sections, bundle, result
}

func TestValidateAppliesMatchingRecommendations(t *testing.T) {
	sections, bundle, result := validationFixture()
	j := &judge{raw: `{"sections": [
		{"id": "s1", "recommendedTitles": ["Kubernetes Scheduling Guide", "Kubernetes Scheduling Deep Dive"], "confidence": 0.9},
		{"id": "s2", "recommendedTitles": ["Kubernetes Scheduling Guide", "A Title Nobody Wrote"], "confidence": 0.95}
	]}`}
	var degraded []Degradation
	v := NewValidator(j, types.MappingConfig{}, WithDegradationHook(func(d Degradation) { degraded = append(degraded, d) }))

	out := v.Validate(context.Background(), sections, bundle, result)

	assert.Equal(t, []string{"Kubernetes Scheduling Guide", "Kubernetes Scheduling Deep Dive"}, titles(out["s1"]))
	assert.True(t, out["s1"][0].Validated)
	assert.InDelta(t, 0.9, out["s1"][0].Score, 1e-9)

	// Unmatched title keeps the algorithmic mapping for that section only.
	assert.Equal(t, result["s2"], out["s2"])
	require.Len(t, degraded, 1)
	assert.Equal(t, "s2", degraded[0].SectionID)

	// Input untouched.
	assert.Equal(t, "Kubernetes Scheduling Deep Dive", result["s1"][0].Source.Title)
}

func TestValidateLowConfidenceKeepsAlgorithmic(t *testing.T) {
	sections, bundle, result := validationFixture()
	j := &judge{raw: `{"sections": [{"id": "s1", "recommendedTitles": ["Kubernetes Scheduling Guide"], "confidence": 0.5}]}`}
	out := NewValidator(j, types.MappingConfig{}).Validate(context.Background(), sections, bundle, result)
	assert.Equal(t, result, out)

	out = NewValidator(j, types.MappingConfig{MinConfidence: 0.4}).Validate(context.Background(), sections, bundle, result)
	assert.Equal(t, []string{"Kubernetes Scheduling Guide"}, titles(out["s1"]))
}

func TestValidateFailuresKeepWholeResult(t *testing.T) {
	tests := []struct {
		name  string
		judge *judge
	}{
		{"provider error", &judge{err: errors.New("boom")}},
		{"unparsable", &judge{raw: `{"sections": "nope"}`}},
		{"missing sections", &judge{raw: `{"verdict": "fine"}`}},
		{"timeout", &judge{block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, bundle, result := validationFixture()
			count := 0
			v := NewValidator(tt.judge, types.MappingConfig{ValidationTimeout: 20 * time.Millisecond},
				WithDegradationHook(func(Degradation) { count++ }))

			out := v.Validate(context.Background(), sections, bundle, result)
			assert.Equal(t, result, out)
			assert.Equal(t, 1, count)
		})
	}
}

func TestValidateSkipsWithoutSources(t *testing.T) {
	sections, _, result := validationFixture()
	j := &judge{}
	out := NewValidator(j, types.MappingConfig{}).Validate(context.Background(), sections, &types.ResearchBundle{}, result)
	assert.Equal(t, result, out)
	assert.Zero(t, j.calls)
}

func TestResultReferences(t *testing.T) {
	r := Result{"s1": {{Source: src("A"), Score: 0.8}}}
	refs := r.References("s1")
	require.Len(t, refs, 1)
	assert.Equal(t, "A", refs[0].Title)
	assert.InDelta(t, 0.8, refs[0].RelevanceScore, 1e-9)
	assert.NotNil(t, r.References("missing"))
}
