// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/internal/cache"
	"github.com/pdiddy/outline-engine/internal/retry"
	"github.com/pdiddy/outline-engine/internal/synthesize"
	"github.com/pdiddy/outline-engine/pkg/types"
)

func TestMain(m *testing.M) {
	retry.DefaultDelay = time.Millisecond
	os.Exit(m.Run())
}

// routedProvider answers each AI stage from its own script, telling the
// stages apart by their prompts.
type routedProvider struct {
	mu         sync.Mutex
	synthesis  []string
	validation string
	optimize   string
	synthErr   error
	calls      map[string]int
}

func (p *routedProvider) GenerateStructured(_ context.Context, prompt string, _ ai.Schema) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	switch {
	case strings.Contains(prompt, "content strategist"):
		n := p.calls["synthesis"]
		p.calls["synthesis"]++
		if p.synthErr != nil {
			return nil, p.synthErr
		}
		return json.RawMessage(p.synthesis[min(n, len(p.synthesis)-1)]), nil
	case strings.Contains(prompt, "reviewing which research sources"):
		p.calls["validation"]++
		return json.RawMessage(p.validation), nil
	case strings.Contains(prompt, "editor improving"):
		p.calls["optimize"]++
		return json.RawMessage(p.optimize), nil
	}
	return nil, errors.New("unexpected prompt")
}

func (p *routedProvider) GenerateText(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (p *routedProvider) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

func (p *routedProvider) count(stage string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[stage]
}

const synthesisResponse = `{
  "outline": [
    {"heading": "Introduction to Kubernetes Scheduling", "subheadings": ["What the scheduler does"], "keyPoints": ["Pods are bound to nodes"], "targetWords": 200, "keywords": ["kubernetes scheduling"]},
    {"heading": "Scheduling Policies and Topology Spread", "subheadings": ["Affinity", "Topology spread constraints"], "keyPoints": ["Spread pods across zones"], "targetWords": 600, "keywords": ["topology spread"]},
    {"heading": "Cost Aware Scheduling with Karpenter", "subheadings": ["Bin packing"], "keyPoints": ["Consolidation saves money"], "targetWords": 500, "keywords": ["karpenter"]},
    {"heading": "Conclusion", "subheadings": [], "keyPoints": [], "targetWords": 200, "keywords": []}
  ],
  "titleOptions": ["Kubernetes Scheduling, Explained"]
}`

// optimizedResponse keeps the synthesized sections and renames the last.
const optimizedResponse = `{
  "outline": [
    {"heading": "Introduction to Kubernetes Scheduling", "subheadings": ["What the scheduler does"], "keyPoints": ["Pods are bound to nodes"], "targetWords": 200, "keywords": ["kubernetes scheduling"]},
    {"heading": "Scheduling Policies and Topology Spread", "subheadings": ["Affinity", "Topology spread constraints"], "keyPoints": ["Spread pods across zones"], "targetWords": 600, "keywords": ["topology spread"]},
    {"heading": "Cost Aware Scheduling with Karpenter", "subheadings": ["Bin packing"], "keyPoints": ["Consolidation saves money"], "targetWords": 500, "keywords": ["karpenter"]},
    {"heading": "Key Takeaways", "subheadings": [], "keyPoints": [], "targetWords": 200, "keywords": []}
  ],
  "improvements": ["Renamed the conclusion"]
}`

var withoutOptimization = types.PipelineConfig{Optimization: types.OptimizationConfig{Disabled: true}}

func request() types.OutlineRequest {
	return types.OutlineRequest{
		Keywords:  []string{"kubernetes scheduling"},
		Industry:  "devops",
		Audience:  "engineers",
		WordCount: 1500,
	}
}

func conf(f float64) *float64 { return &f }

func bundle() *types.ResearchBundle {
	return &types.ResearchBundle{
		Sources: []types.Source{
			{Title: "Kubernetes Scheduling Deep Dive", URL: "https://kubernetes.io/docs/scheduling", Excerpt: "How the kubernetes scheduling framework binds pods to nodes."},
			{Title: "Topology Spread Constraints Guide", URL: "https://example.com/topology", Excerpt: "Use topology spread to balance pods across zones."},
			{Title: "Karpenter Cost Optimization", URL: "https://karpenter.sh/cost", Excerpt: "Karpenter consolidation and bin packing reduce cost."},
			{Title: "Baking Sourdough Bread", URL: "https://bread.example.com", Excerpt: "Flour, water, salt."},
			{Title: "Quarterly Market Report", URL: "https://market.example.com", Excerpt: "Stocks went up."},
		},
		GroundingChunks: []types.GroundingChunk{
			{Title: "Kubernetes docs", URL: "https://kubernetes.io/docs", ConfidenceScore: conf(0.9)},
			{Title: "NIST cloud report", URL: "https://nist.gov/cloud", ConfidenceScore: conf(0.8)},
		},
		GroundingSupports: []types.GroundingSupport{
			{SegmentText: "Kubernetes scheduling runs filtering and scoring phases. There is a lack of guidance on topology spread for small clusters.", ConfidenceScores: []float64{0.92}},
		},
		Citations:        []types.Citation{{Text: "Experts recommend Karpenter for bin packing.", Type: types.CitationExpertOpinion}},
		WebSearchQueries: []string{"kubernetes scheduling explained", "karpenter vs cluster autoscaler"},
		KeywordAnalysis: types.KeywordAnalysis{
			Primary:     []string{"kubernetes scheduling"},
			Secondary:   []string{"topology spread", "karpenter"},
			ContentGaps: []string{"topology spread"},
		},
		CompetitorAnalysis: types.CompetitorAnalysis{Opportunities: []string{"Hands-on cost examples"}},
		SuggestedAngles:    []string{"cost aware scheduling"},
	}
}

func newProvider() *routedProvider {
	return &routedProvider{synthesis: []string{synthesisResponse}, optimize: optimizedResponse}
}

func TestGenerateEndToEnd(t *testing.T) {
	p := newProvider()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	result, err := New(p, types.PipelineConfig{}, WithMetrics(m)).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)

	require.Len(t, result.Sections, 4)
	assert.Equal(t, 1500, result.TotalTargetWords())
	for i, s := range result.Sections {
		assert.Equal(t, types.SectionID(i), s.ID)
		assert.LessOrEqual(t, len(s.References), types.MaxReferences)
		for _, ref := range s.References {
			assert.GreaterOrEqual(t, ref.RelevanceScore, 0.4)
		}
	}
	assert.Equal(t, "Kubernetes Scheduling Deep Dive", result.Sections[0].References[0].Title)
	assert.Equal(t, []string{"Kubernetes Scheduling, Explained"}, result.TitleOptions)

	st := result.SourceMappingStats
	assert.Positive(t, st.TotalMapped)
	assert.Greater(t, st.CoveragePercent, 0.0)
	assert.LessOrEqual(t, st.CoveragePercent, 100.0)

	assert.Equal(t, result.GroundingInsights.Quality.Score, result.OptimizationResults.QualityScore)
	assert.Equal(t, []string{"Renamed the conclusion"}, result.OptimizationResults.ImprovementsMade)
	assert.Equal(t, "Key Takeaways", result.Sections[3].Heading)
	assert.Contains(t, result.ResearchCoverage.CompetitiveAdvantages, "Hands-on cost examples")
	assert.Contains(t, result.ResearchCoverage.CompetitiveAdvantages, "Covers gap: topology spread")
	assert.GreaterOrEqual(t, result.ResearchCoverage.GapsIdentified, 1)

	assert.Equal(t, 1, p.count("synthesis"))
	assert.Zero(t, p.count("validation"))
	assert.Equal(t, 1, p.count("optimize"), "optimizer runs with the zero config")
	assert.Zero(t, testutil.ToFloat64(m.Degradations.WithLabelValues(DegradeOptimization)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("generated")))
}

func TestGenerateOptimizationDisabled(t *testing.T) {
	p := newProvider()
	result, err := New(p, withoutOptimization).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)

	assert.Zero(t, p.count("optimize"))
	assert.Equal(t, "Conclusion", result.Sections[3].Heading)
	assert.Equal(t, []string{}, result.OptimizationResults.ImprovementsMade)
	assert.Equal(t, 1500, result.TotalTargetWords())
}

func TestGenerateCacheHitSkipsAI(t *testing.T) {
	p := newProvider()
	c := cache.New(cache.NewMemory(), types.CacheMemory)
	m := NewMetrics(prometheus.NewRegistry())
	pl := New(p, types.PipelineConfig{}, WithCache(c), WithMetrics(m))

	first, err := pl.Generate(context.Background(), request(), bundle())
	require.NoError(t, err)
	callsAfterFirst := p.total()
	require.Positive(t, callsAfterFirst)

	second, err := pl.Generate(context.Background(), request(), bundle())
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, p.total(), "cache hit makes no AI calls")

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, first, second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("cached")))
}

func TestGeneratePrepopulatedCache(t *testing.T) {
	ctx := context.Background()
	c := cache.New(cache.NewMemory(), types.CacheMemory)
	stored := &types.OutlineResult{
		TitleOptions: []string{"Stored"},
		Sections:     []types.OutlineSection{{ID: "s1", Heading: "Stored Section", TargetWords: 1500}},
	}
	key := cache.Key(types.OutlineRequest{Keywords: []string{"kubernetes scheduling"}, Industry: "devops", Audience: "engineers", WordCount: 1500})
	require.NoError(t, c.Set(ctx, key, stored))

	p := newProvider()
	result, err := New(p, types.PipelineConfig{}, WithCache(c)).Generate(ctx, request(), bundle())
	require.NoError(t, err)
	assert.Zero(t, p.total())
	assert.Equal(t, "Stored Section", result.Sections[0].Heading)
}

func TestGenerateSynthesisFailure(t *testing.T) {
	p := &routedProvider{synthErr: errors.New("401 unauthorized")}
	c := cache.New(cache.NewMemory(), types.CacheMemory)
	m := NewMetrics(prometheus.NewRegistry())

	_, err := New(p, types.PipelineConfig{}, WithCache(c), WithMetrics(m)).Generate(context.Background(), request(), bundle())
	var gerr *synthesize.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failed")))

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Entries, "failed runs are not cached")
}

func TestGenerateSynthesisRetriesInvalidOutline(t *testing.T) {
	p := &routedProvider{synthesis: []string{`{"oops": true}`, synthesisResponse}}
	result, err := New(p, types.PipelineConfig{Synthesis: types.SynthesisConfig{MaxAttempts: 3}}).
		Generate(context.Background(), request(), bundle())
	require.NoError(t, err)
	assert.Len(t, result.Sections, 4)
	assert.Equal(t, 2, p.count("synthesis"))
}

func TestGenerateValidationDegrades(t *testing.T) {
	p := newProvider()
	p.validation = `{"sections": [{"id": "s2", "recommendedTitles": ["Not In The Catalogue"], "confidence": 0.99}]}`
	m := NewMetrics(prometheus.NewRegistry())

	cfg := types.PipelineConfig{Mapping: types.MappingConfig{Validate: true}}
	withValidation, err := New(p, cfg, WithMetrics(m)).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)
	without, err := New(newProvider(), types.PipelineConfig{}).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)

	assert.Equal(t, without.Sections, withValidation.Sections)
	assert.Equal(t, 1, p.count("validation"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degradations.WithLabelValues(DegradeMappingValidation)))
}

func TestGenerateValidationApplies(t *testing.T) {
	p := newProvider()
	p.validation = `{"sections": [{"id": "s4", "recommendedTitles": ["Quarterly Market Report"], "confidence": 0.9}]}`

	cfg := types.PipelineConfig{Mapping: types.MappingConfig{Validate: true}}
	result, err := New(p, cfg).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)

	refs := result.Sections[3].References
	require.Len(t, refs, 1)
	assert.Equal(t, "Quarterly Market Report", refs[0].Title)
	assert.InDelta(t, 0.9, refs[0].RelevanceScore, 1e-9)
}

func TestGenerateOptimizerNoop(t *testing.T) {
	p := newProvider()
	p.optimize = `{}`
	m := NewMetrics(prometheus.NewRegistry())

	optimized, err := New(p, types.PipelineConfig{}, WithMetrics(m)).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)
	plain, err := New(newProvider(), withoutOptimization).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)

	assert.Equal(t, plain.Sections, optimized.Sections)
	assert.Equal(t, 1, p.count("optimize"))
	assert.Empty(t, optimized.OptimizationResults.ImprovementsMade)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degradations.WithLabelValues(DegradeOptimization)))
}

func TestGenerateOptimizerApplies(t *testing.T) {
	p := newProvider()
	p.optimize = `{
		"outline": [
			{"heading": "Introduction to Kubernetes Scheduling", "subheadings": [], "keyPoints": [], "targetWords": 100, "keywords": []},
			{"heading": "Conclusion", "subheadings": [], "keyPoints": [], "targetWords": 100, "keywords": []}
		],
		"improvements": ["Merged the middle sections"]
	}`

	cfg := types.PipelineConfig{Optimization: types.OptimizationConfig{Focus: "brevity"}}
	result, err := New(p, cfg).Generate(context.Background(), request(), bundle())
	require.NoError(t, err)

	require.Len(t, result.Sections, 2)
	assert.Equal(t, 1500, result.TotalTargetWords())
	assert.Equal(t, []string{"Merged the middle sections"}, result.OptimizationResults.ImprovementsMade)
	assert.NotEmpty(t, result.Sections[0].References, "references carried over by heading")
}

func TestGenerateInvalidRequest(t *testing.T) {
	p := newProvider()
	_, err := New(p, types.PipelineConfig{}).Generate(context.Background(), types.OutlineRequest{WordCount: 100}, bundle())
	require.Error(t, err)
	assert.Zero(t, p.total())
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(newProvider(), types.PipelineConfig{}).Generate(ctx, request(), bundle())
	assert.ErrorIs(t, err, context.Canceled)
}

type brokenCache struct{ sets int }

func (b *brokenCache) Get(context.Context, string) (*types.OutlineResult, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (b *brokenCache) Set(context.Context, string, *types.OutlineResult) error {
	b.sets++
	return errors.New("connection refused")
}

func TestGenerateCacheFailuresDegrade(t *testing.T) {
	bc := &brokenCache{}
	m := NewMetrics(prometheus.NewRegistry())
	result, err := New(newProvider(), types.PipelineConfig{}, WithCache(bc), WithMetrics(m)).
		Generate(context.Background(), request(), bundle())
	require.NoError(t, err)
	assert.Len(t, result.Sections, 4)
	assert.Equal(t, 1, bc.sets)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degradations.WithLabelValues(DegradeCacheRead)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degradations.WithLabelValues(DegradeCacheWrite)))
}

func TestProgressHookIsFireAndForget(t *testing.T) {
	var mu sync.Mutex
	seen := map[State]bool{}
	hook := func(ev Progress) {
		mu.Lock()
		seen[ev.State] = true
		mu.Unlock()
		if ev.State == StateEnhancing {
			panic("hook bug")
		}
	}

	result, err := New(newProvider(), types.PipelineConfig{}, WithProgress(hook)).
		Generate(context.Background(), request(), bundle())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range []State{StateCreated, StateSynthesizing, StateMapping, StateGrounding, StateEnhancing, StateOptimizing, StateRebalancing, StateDone} {
			if !seen[s] {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestGenerateNoGroundingNeutralInsights(t *testing.T) {
	b := bundle()
	b.GroundingChunks = nil
	b.GroundingSupports = nil
	b.Citations = nil
	b.WebSearchQueries = nil

	result, err := New(newProvider(), withoutOptimization).Generate(context.Background(), request(), b)
	require.NoError(t, err)
	assert.Equal(t, "F", result.GroundingInsights.Quality.Grade)
	assert.Equal(t, types.BalanceBalanced, result.GroundingInsights.Temporal.Balance)
	assert.Equal(t, []string{"What the scheduler does"}, result.Sections[0].Subheadings)
}
