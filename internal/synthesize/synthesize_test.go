// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/internal/retry"
	"github.com/pdiddy/outline-engine/pkg/types"
)

func TestMain(m *testing.M) {
	// No real sleeps between attempts.
	retry.DefaultDelay = time.Millisecond
	os.Exit(m.Run())
}

// scriptedProvider returns one scripted reply per call.
type scriptedProvider struct {
	replies []reply
	calls   int
	prompts []string
}

type reply struct {
	raw string
	err error
}

func (p *scriptedProvider) GenerateStructured(_ context.Context, prompt string, _ ai.Schema) (json.RawMessage, error) {
	p.prompts = append(p.prompts, prompt)
	r := p.replies[min(p.calls, len(p.replies)-1)]
	p.calls++
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.raw), nil
}

func (p *scriptedProvider) GenerateText(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

const goodOutline = `{
  "outline": [
    {"heading": "What Is Kubernetes Scheduling", "subheadings": ["Pods", "Nodes"], "keyPoints": ["The scheduler binds pods"], "targetWords": 300, "keywords": ["kubernetes scheduling"]},
    {"heading": "", "subheadings": ["dropped"]},
    {"heading": "Scheduling Policies", "subheadings": [], "keyPoints": [], "targetWords": 400, "keywords": []}
  ],
  "titleOptions": ["Mastering Kubernetes Scheduling", " "]
}`

func newTestSynth(p ai.Provider) *Synthesizer {
	return New(p, types.SynthesisConfig{MaxAttempts: 3})
}

func TestSynthesizeSuccess(t *testing.T) {
	p := &scriptedProvider{replies: []reply{{raw: goodOutline}}}
	draft, err := newTestSynth(p).Synthesize(context.Background(), "prompt", OutlineSchema(true))
	require.NoError(t, err)

	require.Len(t, draft.Sections, 2, "entry without heading is dropped")
	assert.Equal(t, "s1", draft.Sections[0].ID)
	assert.Equal(t, "s2", draft.Sections[1].ID)
	assert.Equal(t, "Scheduling Policies", draft.Sections[1].Heading)
	assert.Equal(t, []string{"Mastering Kubernetes Scheduling"}, draft.TitleOptions)
	assert.Equal(t, 1, p.calls, "dropping a headless entry does not trigger a retry")
}

func TestSynthesizeRetriesTransientAndMalformed(t *testing.T) {
	p := &scriptedProvider{replies: []reply{
		{err: fmt.Errorf("call: %w", ai.ErrOverloaded)},
		{raw: `{"sections": []}`},
		{raw: goodOutline},
	}}
	draft, err := newTestSynth(p).Synthesize(context.Background(), "prompt", OutlineSchema(true))
	require.NoError(t, err)
	assert.Len(t, draft.Sections, 2)
	assert.Equal(t, 3, p.calls)
}

func TestSynthesizeExhaustedIsGenerationError(t *testing.T) {
	p := &scriptedProvider{replies: []reply{{raw: `not json at all`}}}
	_, err := newTestSynth(p).Synthesize(context.Background(), "prompt", nil)
	require.Error(t, err)

	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 3, gerr.Attempts)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 3, p.calls)
}

func TestSynthesizeNonRetryableStopsImmediately(t *testing.T) {
	p := &scriptedProvider{replies: []reply{{err: errors.New("401 unauthorized")}}}
	_, err := newTestSynth(p).Synthesize(context.Background(), "prompt", nil)

	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 1, gerr.Attempts)
	assert.Equal(t, 1, p.calls)
}

func TestSynthesizeMalformedProviderResponseRetried(t *testing.T) {
	p := &scriptedProvider{replies: []reply{
		{err: fmt.Errorf("%w: no JSON object", ai.ErrMalformedResponse)},
		{raw: goodOutline},
	}}
	_, err := newTestSynth(p).Synthesize(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestSynthesizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedProvider{replies: []reply{{raw: goodOutline}}}
	_, err := newTestSynth(p).Synthesize(ctx, "prompt", nil)
	assert.ErrorIs(t, err, context.Canceled)
	var gerr *GenerationError
	assert.False(t, errors.As(err, &gerr))
}

func TestParseOutline(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLen   int
		wantError bool
	}{
		{"missing outline key", `{"titleOptions": ["x"]}`, 0, true},
		{"empty outline", `{"outline": []}`, 0, true},
		{"only headless entries", `{"outline": [{"heading": "  "}]}`, 0, true},
		{"outline not array", `{"outline": "nope"}`, 0, true},
		{"nulls become empty", `{"outline": [{"heading": "A"}]}`, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, _, err := ParseOutline(json.RawMessage(tt.raw))
			if tt.wantError {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			require.Len(t, sections, tt.wantLen)
			assert.NotNil(t, sections[0].Subheadings)
			assert.NotNil(t, sections[0].Keywords)
		})
	}
}

// --- Prompt ---

func TestBuildPromptIncludesResearch(t *testing.T) {
	req := types.OutlineRequest{
		Keywords:           []string{"kubernetes scheduling"},
		Industry:           "devops",
		Audience:           "engineers",
		WordCount:          1500,
		CustomInstructions: "Mention bin packing.",
	}
	bundle := &types.ResearchBundle{
		KeywordAnalysis: types.KeywordAnalysis{
			Primary:  []string{"kubernetes scheduling"},
			Trending: []string{"karpenter"},
		},
		SuggestedAngles:    []string{"cost-aware scheduling"},
		CompetitorAnalysis: types.CompetitorAnalysis{Opportunities: []string{"no one covers topology spread"}},
	}

	prompt, err := BuildPrompt(req, bundle)
	require.NoError(t, err)
	for _, want := range []string{
		"kubernetes scheduling", "devops", "engineers", "1500 words",
		"Trending keywords: karpenter", "cost-aware scheduling",
		"no one covers topology spread", "Mention bin packing.",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "Secondary keywords")
}

func TestBuildPromptNilBundle(t *testing.T) {
	prompt, err := BuildPrompt(types.OutlineRequest{Keywords: []string{"go"}}, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "general readers")
	assert.NotContains(t, prompt, "Keyword research")
}

func TestOutlineSchema(t *testing.T) {
	props := OutlineSchema(true)["properties"].(map[string]any)
	assert.Contains(t, props, "titleOptions")
	props = OutlineSchema(false)["properties"].(map[string]any)
	assert.NotContains(t, props, "titleOptions")
}

func TestFallbackTitles(t *testing.T) {
	titles := FallbackTitles(types.OutlineRequest{Keywords: []string{"", "kubernetes scheduling"}, Industry: "devops", Audience: "platform engineers"})
	assert.Equal(t, []string{
		"The Complete Guide to Kubernetes Scheduling",
		"Kubernetes Scheduling: What Platform Engineers Need to Know",
		"Kubernetes Scheduling Best Practices for Devops",
		"How to Get Kubernetes Scheduling Right",
	}, titles)

	assert.Empty(t, FallbackTitles(types.OutlineRequest{}))
}
