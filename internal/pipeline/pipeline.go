// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the outline stages in order: synthesis, the
// parallel mapping and grounding stage, enhancement, optimization, and
// word-budget allocation, with the finished outline cached by request.
// Only synthesis can fail a run; every later stage degrades to the best
// outline available.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/internal/budget"
	"github.com/pdiddy/outline-engine/internal/cache"
	"github.com/pdiddy/outline-engine/internal/enhance"
	"github.com/pdiddy/outline-engine/internal/optimize"
	"github.com/pdiddy/outline-engine/internal/synthesize"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// Cache is the outline store the pipeline reads before and writes after a run.
type Cache interface {
	Get(ctx context.Context, key string) (*types.OutlineResult, bool, error)
	Set(ctx context.Context, key string, result *types.OutlineResult) error
}

// Pipeline generates outlines. It is safe for concurrent use.
type Pipeline struct {
	provider ai.Provider
	cfg      types.PipelineConfig
	cache    Cache
	logger   *zap.Logger
	metrics  *Metrics
	progress ProgressFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache enables outline caching.
func WithCache(c Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records stage timings and degradations in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithProgress registers a fire-and-forget progress hook.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// New returns a Pipeline that calls provider for every AI stage.
func New(provider ai.Provider, cfg types.PipelineConfig, opts ...Option) *Pipeline {
	p := &Pipeline{provider: provider, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate produces an outline for req from bundle. A cached outline for an
// equivalent request is returned without calling the provider. Errors are
// an invalid request, a *synthesize.GenerationError, or the context's error.
func (p *Pipeline) Generate(ctx context.Context, req types.OutlineRequest, bundle *types.ResearchBundle) (*types.OutlineResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if bundle == nil {
		bundle = &types.ResearchBundle{}
	}

	r := &run{id: uuid.NewString()}
	r.logger = p.logger.With(zap.String("run_id", r.id))
	p.enter(r, StateCreated)

	key := cache.Key(req)
	if result, ok := p.lookup(ctx, r, key); ok {
		p.enter(r, StateCached)
		p.enter(r, StateDone)
		p.metrics.run("cached")
		return result, nil
	}

	result, err := p.generate(ctx, r, req, bundle)
	if err != nil {
		p.enter(r, StateFailed)
		p.metrics.run("failed")
		r.logger.Error("outline generation failed", zap.Error(err))
		return nil, err
	}

	canonical, err := cache.Canonical(result)
	if err != nil {
		return nil, fmt.Errorf("encoding outline: %w", err)
	}
	if p.cache != nil {
		if err := p.cache.Set(ctx, key, canonical); err != nil {
			r.logger.Warn("outline cache write failed", zap.String("key", key), zap.Error(err))
			p.metrics.degraded(DegradeCacheWrite)
		} else {
			p.enter(r, StateCached)
		}
	}
	p.enter(r, StateDone)
	p.metrics.run("generated")
	r.logger.Info("outline generated",
		zap.Int("sections", len(canonical.Sections)),
		zap.Float64("quality_score", canonical.OptimizationResults.QualityScore))
	return canonical, nil
}

// lookup reads the cache. Failures are logged and treated as a miss.
func (p *Pipeline) lookup(ctx context.Context, r *run, key string) (*types.OutlineResult, bool) {
	if p.cache == nil {
		return nil, false
	}
	result, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		r.logger.Warn("outline cache read failed", zap.String("key", key), zap.Error(err))
		p.metrics.cacheLookup("error")
		p.metrics.degraded(DegradeCacheRead)
		return nil, false
	case !ok:
		p.metrics.cacheLookup("miss")
		return nil, false
	}
	p.metrics.cacheLookup("hit")
	r.logger.Info("outline served from cache", zap.String("key", key))
	return result, true
}

func (p *Pipeline) generate(ctx context.Context, r *run, req types.OutlineRequest, bundle *types.ResearchBundle) (*types.OutlineResult, error) {
	p.enter(r, StateSynthesizing)
	start := time.Now()
	prompt, err := synthesize.BuildPrompt(req, bundle)
	if err != nil {
		return nil, &synthesize.GenerationError{Err: err}
	}
	draft, err := synthesize.New(p.provider, p.cfg.Synthesis, synthesize.WithLogger(r.logger)).
		Synthesize(ctx, prompt, synthesize.OutlineSchema(true))
	p.metrics.observeStage(StateSynthesizing, start)
	if err != nil {
		return nil, err
	}

	mapped, report, err := p.runParallel(ctx, r, draft.Sections, bundle, req)
	if err != nil {
		return nil, err
	}

	p.enter(r, StateEnhancing)
	start = time.Now()
	sections := enhance.Enhance(draft.Sections, mapped, report)
	p.metrics.observeStage(StateEnhancing, start)

	p.enter(r, StateOptimizing)
	optReport := optimize.Report{Improvements: []string{}}
	if !p.cfg.Optimization.Disabled {
		start = time.Now()
		o := optimize.New(p.provider,
			optimize.WithLogger(r.logger),
			optimize.WithNoopHook(func(error) { p.metrics.degraded(DegradeOptimization) }),
		)
		sections, optReport = o.Optimize(ctx, sections, p.cfg.Optimization.Focus)
		p.metrics.observeStage(StateOptimizing, start)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.enter(r, StateRebalancing)
	sections = budget.Allocate(sections, req.WordCount)

	titles := draft.TitleOptions
	if len(titles) == 0 {
		titles = synthesize.FallbackTitles(req)
	}

	return &types.OutlineResult{
		TitleOptions:       titles,
		Sections:           sections,
		SourceMappingStats: mappingStats(sections),
		GroundingInsights:  report,
		OptimizationResults: types.OptimizationResults{
			QualityScore:     report.Quality.Score,
			ImprovementsMade: optReport.Improvements,
		},
		ResearchCoverage: researchCoverage(sections, report, bundle),
	}, nil
}
