// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/outline-engine/internal/grounding"
	"github.com/pdiddy/outline-engine/internal/mapping"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// runParallel maps sources to sections and extracts grounding insights
// concurrently, then joins. Both branches only read sections and bundle;
// each writes its own result variable. The returned error is non-nil only
// when ctx was cancelled.
func (p *Pipeline) runParallel(ctx context.Context, r *run, sections []types.OutlineSection, bundle *types.ResearchBundle, req types.OutlineRequest) (mapping.Result, types.InsightReport, error) {
	var (
		mapped mapping.Result
		report types.InsightReport
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.enter(r, StateMapping)
		start := time.Now()
		mapped = mapping.NewMapper(mapping.WithIndustry(req.Industry)).Map(sections, bundle)
		if p.cfg.Mapping.Validate {
			v := mapping.NewValidator(p.provider, p.cfg.Mapping,
				mapping.WithLogger(r.logger),
				mapping.WithDegradationHook(func(mapping.Degradation) { p.metrics.degraded(DegradeMappingValidation) }),
			)
			mapped = v.Validate(gctx, sections, bundle, mapped)
		}
		p.metrics.observeStage(StateMapping, start)
		return ctx.Err()
	})

	g.Go(func() error {
		p.enter(r, StateGrounding)
		start := time.Now()
		report = grounding.Extract(bundle)
		p.metrics.observeStage(StateGrounding, start)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, types.InsightReport{}, err
	}
	return mapped, report, nil
}
