// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// mappingStats summarizes the references attached to the final sections.
func mappingStats(sections []types.OutlineSection) types.SourceMappingStats {
	var st types.SourceMappingStats
	covered := 0
	sum := 0.0
	for _, s := range sections {
		if len(s.References) > 0 {
			covered++
		}
		for _, ref := range s.References {
			st.TotalMapped++
			sum += ref.RelevanceScore
			if ref.RelevanceScore >= types.HighConfidenceScore {
				st.HighConfidenceCount++
			}
		}
	}
	if len(sections) > 0 {
		st.CoveragePercent = float64(covered) / float64(len(sections)) * 100
	}
	if st.TotalMapped > 0 {
		st.AvgRelevance = sum / float64(st.TotalMapped)
	}
	return st
}

// researchCoverage reports how much of the research the outline uses.
func researchCoverage(sections []types.OutlineSection, report types.InsightReport, bundle *types.ResearchBundle) types.ResearchCoverage {
	used := map[string]bool{}
	for _, s := range sections {
		for _, ref := range s.References {
			id := ref.URL
			if id == "" {
				id = ref.Title
			}
			used[id] = true
		}
	}

	cov := types.ResearchCoverage{
		SourcesUtilized:       len(used),
		GapsIdentified:        len(report.Relationships.ContentGaps),
		CompetitiveAdvantages: []string{},
	}
	if bundle == nil {
		return cov
	}
	cov.GapsIdentified += len(bundle.KeywordAnalysis.ContentGaps)

	seen := map[string]bool{}
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" && !seen[strings.ToLower(s)] {
			seen[strings.ToLower(s)] = true
			cov.CompetitiveAdvantages = append(cov.CompetitiveAdvantages, s)
		}
	}
	for _, opp := range bundle.CompetitorAnalysis.Opportunities {
		add(opp)
	}

	outlineText := strings.ToLower(outlineText(sections))
	gaps := append([]string{}, bundle.KeywordAnalysis.ContentGaps...)
	gaps = append(gaps, bundle.CompetitorAnalysis.ContentGaps...)
	for _, gap := range gaps {
		if g := strings.ToLower(strings.TrimSpace(gap)); g != "" && strings.Contains(outlineText, g) {
			add("Covers gap: " + strings.TrimSpace(gap))
		}
	}
	return cov
}

func outlineText(sections []types.OutlineSection) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.Heading)
		b.WriteByte('\n')
		for _, group := range [][]string{s.Subheadings, s.KeyPoints, s.Keywords} {
			for _, item := range group {
				b.WriteString(item)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}
