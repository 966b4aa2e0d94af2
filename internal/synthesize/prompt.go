// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// outlinePromptTmpl turns the request and research bundle into the synthesis
// prompt. Empty keyword groups are omitted.
var outlinePromptTmpl = template.Must(template.New("outline").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).Parse(`You are a senior content strategist. Build a structured outline for an article about {{join .Request.Keywords}}.

Industry: {{.Industry}}
Target audience: {{.Audience}}
Target length: {{.Request.WordCount}} words
{{with .Keywords}}
Keyword research:
{{- with .Primary}}
- Primary keywords: {{join .}}{{end}}
{{- with .Secondary}}
- Secondary keywords: {{join .}}{{end}}
{{- with .LongTail}}
- Long-tail keywords: {{join .}}{{end}}
{{- with .Semantic}}
- Semantic keywords: {{join .}}{{end}}
{{- with .Trending}}
- Trending keywords: {{join .}}{{end}}
{{- with .SearchIntent}}
- Search intent: {{.}}{{end}}
{{end}}
{{- with .Angles}}
Content angles to consider:
{{- range .}}
- {{.}}{{end}}
{{end}}
{{- with .Competitors}}
Competitor intelligence:
{{- with .TopCompetitors}}
- Top competitors: {{join .}}{{end}}
{{- with .Strengths}}
- Competitor strengths: {{join .}}{{end}}
{{- with .ContentGaps}}
- Gaps in competing content: {{join .}}{{end}}
{{- with .Opportunities}}
- Opportunities: {{join .}}{{end}}
{{end}}
{{- with .Gaps}}
Keyword content gaps: {{join .}}
{{end}}
{{- with .Request.CustomInstructions}}
Additional instructions from the author:
{{.}}
{{end}}
Return an "outline" array of sections in reading order. Each section needs:
- heading: the section title
- subheadings: 2-4 subtopics
- keyPoints: 2-5 claims or facts the section must make
- targetWords: suggested word count for the section
- keywords: the keywords this section targets

Also return "titleOptions": 3-5 candidate article titles.
`))

type promptData struct {
	Request     types.OutlineRequest
	Industry    string
	Audience    string
	Keywords    *types.KeywordAnalysis
	Angles      []string
	Competitors *types.CompetitorAnalysis
	Gaps        []string
}

// BuildPrompt renders the synthesis prompt for a request and its research.
func BuildPrompt(req types.OutlineRequest, bundle *types.ResearchBundle) (string, error) {
	data := promptData{
		Request:  req,
		Industry: orDefault(req.Industry, "general"),
		Audience: orDefault(req.Audience, "general readers"),
	}
	if bundle != nil {
		if len(bundle.KeywordAnalysis.AllKeywords()) > 0 || bundle.KeywordAnalysis.SearchIntent != "" {
			ka := bundle.KeywordAnalysis
			data.Keywords = &ka
		}
		data.Angles = bundle.SuggestedAngles
		ca := bundle.CompetitorAnalysis
		if len(ca.TopCompetitors)+len(ca.Strengths)+len(ca.ContentGaps)+len(ca.Opportunities) > 0 {
			data.Competitors = &ca
		}
		data.Gaps = bundle.KeywordAnalysis.ContentGaps
	}

	var buf bytes.Buffer
	if err := outlinePromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering outline prompt: %w", err)
	}
	return buf.String(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// sectionSchema describes one outline entry in the response.
var sectionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"heading":     map[string]any{"type": "string"},
		"subheadings": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"keyPoints":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"targetWords": map[string]any{"type": "integer"},
		"keywords":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"heading", "subheadings", "keyPoints", "targetWords", "keywords"},
}

// OutlineSchema returns the response schema for outline generation. The
// optimizer reuses it without the title options.
func OutlineSchema(withTitles bool) ai.Schema {
	props := map[string]any{
		"outline": map[string]any{"type": "array", "items": sectionSchema},
	}
	if withTitles {
		props["titleOptions"] = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	}
	return ai.Schema{
		"type":       "object",
		"properties": props,
		"required":   []string{"outline"},
	}
}
