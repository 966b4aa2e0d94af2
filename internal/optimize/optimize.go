// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package optimize refines an outline with one AI round-trip. Failure never
// costs the caller its outline: any problem returns the input unchanged.
package optimize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/internal/synthesize"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// ErrNoop marks an optimization pass that left the outline unchanged.
var ErrNoop = errors.New("outline optimization skipped")

// DefaultFocus is used when the caller gives no optimization focus.
const DefaultFocus = "improve logical flow, remove overlap between sections, and strengthen coverage of the primary keywords"

// Report describes what the pass did.
type Report struct {
	Applied      bool
	Improvements []string
}

// Optimizer asks an AI provider for an improved outline.
type Optimizer struct {
	provider ai.Provider
	logger   *zap.Logger
	onNoop   func(error)
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger for skipped passes.
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// WithNoopHook registers fn to be called with the reason whenever the pass
// leaves the outline unchanged. The error wraps ErrNoop.
func WithNoopHook(fn func(error)) Option {
	return func(o *Optimizer) { o.onNoop = fn }
}

// New returns an Optimizer backed by provider.
func New(provider ai.Provider, opts ...Option) *Optimizer {
	o := &Optimizer{provider: provider, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var optimizePromptTmpl = template.Must(template.New("optimize").Parse(`You are an editor improving a content outline.

Optimization focus: {{.Focus}}

Current outline:
{{range .Sections}}
{{.ID}}. {{.Heading}}
{{- range .Subheadings}}
   - {{.}}{{end}}
{{- with .Keywords}}
   keywords: {{range $i, $k := .}}{{if $i}}, {{end}}{{$k}}{{end}}{{end}}
{{end}}
Return the complete improved outline as an "outline" array in reading order. Each section needs heading, subheadings, keyPoints, targetWords, and keywords. Keep headings that need no change exactly as written.
Also return "improvements": a short list describing each change you made.
`))

// optimizeSchema is the outline schema plus the improvements list.
func optimizeSchema() ai.Schema {
	schema := synthesize.OutlineSchema(false)
	props := schema["properties"].(map[string]any)
	props["improvements"] = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return schema
}

// Optimize returns the improved outline, or a copy of sections when the
// provider fails or its answer is unusable. References carry over to
// replacement sections by heading (case-insensitive), and by position only
// when the section count is unchanged.
func (o *Optimizer) Optimize(ctx context.Context, sections []types.OutlineSection, focus string) ([]types.OutlineSection, Report) {
	if len(sections) == 0 {
		return o.noop(sections, errors.New("empty outline"))
	}
	if strings.TrimSpace(focus) == "" {
		focus = DefaultFocus
	}

	var buf bytes.Buffer
	if err := optimizePromptTmpl.Execute(&buf, struct {
		Focus    string
		Sections []types.OutlineSection
	}{focus, sections}); err != nil {
		return o.noop(sections, fmt.Errorf("rendering prompt: %w", err))
	}

	raw, err := o.provider.GenerateStructured(ctx, buf.String(), optimizeSchema())
	if err != nil {
		return o.noop(sections, err)
	}

	replacement, _, err := synthesize.ParseOutline(raw)
	if err != nil {
		return o.noop(sections, err)
	}

	improvements, err := parseImprovements(raw)
	if err != nil {
		o.logger.Debug("ignoring malformed optimization improvements", zap.Error(err))
	}

	carryReferences(replacement, sections)
	types.ResequenceIDs(replacement)
	return replacement, Report{Applied: true, Improvements: improvements}
}

// parseImprovements reads the optional "improvements" list. It always
// returns a non-nil slice; a value of the wrong type yields an empty list
// and an error.
func parseImprovements(raw json.RawMessage) ([]string, error) {
	improvements := []string{}
	var extra struct {
		Improvements json.RawMessage `json:"improvements"`
	}
	if err := json.Unmarshal(raw, &extra); err != nil {
		return improvements, fmt.Errorf("decoding response: %w", err)
	}
	if len(extra.Improvements) == 0 || string(extra.Improvements) == "null" {
		return improvements, nil
	}
	var list []string
	if err := json.Unmarshal(extra.Improvements, &list); err != nil {
		return improvements, fmt.Errorf("decoding improvements: %w", err)
	}
	for _, imp := range list {
		if imp = strings.TrimSpace(imp); imp != "" {
			improvements = append(improvements, imp)
		}
	}
	return improvements, nil
}

func (o *Optimizer) noop(sections []types.OutlineSection, cause error) ([]types.OutlineSection, Report) {
	err := fmt.Errorf("%w: %v", ErrNoop, cause)
	o.logger.Warn("outline optimization left outline unchanged", zap.Error(err))
	if o.onNoop != nil {
		o.onNoop(err)
	}
	return types.CloneSections(sections), Report{Improvements: []string{}}
}

// carryReferences copies references from the original sections onto the
// replacement: first by matching heading, then by position when both
// outlines have the same length. Other sections get no references.
func carryReferences(replacement, original []types.OutlineSection) {
	byHeading := make(map[string][]types.Reference, len(original))
	for _, s := range original {
		key := strings.ToLower(strings.TrimSpace(s.Heading))
		if _, ok := byHeading[key]; !ok {
			byHeading[key] = s.References
		}
	}
	for i := range replacement {
		refs, ok := byHeading[strings.ToLower(replacement[i].Heading)]
		if !ok && len(replacement) == len(original) {
			refs = original[i].References
		}
		replacement[i].References = append([]types.Reference{}, refs...)
	}
}
