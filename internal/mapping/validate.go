// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/pkg/types"
)

const (
	defaultValidationTimeout = 30 * time.Second
	defaultMinConfidence     = 0.6
	excerptLimit             = 240
)

// Degradation records a validation problem that was absorbed by keeping
// the algorithmic mapping. SectionID is empty when the whole pass was
// discarded.
type Degradation struct {
	SectionID string
	Reason    string
	Err       error
}

func (d Degradation) Error() string {
	msg := "mapping validation degraded"
	if d.SectionID != "" {
		msg += " for section " + d.SectionID
	}
	msg += ": " + d.Reason
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

func (d Degradation) Unwrap() error { return d.Err }

// Validator asks an AI judge to confirm or replace the algorithmic mapping.
type Validator struct {
	provider      ai.Provider
	timeout       time.Duration
	minConfidence float64
	logger        *zap.Logger
	onDegrade     func(Degradation)
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLogger sets the logger for degradations.
func WithLogger(l *zap.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = l }
}

// WithDegradationHook registers fn to be called for every degradation.
func WithDegradationHook(fn func(Degradation)) ValidatorOption {
	return func(v *Validator) { v.onDegrade = fn }
}

// NewValidator returns a Validator. Zero timeout and confidence values use
// 30s and 0.6.
func NewValidator(provider ai.Provider, cfg types.MappingConfig, opts ...ValidatorOption) *Validator {
	v := &Validator{
		provider:      provider,
		timeout:       cfg.ValidationTimeout,
		minConfidence: cfg.MinConfidence,
		logger:        zap.NewNop(),
	}
	if v.timeout <= 0 {
		v.timeout = defaultValidationTimeout
	}
	if v.minConfidence <= 0 {
		v.minConfidence = defaultMinConfidence
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var validationPromptTmpl = template.Must(template.New("validation").Parse(`You are reviewing which research sources support each section of a content outline.

Outline sections with their current sources and relevance scores:
{{range .Sections}}
[{{.ID}}] {{.Heading}}
{{- range .Matches}}
  - {{.Source.Title}} ({{printf "%.2f" .Score}}){{end}}
{{- if not .Matches}}
  - (no sources mapped){{end}}
{{end}}
Source catalogue:
{{range .Sources}}
- {{.Title}}{{with .Excerpt}}: {{.}}{{end}}{{end}}

For every section, recommend up to 3 sources from the catalogue that best support it, best first. Use catalogue titles exactly as written.
Respond with {"sections": [{"id": "s1", "recommendedTitles": ["..."], "confidence": 0.0}]} where confidence is between 0 and 1.
`))

type validationSection struct {
	ID      string
	Heading string
	Matches []Match
}

// validationResponse is the judge's structured answer.
type validationResponse struct {
	Sections *[]validationEntry `json:"sections"`
}

type validationEntry struct {
	ID                string   `json:"id"`
	RecommendedTitles []string `json:"recommendedTitles"`
	Confidence        float64  `json:"confidence"`
}

var validationSchema = ai.Schema{
	"type": "object",
	"properties": map[string]any{
		"sections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":                map[string]any{"type": "string"},
					"recommendedTitles": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"confidence":        map[string]any{"type": "number"},
				},
				"required": []string{"id", "recommendedTitles", "confidence"},
			},
		},
	},
	"required": []string{"sections"},
}

// Validate returns result refined by the AI judge. A section's matches are
// replaced only when every recommended title names a catalogue source and
// the judge's confidence reaches the configured minimum. Any failure keeps
// the algorithmic matches; failures are logged, never returned. The input
// result is not modified.
func (v *Validator) Validate(ctx context.Context, sections []types.OutlineSection, bundle *types.ResearchBundle, result Result) Result {
	out := result.Clone()
	if bundle == nil || len(bundle.Sources) == 0 || len(sections) == 0 {
		return out
	}

	prompt, err := renderValidationPrompt(sections, bundle, result)
	if err != nil {
		v.degrade(Degradation{Reason: "rendering prompt", Err: err})
		return out
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	raw, err := v.provider.GenerateStructured(callCtx, prompt, validationSchema)
	if err != nil {
		reason := "provider error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timed out"
		}
		v.degrade(Degradation{Reason: reason, Err: err})
		return out
	}

	var resp validationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		v.degrade(Degradation{Reason: "unparsable response", Err: err})
		return out
	}
	if resp.Sections == nil {
		v.degrade(Degradation{Reason: `response has no "sections" array`})
		return out
	}

	for _, entry := range *resp.Sections {
		if _, ok := out[entry.ID]; !ok {
			v.degrade(Degradation{SectionID: entry.ID, Reason: "unknown section id"})
			continue
		}
		if len(entry.RecommendedTitles) == 0 {
			continue
		}
		if entry.Confidence < v.minConfidence {
			v.logger.Debug("judge confidence below threshold, keeping algorithmic mapping",
				zap.String("section", entry.ID),
				zap.Float64("confidence", entry.Confidence),
				zap.Float64("min_confidence", v.minConfidence))
			continue
		}
		matches, missing := resolveTitles(entry, bundle.Sources)
		if missing != "" {
			v.degrade(Degradation{SectionID: entry.ID, Reason: fmt.Sprintf("recommended title %q not in catalogue", missing)})
			continue
		}
		out[entry.ID] = matches
	}
	return out
}

// resolveTitles joins recommended titles to catalogue sources (first match
// wins). It returns the first title that has no catalogue entry, if any.
func resolveTitles(entry validationEntry, sources []types.Source) ([]Match, string) {
	matches := make([]Match, 0, types.MaxReferences)
	seen := map[string]bool{}
	for _, title := range entry.RecommendedTitles {
		idx := -1
		for i, src := range sources {
			if src.Title == title {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, title
		}
		if seen[title] || len(matches) == types.MaxReferences {
			continue
		}
		seen[title] = true
		matches = append(matches, Match{Source: sources[idx], Score: clamp01(entry.Confidence), Validated: true})
	}
	return matches, ""
}

func (v *Validator) degrade(d Degradation) {
	v.logger.Warn("source mapping validation degraded",
		zap.String("section", d.SectionID),
		zap.String("reason", d.Reason),
		zap.Error(d.Err))
	if v.onDegrade != nil {
		v.onDegrade(d)
	}
}

func renderValidationPrompt(sections []types.OutlineSection, bundle *types.ResearchBundle, result Result) (string, error) {
	data := struct {
		Sections []validationSection
		Sources  []types.Source
	}{}
	for _, s := range sections {
		data.Sections = append(data.Sections, validationSection{ID: s.ID, Heading: s.Heading, Matches: result[s.ID]})
	}
	for _, src := range bundle.Sources {
		src.Excerpt = truncate(strings.Join(strings.Fields(src.Excerpt), " "), excerptLimit)
		data.Sources = append(data.Sources, src)
	}

	var buf bytes.Buffer
	if err := validationPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}
