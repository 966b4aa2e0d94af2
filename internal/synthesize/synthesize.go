// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize turns a research bundle into a draft outline with one
// AI round-trip under a bounded retry policy.
package synthesize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/internal/retry"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// GenerationError means synthesis failed for good: retries ran out or the
// provider returned an error that is not worth retrying. It aborts the
// pipeline and is the only stage error a caller sees.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("outline generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationError means the provider answered but the answer was not a
// usable outline. Synthesis retries these.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid outline response: %s: %v", e.Reason, e.Err)
	}
	return "invalid outline response: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Draft is the synthesized outline before mapping and enhancement.
type Draft struct {
	Sections     []types.OutlineSection
	TitleOptions []string
}

// Synthesizer produces draft outlines.
type Synthesizer struct {
	provider ai.Provider
	cfg      types.SynthesisConfig
	logger   *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// New returns a Synthesizer backed by provider.
func New(provider ai.Provider, cfg types.SynthesisConfig, opts ...Option) *Synthesizer {
	s := &Synthesizer{provider: provider, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize asks the provider for an outline matching schema. Transient
// provider errors and malformed responses are retried; anything else, or
// running out of attempts, yields a *GenerationError. Cancellation of ctx
// is returned unwrapped.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string, schema ai.Schema) (*Draft, error) {
	attempts := 0
	policy := retry.Policy{
		MaxAttempts: s.cfg.MaxAttempts,
		Delay:       s.cfg.RetryDelay,
		IsTransient: isRetryable,
		OnRetry: func(attempt int, err error) {
			s.logger.Warn("outline synthesis attempt failed, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
		},
	}

	draft, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (*Draft, error) {
		attempts = attempt
		raw, err := s.provider.GenerateStructured(ctx, prompt, schema)
		if err != nil {
			if errors.Is(err, ai.ErrMalformedResponse) {
				return nil, &ValidationError{Reason: "unparsable response", Err: err}
			}
			return nil, err
		}
		return parseDraft(raw)
	})
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, err
		}
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, &GenerationError{Attempts: exhausted.Attempts, Err: exhausted.Err}
		}
		return nil, &GenerationError{Attempts: attempts, Err: err}
	}
	return draft, nil
}

func isRetryable(err error) bool {
	var verr *ValidationError
	return ai.IsTransient(err) || errors.As(err, &verr)
}

// outlineResponse is the structured response expected from the provider.
type outlineResponse struct {
	Outline      *[]rawSection `json:"outline"`
	TitleOptions []string      `json:"titleOptions"`
}

type rawSection struct {
	Heading     string   `json:"heading"`
	Subheadings []string `json:"subheadings"`
	KeyPoints   []string `json:"keyPoints"`
	TargetWords int      `json:"targetWords"`
	Keywords    []string `json:"keywords"`
}

// ParseOutline decodes an outline response. It drops entries without a
// heading and assigns IDs s1..sN. A missing outline array, or one with no
// usable entries, is a *ValidationError.
func ParseOutline(raw json.RawMessage) ([]types.OutlineSection, []string, error) {
	var resp outlineResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, nil, &ValidationError{Reason: "decoding outline", Err: err}
	}
	if resp.Outline == nil {
		return nil, nil, &ValidationError{Reason: `missing "outline" array`}
	}

	sections := make([]types.OutlineSection, 0, len(*resp.Outline))
	for _, rs := range *resp.Outline {
		heading := strings.TrimSpace(rs.Heading)
		if heading == "" {
			continue
		}
		sections = append(sections, types.OutlineSection{
			Heading:     heading,
			Subheadings: nonEmpty(rs.Subheadings),
			KeyPoints:   nonEmpty(rs.KeyPoints),
			TargetWords: max(rs.TargetWords, 0),
			Keywords:    nonEmpty(rs.Keywords),
		})
	}
	if len(sections) == 0 {
		return nil, nil, &ValidationError{Reason: "outline has no sections with a heading"}
	}
	types.ResequenceIDs(sections)
	return sections, nonEmpty(resp.TitleOptions), nil
}

func parseDraft(raw json.RawMessage) (*Draft, error) {
	sections, titles, err := ParseOutline(raw)
	if err != nil {
		return nil, err
	}
	return &Draft{Sections: sections, TitleOptions: titles}, nil
}

// nonEmpty trims each entry and drops blanks. It always returns a non-nil
// slice so encoded outlines show [] rather than null.
func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
