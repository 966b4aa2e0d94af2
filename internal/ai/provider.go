// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai abstracts the Generative AI providers used by the outline
// pipeline. Stages depend only on the Provider interface; the concrete
// implementation is picked once from configuration.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// ErrOverloaded marks a transient provider failure (rate limiting,
// overload, or a 5xx gateway error). Retry policies key off this error.
var ErrOverloaded = errors.New("ai provider overloaded")

// ErrMalformedResponse marks a response that did not contain the JSON
// document the caller asked for.
var ErrMalformedResponse = errors.New("malformed ai response")

// Schema is a JSON Schema document describing the expected response.
type Schema map[string]any

// Provider is the AI surface the pipeline needs: one structured call that
// returns a JSON document and one free-text call.
type Provider interface {
	GenerateStructured(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrOverloaded)
}

const (
	defaultMaxTokens = 4096
	defaultTimeout   = 120 * time.Second
)

// New builds the provider selected by cfg.Provider.
func New(cfg types.AIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}
	switch cfg.Provider {
	case types.ProviderClaude, "":
		return NewClaude(cfg), nil
	case types.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q: use claude or openai", cfg.Provider)
	}
}

// structuredPrompt appends the response contract to a prompt for providers
// without native schema enforcement.
func structuredPrompt(prompt string, schema Schema) (string, error) {
	if len(schema) == 0 {
		return prompt + "\n\nRespond with a single JSON object and no other text.", nil
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling schema: %w", err)
	}
	return fmt.Sprintf("%s\n\nRespond with a single JSON object that conforms to this JSON Schema. Do not include any text outside the JSON object.\n\n%s", prompt, data), nil
}

// statusIsTransient reports whether an HTTP status means the provider is
// temporarily unable to serve the request.
func statusIsTransient(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504, 529:
		return true
	}
	return false
}
