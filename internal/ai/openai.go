// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/outline-engine/pkg/types"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI calls the Chat Completions API through the official SDK. SDK-level
// retries are disabled so the pipeline's retry policy is the only one.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAI builds an OpenAI provider. Extra options (such as a base URL
// for tests) are appended after the defaults.
func NewOpenAI(cfg types.AIConfig, opts ...option.RequestOption) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	return &OpenAI{
		client:      openai.NewClient(append(base, opts...)...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// GenerateStructured asks the model for a JSON document matching schema.
func (o *OpenAI) GenerateStructured(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	full, err := structuredPrompt(prompt, schema)
	if err != nil {
		return nil, err
	}
	text, err := o.GenerateText(ctx, full)
	if err != nil {
		return nil, err
	}
	return ExtractJSON(text)
}

// GenerateText sends a single user message and returns the first choice.
func (o *OpenAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.temperature),
		MaxTokens:   openai.Int(int64(o.maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && statusIsTransient(apiErr.StatusCode) {
			return "", fmt.Errorf("%w: openai API returned %d: %v", ErrOverloaded, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in openai response", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
