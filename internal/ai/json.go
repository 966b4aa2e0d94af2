// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips Markdown fences and surrounding prose from a model
// response and returns the outermost JSON object. It fails with
// ErrMalformedResponse when no valid object is present.
func ExtractJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}
	content = content[start : end+1]

	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: invalid JSON in response", ErrMalformedResponse)
	}
	return json.RawMessage(content), nil
}
