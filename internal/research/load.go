// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research reads outline requests and research bundles from disk
// and writes finished outlines back out. Files ending in .json are decoded
// as JSON; everything else is read as YAML.
package research

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// LoadRequest reads an outline request file and validates it.
func LoadRequest(path string) (*types.OutlineRequest, error) {
	var req types.OutlineRequest
	if err := decodeFile(path, &req); err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("request %s: %w", filepath.Base(path), err)
	}
	return &req, nil
}

// LoadBundle reads a research bundle file. An empty file yields an empty
// bundle; the pipeline treats that as research without sources or grounding.
func LoadBundle(path string) (*types.ResearchBundle, error) {
	var bundle types.ResearchBundle
	if err := decodeFile(path, &bundle); err != nil {
		return nil, fmt.Errorf("loading bundle: %w", err)
	}
	return &bundle, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if isJSON(path) {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
