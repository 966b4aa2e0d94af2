// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// Format is an export encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml", or "json".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want yaml or json)", s)
}

// Encode renders result in the given format. JSON output is indented and
// newline-terminated.
func Encode(result *types.OutlineResult, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling outline: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML, "":
		data, err := yaml.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshaling outline: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// Write encodes result to w.
func Write(w io.Writer, result *types.OutlineResult, format Format) error {
	data, err := Encode(result, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing outline: %w", err)
	}
	return nil
}

// WriteFile encodes result to path, creating parent directories.
func WriteFile(path string, result *types.OutlineResult, format Format) error {
	data, err := Encode(result, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
