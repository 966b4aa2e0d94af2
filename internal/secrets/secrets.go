// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files: anthropic-api-key, openai-api-key, redis-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Key file names.
const (
	AnthropicAPIKey = "anthropic-api-key"
	OpenAIAPIKey    = "openai-api-key"
	RedisPassword   = "redis-password"
)

// envFallback maps each key file to the environment variable consulted
// when the file is absent.
var envFallback = map[string]string{
	AnthropicAPIKey: "ANTHROPIC_API_KEY",
	OpenAIAPIKey:    "OPENAI_API_KEY",
	RedisPassword:   "REDIS_PASSWORD",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Lookup returns the secret stored under key, falling back to the key's
// environment variable. The second result is false when neither is set.
func Lookup(secrets map[string]string, key string) (string, bool) {
	if v := secrets[key]; v != "" {
		return v, true
	}
	if env, ok := envFallback[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, true
		}
	}
	return "", false
}

// ProviderKey returns the API key for the named AI provider.
func ProviderKey(secrets map[string]string, provider string) (string, bool) {
	if provider == "openai" {
		return Lookup(secrets, OpenAIAPIKey)
	}
	return Lookup(secrets, AnthropicAPIKey)
}
