// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/outline-engine/internal/secrets"
	"github.com/pdiddy/outline-engine/pkg/types"
)

const defaultCacheBackend = types.CacheSQLite

// bindFlags binds each flag name to its viper key so config file and
// OUTLINE_ENGINE_* environment values fill in flags left unset.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

// cacheConfig reads the outline cache settings.
func cacheConfig() types.CacheConfig {
	cfg := types.CacheConfig{
		Backend:   types.CacheBackend(viper.GetString("cache.backend")),
		Dir:       viper.GetString("cache.dir"),
		RedisAddr: viper.GetString("cache.redis_addr"),
		RedisDB:   viper.GetInt("cache.redis_db"),
	}
	if pw, ok := secrets.Lookup(loadedSecrets, secrets.RedisPassword); ok {
		cfg.RedisPassword = pw
	}
	return cfg
}

// pipelineConfig reads every stage setting. The API key comes from
// .secrets/ or the provider's environment variable.
func pipelineConfig() (types.PipelineConfig, error) {
	provider := viper.GetString("ai.provider")
	key, ok := secrets.ProviderKey(loadedSecrets, provider)
	if !ok {
		return types.PipelineConfig{}, fmt.Errorf("no API key for provider %q: add one to %s", orClaude(provider), viper.GetString("secrets-dir"))
	}

	return types.PipelineConfig{
		AI: types.AIConfig{
			Provider:    types.AIProviderName(provider),
			Model:       viper.GetString("ai.model"),
			APIKey:      key,
			Temperature: viper.GetFloat64("ai.temperature"),
			MaxTokens:   viper.GetInt("ai.max_tokens"),
			Timeout:     viper.GetDuration("ai.timeout"),
		},
		Synthesis: types.SynthesisConfig{
			MaxAttempts: viper.GetInt("synthesis.max_attempts"),
			RetryDelay:  viper.GetDuration("synthesis.retry_delay"),
		},
		Mapping: types.MappingConfig{
			Validate:          viper.GetBool("mapping.validate"),
			ValidationTimeout: viper.GetDuration("mapping.validation_timeout"),
			MinConfidence:     viper.GetFloat64("mapping.min_confidence"),
		},
		Optimization: types.OptimizationConfig{
			Disabled: viper.GetBool("optimization.disabled"),
			Focus:    viper.GetString("optimization.focus"),
		},
		Cache: cacheConfig(),
	}, nil
}

func orClaude(provider string) string {
	if provider == "" {
		return string(types.ProviderClaude)
	}
	return provider
}
