package types

import "time"

// AIProviderName selects the AI provider implementation.
type AIProviderName string

const (
	ProviderClaude AIProviderName = "claude"
	ProviderOpenAI AIProviderName = "openai"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the implementation: claude or openai.
	Provider AIProviderName `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature passed to the provider.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the response length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout bounds a single provider round-trip.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SynthesisConfig holds settings for the outline synthesis stage.
type SynthesisConfig struct {
	// MaxAttempts is the total number of synthesis attempts (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryDelay is the fixed wait between attempts (default 5s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// MappingConfig holds settings for source relevance mapping.
type MappingConfig struct {
	// Validate enables the AI validation pass over the algorithmic mapping.
	Validate bool `json:"validate" yaml:"validate"`

	// ValidationTimeout bounds the validation round-trip (default 30s).
	ValidationTimeout time.Duration `json:"validation_timeout" yaml:"validation_timeout"`

	// MinConfidence is the judge confidence required to apply a
	// recommendation (default 0.6).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// OptimizationConfig holds settings for the outline optimization pass.
type OptimizationConfig struct {
	// Disabled skips the optimization round-trip. The pass runs by default.
	Disabled bool `json:"disabled" yaml:"disabled"`

	// Focus is the free-text optimization goal sent to the model.
	Focus string `json:"focus" yaml:"focus"`
}

// CacheBackend identifies the outline cache implementation.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheSQLite CacheBackend = "sqlite"
	CacheRedis  CacheBackend = "redis"
)

// CacheConfig holds settings for the outline cache.
type CacheConfig struct {
	// Backend selects memory, sqlite, or redis.
	Backend CacheBackend `json:"backend" yaml:"backend"`

	// Dir is the directory for the SQLite database (contains outlines.db).
	Dir string `json:"dir" yaml:"dir"`

	// RedisAddr is host:port or a redis:// URL.
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"`

	// RedisPassword is optional.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`

	// RedisDB selects the logical Redis database.
	RedisDB int `json:"redis_db" yaml:"redis_db"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	AI           AIConfig           `json:"ai" yaml:"ai"`
	Synthesis    SynthesisConfig    `json:"synthesis" yaml:"synthesis"`
	Mapping      MappingConfig      `json:"mapping" yaml:"mapping"`
	Optimization OptimizationConfig `json:"optimization" yaml:"optimization"`
	Cache        CacheConfig        `json:"cache" yaml:"cache"`
}
