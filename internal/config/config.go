package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	CORSOrigins      string
	ProgressCacheTTL time.Duration
	RateLimitPerMin  int
	AI               AIConfig
	Safety           SafetyConfig
}

// AIConfig selects and tunes the evaluation model.
type AIConfig struct {
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	BaseURL         string
	Model           string
	MaxTokens       int
	Temperature     float32
	Timeout         time.Duration
}

// APIKey returns the key for the selected provider.
func (c AIConfig) APIKey() string {
	if c.Provider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// SafetyConfig overrides the input sanitizer ceilings and content gate.
type SafetyConfig struct {
	MaxEssayLength      int
	MaxPromptLength     int
	MinWords            int
	MaxWords            int
	MaxSpecialCharRatio float64
	MinUniqueRatio      float64
	RepetitionMinWords  int
}

// Limits converts the configuration into guard limits.
func (c SafetyConfig) Limits() safety.Limits {
	return safety.Limits{
		MaxEssayLength:  c.MaxEssayLength,
		MaxPromptLength: c.MaxPromptLength,
		Content: safety.ContentLimits{
			MinWords:            c.MinWords,
			MaxWords:            c.MaxWords,
			MaxSpecialCharRatio: c.MaxSpecialCharRatio,
			MinUniqueRatio:      c.MinUniqueRatio,
			RepetitionMinWords:  c.RepetitionMinWords,
		},
	}
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("IELTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "IELTS Prep API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("progress.cache_ttl", "5m")
	v.SetDefault("rate_limit.per_minute", 10)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.max_tokens", 1500)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.timeout", "60s")

	defaults := safety.DefaultLimits()
	v.SetDefault("safety.max_essay_length", defaults.MaxEssayLength)
	v.SetDefault("safety.max_prompt_length", defaults.MaxPromptLength)
	v.SetDefault("safety.min_words", defaults.Content.MinWords)
	v.SetDefault("safety.max_words", defaults.Content.MaxWords)
	v.SetDefault("safety.max_special_char_ratio", defaults.Content.MaxSpecialCharRatio)
	v.SetDefault("safety.min_unique_ratio", defaults.Content.MinUniqueRatio)
	v.SetDefault("safety.repetition_min_words", defaults.Content.RepetitionMinWords)

	ttl, err := time.ParseDuration(v.GetString("progress.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	timeout, err := time.ParseDuration(v.GetString("ai.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		CORSOrigins:      v.GetString("cors.origins"),
		ProgressCacheTTL: ttl,
		RateLimitPerMin:  v.GetInt("rate_limit.per_minute"),
		AI: AIConfig{
			Provider:        strings.ToLower(v.GetString("ai.provider")),
			OpenAIAPIKey:    v.GetString("openai_api_key"),
			AnthropicAPIKey: v.GetString("anthropic_api_key"),
			BaseURL:         v.GetString("ai.base_url"),
			Model:           v.GetString("ai.model"),
			MaxTokens:       v.GetInt("ai.max_tokens"),
			Temperature:     float32(v.GetFloat64("ai.temperature")),
			Timeout:         timeout,
		},
		Safety: SafetyConfig{
			MaxEssayLength:      v.GetInt("safety.max_essay_length"),
			MaxPromptLength:     v.GetInt("safety.max_prompt_length"),
			MinWords:            v.GetInt("safety.min_words"),
			MaxWords:            v.GetInt("safety.max_words"),
			MaxSpecialCharRatio: v.GetFloat64("safety.max_special_char_ratio"),
			MinUniqueRatio:      v.GetFloat64("safety.min_unique_ratio"),
			RepetitionMinWords:  v.GetInt("safety.repetition_min_words"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AI.Provider != "openai" && cfg.AI.Provider != "anthropic" {
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AI.Provider)
	}

	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 10
	}

	if cfg.Safety.MinWords > cfg.Safety.MaxWords {
		return Config{}, fmt.Errorf("safety min words (%d) exceeds max words (%d)", cfg.Safety.MinWords, cfg.Safety.MaxWords)
	}

	return cfg, nil
}
