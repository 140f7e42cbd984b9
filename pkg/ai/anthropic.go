package ai

import "fmt"

const (
	anthropicBaseURL      = "https://api.anthropic.com/v1/"
	defaultAnthropicModel = "claude-sonnet-4-5"
)

// NewAnthropicEvaluator builds an evaluator that talks to Anthropic through its
// OpenAI-compatible chat completions endpoint. That endpoint ignores
// response_format, so replies are validated the same way but JSON mode is off.
func NewAnthropicEvaluator(cfg ChatConfig) (*ChatEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	cfg.Provider = ProviderAnthropic
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	cfg.JSONMode = false
	return NewChatEvaluator(NewChatClient(cfg.APIKey, cfg.BaseURL), cfg)
}
