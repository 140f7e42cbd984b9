package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultMaxTokens   = 1500
	defaultTimeout     = 60 * time.Second
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ielts",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
	}, []string{"provider", "model", "module"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of AI evaluation failures",
	}, []string{"provider", "model", "reason"})

	aiTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Subsystem: "ai",
		Name:      "tokens_total",
		Help:      "Tokens consumed by AI evaluations",
	}, []string{"provider", "model", "kind"})
)

// ChatCompleter is the subset of the go-openai client used by ChatEvaluator.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatConfig defines configuration options for a chat-completion evaluator.
type ChatConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	JSONMode    bool
	Logger      zerolog.Logger
}

// ChatEvaluator implements Evaluator against any OpenAI-compatible chat completion API.
type ChatEvaluator struct {
	client ChatCompleter
	cfg    ChatConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewChatClient builds a go-openai client, pointing it at baseURL when set.
func NewChatClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}

// NewOpenAIEvaluator builds an evaluator backed by the OpenAI API.
func NewOpenAIEvaluator(cfg ChatConfig) (*ChatEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	cfg.Provider = ProviderOpenAI
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	cfg.JSONMode = true
	return NewChatEvaluator(NewChatClient(cfg.APIKey, cfg.BaseURL), cfg)
}

// NewEvaluator picks the constructor matching cfg.Provider.
func NewEvaluator(cfg ChatConfig) (*ChatEvaluator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIEvaluator(cfg)
	case ProviderAnthropic:
		return NewAnthropicEvaluator(cfg)
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

// NewChatEvaluator wires an evaluator around an existing client.
func NewChatEvaluator(client ChatCompleter, cfg ChatConfig) (*ChatEvaluator, error) {
	if client == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &ChatEvaluator{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/ielts-prep-api/pkg/ai"),
		logger: cfg.Logger.With().Str("component", "ai_evaluator").Str("provider", cfg.Provider).Logger(),
	}, nil
}

// Provider returns the configured provider name.
func (e *ChatEvaluator) Provider() string {
	return e.cfg.Provider
}

// Evaluate sends the framed submission to the model and validates the reply.
func (e *ChatEvaluator) Evaluate(parent context.Context, input EvaluationInput) (EvaluationResult, error) {
	if input.Module != ModuleWriting && input.Module != ModuleSpeaking {
		return EvaluationResult{}, fmt.Errorf("%w: %q", ErrUnsupportedModule, input.Module)
	}

	ctx, span := e.tracer.Start(parent, "ai.evaluate", trace.WithAttributes(
		attribute.String("ai.provider", e.cfg.Provider),
		attribute.String("ai.model", e.cfg.Model),
		attribute.String("ielts.module", input.Module),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, e.buildRequest(input))
	aiDuration.WithLabelValues(e.cfg.Provider, e.cfg.Model, input.Module).Observe(time.Since(start).Seconds())
	if err != nil {
		if isQuotaError(err) {
			return EvaluationResult{}, e.fail(span, "quota", fmt.Errorf("%w: %v", ErrQuotaExceeded, err))
		}
		return EvaluationResult{}, e.fail(span, "request", fmt.Errorf("%s evaluate: %w", e.cfg.Provider, err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return EvaluationResult{}, e.fail(span, "empty", ErrEmptyResponse)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	aiTokens.WithLabelValues(e.cfg.Provider, e.cfg.Model, "prompt").Add(float64(usage.PromptTokens))
	aiTokens.WithLabelValues(e.cfg.Provider, e.cfg.Model, "completion").Add(float64(usage.CompletionTokens))

	result := EvaluationResult{Model: e.cfg.Model, Usage: usage}
	if resp.Model != "" {
		result.Model = resp.Model
	}

	content := resp.Choices[0].Message.Content
	switch input.Module {
	case ModuleSpeaking:
		evaluation, err := safety.ParseSpeakingEvaluation(content)
		if err != nil {
			return EvaluationResult{}, e.fail(span, "invalid", fmt.Errorf("%w: %w", ErrInvalidResponse, err))
		}
		result.Speaking = &evaluation
	default:
		evaluation, err := safety.ParseWritingEvaluation(content)
		if err != nil {
			return EvaluationResult{}, e.fail(span, "invalid", fmt.Errorf("%w: %w", ErrInvalidResponse, err))
		}
		result.Writing = &evaluation
	}

	span.SetAttributes(
		attribute.Float64("ielts.overall_band", result.OverallBand()),
		attribute.Int("ai.total_tokens", usage.TotalTokens),
	)
	return result, nil
}

func (e *ChatEvaluator) buildRequest(input EvaluationInput) openai.ChatCompletionRequest {
	request := openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(input.Module)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(input)},
		},
	}
	if e.cfg.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	// Reasoning models (o1/o3/o4/gpt-5*) reject MaxTokens.
	if isReasoningModel(e.cfg.Model) {
		request.MaxCompletionTokens = e.cfg.MaxTokens
		request.Temperature = 0
	} else {
		request.MaxTokens = e.cfg.MaxTokens
	}
	return request
}

func (e *ChatEvaluator) fail(span trace.Span, reason string, err error) error {
	aiFailures.WithLabelValues(e.cfg.Provider, e.cfg.Model, reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	e.logger.Error().Err(err).Str("model", e.cfg.Model).Str("reason", reason).Msg("ai evaluation failed")
	return err
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	return errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests
}
