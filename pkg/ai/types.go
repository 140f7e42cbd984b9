package ai

import (
	"context"
	"errors"

	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

// Modules an evaluator can assess.
const (
	ModuleWriting  = "writing"
	ModuleSpeaking = "speaking"
)

var (
	// ErrInvalidResponse wraps the safety error when a reply fails parsing or schema validation.
	ErrInvalidResponse = errors.New("ai response failed validation")
	// ErrEmptyResponse indicates the provider returned no choices or blank content.
	ErrEmptyResponse = errors.New("ai response was empty")
	// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrUnsupportedModule is returned for modules other than writing and speaking.
	ErrUnsupportedModule = errors.New("unsupported evaluation module")
)

// EvaluationInput carries already-sanitized text for one assessment.
type EvaluationInput struct {
	Module          string
	TaskType        string
	Question        string
	Response        string
	WordCount       int
	DurationSeconds int
}

// Usage reports token consumption for a single evaluation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EvaluationResult holds exactly one validated evaluation, matching the input module.
type EvaluationResult struct {
	Writing  *safety.WritingEvaluation
	Speaking *safety.SpeakingEvaluation
	Model    string
	Usage    Usage
}

// OverallBand returns the overall band of whichever evaluation is set.
func (r EvaluationResult) OverallBand() float64 {
	switch {
	case r.Writing != nil:
		return r.Writing.OverallBand
	case r.Speaking != nil:
		return r.Speaking.OverallBand
	default:
		return 0
	}
}

// CriterionBands returns per-criterion bands of whichever evaluation is set.
func (r EvaluationResult) CriterionBands() map[string]float64 {
	switch {
	case r.Writing != nil:
		return r.Writing.CriterionBands()
	case r.Speaking != nil:
		return r.Speaking.CriterionBands()
	default:
		return nil
	}
}

// Evaluator describes an AI model capable of grading IELTS responses.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (EvaluationResult, error)
	Provider() string
}
