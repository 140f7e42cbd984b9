package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/ielts-prep-api/internal/models"
	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

// WritingEvaluationRequest is the payload for POST /writing/evaluations.
type WritingEvaluationRequest struct {
	PromptID uint   `json:"prompt_id" validate:"required,gt=0"`
	Essay    string `json:"essay" validate:"required,max=20000"`
}

// SpeakingEvaluationRequest is the payload for POST /speaking/evaluations.
type SpeakingEvaluationRequest struct {
	PromptID        uint   `json:"prompt_id" validate:"required,gt=0"`
	Transcript      string `json:"transcript" validate:"required,max=20000"`
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,gte=0,lte=3600"`
}

// HistoryQuery captures evaluation history filters.
type HistoryQuery struct {
	Module   string `query:"module" validate:"omitempty,oneof=writing speaking"`
	Status   string `query:"status" validate:"omitempty,oneof=pending evaluated failed"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// EvaluationResponse is the detailed view of one evaluation session.
type EvaluationResponse struct {
	ID          uint                       `json:"id"`
	PromptID    uint                       `json:"prompt_id"`
	PromptTitle string                     `json:"prompt_title,omitempty"`
	Module      string                     `json:"module"`
	TaskType    string                     `json:"task_type"`
	Status      string                     `json:"status"`
	OverallBand *float64                   `json:"overall_band"`
	WordCount   int                        `json:"word_count"`
	Response    string                     `json:"response"`
	WasModified bool                       `json:"was_modified"`
	PIIWarning  string                     `json:"pii_warning,omitempty"`
	Provider    string                     `json:"provider,omitempty"`
	Model       string                     `json:"model,omitempty"`
	Writing     *safety.WritingEvaluation  `json:"writing,omitempty"`
	Speaking    *safety.SpeakingEvaluation `json:"speaking,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// EvaluationSummary is the list view of an evaluation session.
type EvaluationSummary struct {
	ID          uint      `json:"id"`
	PromptID    uint      `json:"prompt_id"`
	PromptTitle string    `json:"prompt_title,omitempty"`
	Module      string    `json:"module"`
	TaskType    string    `json:"task_type"`
	Status      string    `json:"status"`
	OverallBand *float64  `json:"overall_band"`
	WordCount   int       `json:"word_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// EvaluationListResponse wraps a page of evaluation summaries.
type EvaluationListResponse struct {
	Items      []EvaluationSummary `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// NewEvaluationResponse maps a session, decoding the stored evaluation for its module.
func NewEvaluationResponse(session models.EvaluationSession) EvaluationResponse {
	response := EvaluationResponse{
		ID:          session.ID,
		PromptID:    session.PromptID,
		PromptTitle: session.Prompt.Title,
		Module:      session.Module,
		TaskType:    session.TaskType,
		Status:      session.Status,
		OverallBand: session.OverallBand,
		WordCount:   session.WordCount,
		Response:    session.Response,
		WasModified: session.WasModified,
		PIIWarning:  session.PIIWarning,
		Provider:    session.Provider,
		Model:       session.Model,
		CreatedAt:   session.CreatedAt,
	}

	if !session.IsEvaluated() || len(session.Evaluation) == 0 {
		return response
	}

	switch session.Module {
	case models.ModuleWriting:
		var evaluation safety.WritingEvaluation
		if err := json.Unmarshal(session.Evaluation, &evaluation); err == nil {
			response.Writing = &evaluation
		}
	case models.ModuleSpeaking:
		var evaluation safety.SpeakingEvaluation
		if err := json.Unmarshal(session.Evaluation, &evaluation); err == nil {
			response.Speaking = &evaluation
		}
	}

	return response
}

// NewEvaluationListResponse maps a page of sessions.
func NewEvaluationListResponse(sessions []models.EvaluationSession, pagination Pagination) EvaluationListResponse {
	items := make([]EvaluationSummary, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, EvaluationSummary{
			ID:          session.ID,
			PromptID:    session.PromptID,
			PromptTitle: session.Prompt.Title,
			Module:      session.Module,
			TaskType:    session.TaskType,
			Status:      session.Status,
			OverallBand: session.OverallBand,
			WordCount:   session.WordCount,
			CreatedAt:   session.CreatedAt,
		})
	}
	return EvaluationListResponse{Items: items, Pagination: pagination}
}
