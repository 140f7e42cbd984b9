package models

import (
	"time"

	"gorm.io/datatypes"
)

// EvaluationSession records one submitted response and its AI assessment.
type EvaluationSession struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         uint              `gorm:"not null;index" json:"user_id"`
	PromptID       uint              `gorm:"not null;index" json:"prompt_id"`
	Module         string            `gorm:"size:16;not null;index" json:"module"`
	TaskType       string            `gorm:"size:16" json:"task_type"`
	Response       string            `gorm:"type:text;not null" json:"response"`
	WordCount      int               `json:"word_count"`
	OverallBand    *float64          `json:"overall_band"`
	CriterionBands datatypes.JSONMap `json:"criterion_bands"`
	Evaluation     datatypes.JSON    `json:"evaluation"`
	Status         string            `gorm:"size:16;not null" json:"status"`
	FailureReason  string            `gorm:"size:64" json:"failure_reason"`
	Provider       string            `gorm:"size:32" json:"provider"`
	Model          string            `gorm:"size:64" json:"model"`
	WasModified    bool              `json:"was_modified"`
	PIIWarning     string            `gorm:"type:text" json:"pii_warning"`
	DurationMs     int64             `json:"duration_ms"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Prompt         Prompt            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"prompt"`
}

const (
	// SessionStatusPending indicates the evaluation has not completed yet.
	SessionStatusPending = "pending"
	// SessionStatusEvaluated indicates a validated evaluation is stored.
	SessionStatusEvaluated = "evaluated"
	// SessionStatusFailed indicates the model call or validation failed; no scores are stored.
	SessionStatusFailed = "failed"
)

// IsEvaluated reports whether the session holds a validated evaluation.
func (s EvaluationSession) IsEvaluated() bool {
	return s.Status == SessionStatusEvaluated
}
