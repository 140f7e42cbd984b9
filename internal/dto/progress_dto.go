package dto

import "time"

// ModuleProgress aggregates evaluated attempts for one module.
type ModuleProgress struct {
	Module            string             `json:"module"`
	Attempts          int                `json:"attempts"`
	AverageBand       float64            `json:"average_band"`
	BestBand          float64            `json:"best_band"`
	LatestBand        float64            `json:"latest_band"`
	CriterionAverages map[string]float64 `json:"criterion_averages"`
	LastAttemptAt     *time.Time         `json:"last_attempt_at,omitempty"`
}

// ProgressResponse summarises a candidate's evaluated work.
type ProgressResponse struct {
	UserID      uint             `json:"user_id"`
	Modules     []ModuleProgress `json:"modules"`
	GeneratedAt time.Time        `json:"generated_at"`
}
