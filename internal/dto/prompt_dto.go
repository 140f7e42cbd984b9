package dto

import (
	"time"

	"github.com/noah-isme/ielts-prep-api/internal/models"
)

// PromptQuery captures prompt list filters.
type PromptQuery struct {
	Module   string `query:"module" validate:"omitempty,oneof=writing speaking"`
	TaskType string `query:"task_type" validate:"omitempty,oneof=task1 task2 part1 part2 part3"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// PromptResponse is the public view of a prompt.
type PromptResponse struct {
	ID        uint      `json:"id"`
	Module    string    `json:"module"`
	TaskType  string    `json:"task_type"`
	Title     string    `json:"title"`
	Question  string    `json:"question"`
	MinWords  int       `json:"min_words,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PromptListResponse wraps a page of prompts.
type PromptListResponse struct {
	Items      []PromptResponse `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// NewPromptResponse maps a prompt model.
func NewPromptResponse(prompt models.Prompt) PromptResponse {
	return PromptResponse{
		ID:        prompt.ID,
		Module:    prompt.Module,
		TaskType:  prompt.TaskType,
		Title:     prompt.Title,
		Question:  prompt.Question,
		MinWords:  prompt.MinWords,
		CreatedAt: prompt.CreatedAt,
	}
}

// NewPromptListResponse maps a page of prompts.
func NewPromptListResponse(prompts []models.Prompt, pagination Pagination) PromptListResponse {
	items := make([]PromptResponse, 0, len(prompts))
	for _, prompt := range prompts {
		items = append(items, NewPromptResponse(prompt))
	}
	return PromptListResponse{Items: items, Pagination: pagination}
}
