package models

import "time"

// Prompt is an IELTS question a candidate answers in writing or speaking.
type Prompt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Module    string    `gorm:"size:16;not null;index" json:"module"`
	TaskType  string    `gorm:"size:16;not null" json:"task_type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	MinWords  int       `json:"min_words"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// ModuleWriting marks writing tasks.
	ModuleWriting = "writing"
	// ModuleSpeaking marks speaking parts.
	ModuleSpeaking = "speaking"
)
