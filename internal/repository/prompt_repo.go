package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ielts-prep-api/internal/models"
)

// PromptFilter narrows prompt listings.
type PromptFilter struct {
	Module   string
	TaskType string
	Page     int
	PageSize int
}

// PromptRepository defines read access to IELTS prompts.
type PromptRepository interface {
	List(ctx context.Context, filter PromptFilter) ([]models.Prompt, int64, error)
	GetByID(ctx context.Context, id uint) (models.Prompt, error)
}

type promptRepository struct {
	db *gorm.DB
}

// NewPromptRepository instantiates the repository.
func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{db: db}
}

func (r *promptRepository) List(ctx context.Context, filter PromptFilter) ([]models.Prompt, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Prompt{})
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.TaskType != "" {
		query = query.Where("task_type = ?", filter.TaskType)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	var prompts []models.Prompt
	if err := query.Order("module ASC, task_type ASC, id ASC").Find(&prompts).Error; err != nil {
		return nil, 0, err
	}

	return prompts, total, nil
}

func (r *promptRepository) GetByID(ctx context.Context, id uint) (models.Prompt, error) {
	var prompt models.Prompt
	if err := r.db.WithContext(ctx).First(&prompt, id).Error; err != nil {
		return models.Prompt{}, err
	}
	return prompt, nil
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}
