package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ielts-prep-api/internal/models"
)

// SessionFilter narrows evaluation history queries.
type SessionFilter struct {
	UserID   uint
	Module   string
	Status   string
	Page     int
	PageSize int
}

// SessionRepository defines data operations for evaluation sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.EvaluationSession) error
	Update(ctx context.Context, session *models.EvaluationSession) error
	GetByID(ctx context.Context, id uint) (models.EvaluationSession, error)
	List(ctx context.Context, filter SessionFilter) ([]models.EvaluationSession, int64, error)
	ListEvaluatedByUser(ctx context.Context, userID uint) ([]models.EvaluationSession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository instantiates the repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.EvaluationSession) error {
	return r.db.WithContext(ctx).Omit("Prompt").Create(session).Error
}

func (r *sessionRepository) Update(ctx context.Context, session *models.EvaluationSession) error {
	return r.db.WithContext(ctx).Omit("Prompt").Save(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uint) (models.EvaluationSession, error) {
	var session models.EvaluationSession
	if err := r.db.WithContext(ctx).Preload("Prompt").First(&session, id).Error; err != nil {
		return models.EvaluationSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) List(ctx context.Context, filter SessionFilter) ([]models.EvaluationSession, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EvaluationSession{}).Where("user_id = ?", filter.UserID)
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	var sessions []models.EvaluationSession
	if err := query.Preload("Prompt").Order("created_at DESC, id DESC").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *sessionRepository) ListEvaluatedByUser(ctx context.Context, userID uint) ([]models.EvaluationSession, error) {
	var sessions []models.EvaluationSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SessionStatusEvaluated).
		Order("created_at ASC, id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
