package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/repository"
)

// ErrPromptNotFound indicates the prompt cannot be located.
var ErrPromptNotFound = errors.New("prompt not found")

// PromptService exposes read access to IELTS prompts.
type PromptService interface {
	List(ctx context.Context, query dto.PromptQuery) (dto.PromptListResponse, error)
	Get(ctx context.Context, id uint) (dto.PromptResponse, error)
}

type promptService struct {
	repo      repository.PromptRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewPromptService constructs the prompt service.
func NewPromptService(repo repository.PromptRepository, validate *validator.Validate, logger zerolog.Logger) PromptService {
	return &promptService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "prompt_service").Logger(),
	}
}

func (s *promptService) List(ctx context.Context, query dto.PromptQuery) (dto.PromptListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.PromptListResponse{}, err
	}

	page, pageSize := dto.NormalizePage(query.Page, query.PageSize)
	prompts, total, err := s.repo.List(ctx, repository.PromptFilter{
		Module:   query.Module,
		TaskType: query.TaskType,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.PromptListResponse{}, err
	}

	return dto.NewPromptListResponse(prompts, dto.NewPagination(page, pageSize, total)), nil
}

func (s *promptService) Get(ctx context.Context, id uint) (dto.PromptResponse, error) {
	prompt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PromptResponse{}, ErrPromptNotFound
		}
		return dto.PromptResponse{}, err
	}
	return dto.NewPromptResponse(prompt), nil
}
