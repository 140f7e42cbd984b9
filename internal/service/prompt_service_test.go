package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/models"
	"github.com/noah-isme/ielts-prep-api/internal/repository"
)

func TestPromptServiceListAndGet(t *testing.T) {
	db := setupServiceTestDB(t)
	writing, _ := seedServicePrompts(t, db)
	svc := NewPromptService(repository.NewPromptRepository(db), validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	all, err := svc.List(context.Background(), dto.PromptQuery{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	require.Equal(t, dto.DefaultPageSize, all.Pagination.PageSize)
	require.Equal(t, 1, all.Pagination.Page)

	speaking, err := svc.List(context.Background(), dto.PromptQuery{Module: models.ModuleSpeaking})
	require.NoError(t, err)
	require.Len(t, speaking.Items, 1)
	require.Equal(t, "part2", speaking.Items[0].TaskType)

	prompt, err := svc.Get(context.Background(), writing.ID)
	require.NoError(t, err)
	require.Equal(t, "Technology in schools", prompt.Title)
	require.Equal(t, 250, prompt.MinWords)

	_, err = svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrPromptNotFound)

	_, err = svc.List(context.Background(), dto.PromptQuery{TaskType: "task9"})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}
