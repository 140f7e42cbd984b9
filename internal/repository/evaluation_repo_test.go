package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ielts-prep-api/internal/models"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Prompt{}, &models.EvaluationSession{}))
	return db
}

func seedPrompts(t *testing.T, db *gorm.DB) []models.Prompt {
	t.Helper()
	prompts := []models.Prompt{
		{Module: models.ModuleWriting, TaskType: "task2", Title: "Technology in schools", Question: "Discuss both views.", MinWords: 250},
		{Module: models.ModuleWriting, TaskType: "task1", Title: "Energy chart", Question: "Summarise the chart.", MinWords: 150},
		{Module: models.ModuleSpeaking, TaskType: "part2", Title: "A favourite place", Question: "Describe a place you enjoy visiting."},
	}
	require.NoError(t, db.Create(&prompts).Error)
	return prompts
}

func TestPromptRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupRepositoryTestDB(t)
	seedPrompts(t, db)
	repo := NewPromptRepository(db)

	writing, total, err := repo.List(context.Background(), PromptFilter{Module: models.ModuleWriting})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, writing, 2)
	require.Equal(t, "task1", writing[0].TaskType)

	task2, total, err := repo.List(context.Background(), PromptFilter{Module: models.ModuleWriting, TaskType: "task2"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Technology in schools", task2[0].Title)

	paged, total, err := repo.List(context.Background(), PromptFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
}

func TestPromptRepositoryGetByIDNotFound(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewPromptRepository(db)

	_, err := repo.GetByID(context.Background(), 42)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSessionRepositoryCreateGetAndUpdate(t *testing.T) {
	db := setupRepositoryTestDB(t)
	prompts := seedPrompts(t, db)
	repo := NewSessionRepository(db)

	session := models.EvaluationSession{
		UserID:   7,
		PromptID: prompts[0].ID,
		Module:   models.ModuleWriting,
		TaskType: "task2",
		Response: "Technology has changed classrooms.",
		Status:   models.SessionStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), &session))
	require.NotZero(t, session.ID)

	band := 7.0
	session.Status = models.SessionStatusEvaluated
	session.OverallBand = &band
	session.CriterionBands = map[string]interface{}{"task_response": 7.0}
	session.Evaluation = []byte(`{"overall_band":7}`)
	require.NoError(t, repo.Update(context.Background(), &session))

	stored, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusEvaluated, stored.Status)
	require.NotNil(t, stored.OverallBand)
	require.Equal(t, 7.0, *stored.OverallBand)
	require.Equal(t, "Technology in schools", stored.Prompt.Title)
	require.JSONEq(t, `{"overall_band":7}`, string(stored.Evaluation))
	require.True(t, stored.IsEvaluated())
}

func TestSessionRepositoryListScopesToUser(t *testing.T) {
	db := setupRepositoryTestDB(t)
	prompts := seedPrompts(t, db)
	repo := NewSessionRepository(db)

	now := time.Now()
	sessions := []models.EvaluationSession{
		{UserID: 1, PromptID: prompts[0].ID, Module: models.ModuleWriting, Response: "a", Status: models.SessionStatusEvaluated, CreatedAt: now.Add(-3 * time.Hour)},
		{UserID: 1, PromptID: prompts[2].ID, Module: models.ModuleSpeaking, Response: "b", Status: models.SessionStatusEvaluated, CreatedAt: now.Add(-2 * time.Hour)},
		{UserID: 1, PromptID: prompts[1].ID, Module: models.ModuleWriting, Response: "c", Status: models.SessionStatusFailed, CreatedAt: now.Add(-time.Hour)},
		{UserID: 2, PromptID: prompts[0].ID, Module: models.ModuleWriting, Response: "d", Status: models.SessionStatusEvaluated, CreatedAt: now},
	}
	for i := range sessions {
		require.NoError(t, repo.Create(context.Background(), &sessions[i]))
	}

	all, total, err := repo.List(context.Background(), SessionFilter{UserID: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, "c", all[0].Response, "newest first")
	require.Equal(t, "Energy chart", all[0].Prompt.Title)

	writing, total, err := repo.List(context.Background(), SessionFilter{UserID: 1, Module: models.ModuleWriting, Status: models.SessionStatusEvaluated})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "a", writing[0].Response)

	paged, total, err := repo.List(context.Background(), SessionFilter{UserID: 1, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
	require.Equal(t, "a", paged[0].Response)

	evaluated, err := repo.ListEvaluatedByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, evaluated, 2)
	require.Equal(t, "a", evaluated[0].Response, "oldest first")
}
