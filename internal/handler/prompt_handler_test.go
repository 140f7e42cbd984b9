package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/handler"
	"github.com/noah-isme/ielts-prep-api/internal/service"
)

type stubPromptService struct {
	list      dto.PromptListResponse
	prompt    dto.PromptResponse
	err       error
	lastQuery dto.PromptQuery
}

func (s *stubPromptService) List(_ context.Context, query dto.PromptQuery) (dto.PromptListResponse, error) {
	s.lastQuery = query
	return s.list, s.err
}

func (s *stubPromptService) Get(_ context.Context, _ uint) (dto.PromptResponse, error) {
	return s.prompt, s.err
}

func TestPromptHandlerList(t *testing.T) {
	svc := &stubPromptService{list: dto.PromptListResponse{Items: []dto.PromptResponse{{ID: 1, Title: "Energy chart"}}}}
	app := fiber.New()
	handler.NewPromptHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/prompts"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/prompts?module=writing&task_type=task1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeResponse(t, resp)
	var list dto.PromptListResponse
	require.NoError(t, json.Unmarshal(payload.Data, &list))
	require.Equal(t, "Energy chart", list.Items[0].Title)
	require.Equal(t, "writing", svc.lastQuery.Module)
	require.Equal(t, "task1", svc.lastQuery.TaskType)
}

func TestPromptHandlerGetNotFound(t *testing.T) {
	app := fiber.New()
	handler.NewPromptHandler(&stubPromptService{err: service.ErrPromptNotFound}, zerolog.Nop()).Register(app.Group("/api/v2/prompts"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/prompts/8", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "prompt not found", decodeResponse(t, resp).Message)
}
