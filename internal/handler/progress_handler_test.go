package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/handler"
)

type stubProgressService struct {
	response dto.ProgressResponse
	err      error
	lastID   uint
}

func (s *stubProgressService) GetProgress(_ context.Context, userID uint) (dto.ProgressResponse, error) {
	s.lastID = userID
	return s.response, s.err
}

func (s *stubProgressService) Invalidate(context.Context, uint) error {
	return nil
}

func newProgressApp(svc *stubProgressService, userID uint) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2/progress", func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestProgressHandlerSuccess(t *testing.T) {
	svc := &stubProgressService{response: dto.ProgressResponse{
		UserID:  33,
		Modules: []dto.ModuleProgress{{Module: "writing", Attempts: 4, AverageBand: 6.63}},
	}}
	app := newProgressApp(svc, 33)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/progress", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeResponse(t, resp)
	require.Equal(t, "progress retrieved", payload.Message)
	var progress dto.ProgressResponse
	require.NoError(t, json.Unmarshal(payload.Data, &progress))
	require.Equal(t, 4, progress.Modules[0].Attempts)
	require.Equal(t, uint(33), svc.lastID)
}

func TestProgressHandlerUnauthorized(t *testing.T) {
	svc := &stubProgressService{}
	app := newProgressApp(svc, 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/progress", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, svc.lastID)
}

func TestProgressHandlerFailure(t *testing.T) {
	app := newProgressApp(&stubProgressService{err: errors.New("redis down")}, 33)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/progress", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "failed to load progress", decodeResponse(t, resp).Message)
}
