package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ielts-prep-api/internal/config"
	"github.com/noah-isme/ielts-prep-api/internal/database"
	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/handler"
	"github.com/noah-isme/ielts-prep-api/internal/middleware"
	"github.com/noah-isme/ielts-prep-api/internal/models"
	"github.com/noah-isme/ielts-prep-api/internal/repository"
	"github.com/noah-isme/ielts-prep-api/internal/router"
	"github.com/noah-isme/ielts-prep-api/internal/service"
	"github.com/noah-isme/ielts-prep-api/pkg/ai"
	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

type fixedEvaluator struct{}

func (fixedEvaluator) Evaluate(_ context.Context, input ai.EvaluationInput) (ai.EvaluationResult, error) {
	criterion := safety.CriterionEvaluation{Band: 6.5, Summary: "Reasonable.", Strengths: []string{}, Improvements: []string{}}
	return ai.EvaluationResult{
		Writing: &safety.WritingEvaluation{
			OverallBand: 6.5,
			Criteria: safety.WritingCriteria{
				TaskResponse:             criterion,
				CoherenceCohesion:        criterion,
				LexicalResource:          criterion,
				GrammaticalRangeAccuracy: criterion,
			},
			OverallFeedback: fmt.Sprintf("Scored %d words.", input.WordCount),
		},
		Model: "fixed",
	}, nil
}

func (fixedEvaluator) Provider() string {
	return "fixed"
}

// headerAuth stands in for JWT validation: X-User carries the subject.
func headerAuth(c *fiber.Ctx) error {
	if raw := c.Get("X-User"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err == nil {
			c.Locals("user_id", uint(id))
		}
	}
	c.Locals("user_role", c.Get("X-Role"))
	return c.Next()
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	prompts := repository.NewPromptRepository(db)
	sessions := repository.NewSessionRepository(db)
	progress := service.NewProgressService(sessions, redis.NewClient(&redis.Options{Addr: mini.Addr()}), time.Minute, logger)
	evaluations := service.NewEvaluationService(prompts, sessions, safety.NewGuard(nil, safety.DefaultLimits(), logger), fixedEvaluator{}, progress, nil, validate, logger)

	cfg := config.Config{AppName: "IELTS Prep API", AppEnv: "test"}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler:   handler.NewEvaluationHandler(evaluations, logger),
		PromptHandler:       handler.NewPromptHandler(service.NewPromptService(prompts, validate, logger), logger),
		ProgressHandler:     handler.NewProgressHandler(progress, logger),
		JWTMiddleware:       headerAuth,
		EvaluationRateLimit: middleware.RateLimit("evaluation", 2, time.Minute),
	})
	return app, db
}

func send(t *testing.T, app *fiber.App, method, path, user string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	var payload struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

func essay(n int) string {
	words := strings.Fields("schools should balance screens with books because focused reading builds patience memory and vocabulary")
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[i%len(words)]
	}
	return strings.Join(parts, " ") + "."
}

func TestEvaluationFlowThroughRouter(t *testing.T) {
	app, db := newTestApp(t)
	prompt := models.Prompt{Module: models.ModuleWriting, TaskType: "task2", Title: "Screens", Question: "Discuss."}
	require.NoError(t, db.Create(&prompt).Error)

	resp := send(t, app, http.MethodPost, "/api/v2/writing/evaluations", "5", map[string]interface{}{"prompt_id": prompt.ID, "essay": essay(60)})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	var created dto.EvaluationResponse
	decodeData(t, resp, &created)
	require.Equal(t, "evaluated", created.Status)
	require.Equal(t, "Scored 60 words.", created.Writing.OverallFeedback)

	resp = send(t, app, http.MethodGet, fmt.Sprintf("/api/v2/evaluations/%d", created.ID), "5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = send(t, app, http.MethodGet, fmt.Sprintf("/api/v2/evaluations/%d", created.ID), "6", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = send(t, app, http.MethodGet, "/api/v2/progress", "5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var progress dto.ProgressResponse
	decodeData(t, resp, &progress)
	require.Equal(t, 1, progress.Modules[0].Attempts)
	require.Equal(t, 6.5, progress.Modules[0].AverageBand)

	resp = send(t, app, http.MethodPost, "/api/v2/writing/evaluations", "5", map[string]interface{}{"prompt_id": prompt.ID, "essay": "Too short."})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/api/v2/writing/evaluations", "5", map[string]interface{}{"prompt_id": prompt.ID, "essay": essay(60)})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRouterRequiresUserOnLearnerRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/api/v2/evaluations", "/api/v2/progress"} {
		resp := send(t, app, http.MethodGet, path, "", nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := send(t, app, http.MethodGet, "/api/v2/prompts", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouterLearnerReviewRequiresStaffRole(t *testing.T) {
	app, db := newTestApp(t)
	prompt := models.Prompt{Module: models.ModuleWriting, TaskType: "task2", Title: "Screens", Question: "Discuss."}
	require.NoError(t, db.Create(&prompt).Error)

	resp := send(t, app, http.MethodPost, "/api/v2/writing/evaluations", "5", map[string]interface{}{"prompt_id": prompt.ID, "essay": essay(60)})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	review := func(role string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/learners/5/evaluations", nil)
		req.Header.Set("X-User", "90")
		req.Header.Set("X-Role", role)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	require.Equal(t, fiber.StatusForbidden, review("student").StatusCode)

	resp = review("teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history dto.EvaluationListResponse
	decodeData(t, resp, &history)
	require.Len(t, history.Items, 1)
	require.Equal(t, int64(1), history.Pagination.TotalItems)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	resp := send(t, app, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "IELTS Prep API", resp.Header.Get("X-Application"))

	resp = send(t, app, http.MethodGet, "/api/v2/prompts", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = send(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "ielts_api_requests_total")
}
