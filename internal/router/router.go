package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ielts-prep-api/internal/config"
	"github.com/noah-isme/ielts-prep-api/internal/handler"
	"github.com/noah-isme/ielts-prep-api/internal/middleware"
	"github.com/noah-isme/ielts-prep-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler   *handler.EvaluationHandler
	PromptHandler       *handler.PromptHandler
	ProgressHandler     *handler.ProgressHandler
	JWTMiddleware       fiber.Handler
	EvaluationRateLimit fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	var limiters []fiber.Handler
	if deps.EvaluationRateLimit != nil {
		limiters = append(limiters, deps.EvaluationRateLimit)
	}

	v2 := app.Group("/api/v2", jwtMiddleware)

	if deps.PromptHandler != nil {
		deps.PromptHandler.Register(v2.Group("/prompts"))
	}

	requireUser := middleware.RequireUser()

	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.RegisterWriting(v2.Group("/writing", requireUser), limiters...)
		deps.EvaluationHandler.RegisterSpeaking(v2.Group("/speaking", requireUser), limiters...)
		deps.EvaluationHandler.Register(v2.Group("/evaluations", requireUser))
	}

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(v2.Group("/progress", requireUser))
	}

	// Staff review of individual learners
	learners := v2.Group("/learners", middleware.RequireRole("teacher", "admin"))
	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.RegisterReview(learners)
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.RegisterReview(learners)
	}
}
