package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ielts-prep-api/internal/config"
	"github.com/noah-isme/ielts-prep-api/internal/database"
	"github.com/noah-isme/ielts-prep-api/internal/handler"
	"github.com/noah-isme/ielts-prep-api/internal/middleware"
	"github.com/noah-isme/ielts-prep-api/internal/repository"
	"github.com/noah-isme/ielts-prep-api/internal/router"
	"github.com/noah-isme/ielts-prep-api/internal/service"
	"github.com/noah-isme/ielts-prep-api/pkg/ai"
	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	guard := safety.NewGuard(nil, cfg.Safety.Limits(), logger)

	var evaluator ai.Evaluator
	chatEvaluator, err := ai.NewEvaluator(ai.ChatConfig{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.AI.APIKey(),
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("evaluator disabled; submissions will be refused")
	} else {
		evaluator = chatEvaluator
	}

	promptRepo := repository.NewPromptRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	events := service.NewNATSPublisher(natsConn, "ielts")
	promptService := service.NewPromptService(promptRepo, validate, logger)
	progressService := service.NewProgressService(sessionRepo, redisClient, cfg.ProgressCacheTTL, logger)
	evaluationService := service.NewEvaluationService(promptRepo, sessionRepo, guard, evaluator, progressService, events, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    256 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler:   handler.NewEvaluationHandler(evaluationService, logger),
		PromptHandler:       handler.NewPromptHandler(promptService, logger),
		ProgressHandler:     handler.NewProgressHandler(progressService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		EvaluationRateLimit: middleware.RateLimit("evaluation", cfg.RateLimitPerMin, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, natsConn)
}

func waitForShutdown(app *fiber.App, natsConn *nats.Conn) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			log.Printf("nats drain failed: %v", err)
		}
	}

	log.Println("server stopped")
}
