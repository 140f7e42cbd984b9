package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/service"
	"github.com/noah-isme/ielts-prep-api/internal/utils"
	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

// EvaluationHandler exposes writing and speaking assessment endpoints.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler builds an evaluation handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// RegisterWriting attaches the writing submission route.
func (h *EvaluationHandler) RegisterWriting(router fiber.Router, limiters ...fiber.Handler) {
	router.Post("/evaluations", append(limiters, h.submitWriting)...)
}

// RegisterSpeaking attaches the speaking submission route.
func (h *EvaluationHandler) RegisterSpeaking(router fiber.Router, limiters ...fiber.Handler) {
	router.Post("/evaluations", append(limiters, h.submitSpeaking)...)
}

// Register attaches the history routes.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterReview attaches the staff view of a learner's history. Callers must
// guard the router with a role check.
func (h *EvaluationHandler) RegisterReview(router fiber.Router) {
	router.Get("/:id/evaluations", h.listForLearner)
}

func (h *EvaluationHandler) submitWriting(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.WritingEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.EvaluateWriting(c.UserContext(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "essay evaluated", result)
}

func (h *EvaluationHandler) submitSpeaking(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.SpeakingEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.EvaluateSpeaking(c.UserContext(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "response evaluated", result)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var query dto.HistoryQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	history, err := h.service.History(c.UserContext(), userID, query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", history)
}

func (h *EvaluationHandler) listForLearner(c *fiber.Ctx) error {
	learnerID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var query dto.HistoryQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	history, err := h.service.History(c.UserContext(), learnerID, query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", history)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Get(c.UserContext(), id, userID, userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", result)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var (
		validationErrors validator.ValidationErrors
		contentErr       *safety.ContentError
	)
	switch {
	case errors.As(err, &contentErr):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "please revise your submission: "+contentErr.Reason)
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrPromptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "prompt not found")
	case errors.Is(err, service.ErrPromptModuleMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrSessionForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "you do not have access to this evaluation")
	case errors.Is(err, service.ErrEvaluatorUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "evaluation is temporarily unavailable")
	case errors.Is(err, service.ErrEvaluationFailed):
		requestLogger(h.logger, c).Warn().Err(err).Msg("evaluation failed")
		return utils.SendError(c, fiber.StatusBadGateway, "evaluation failed, please retry")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
