package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/service"
	"github.com/noah-isme/ielts-prep-api/internal/utils"
)

// PromptHandler exposes the prompt catalogue.
type PromptHandler struct {
	service service.PromptService
	logger  zerolog.Logger
}

// NewPromptHandler builds a prompt handler.
func NewPromptHandler(service service.PromptService, logger zerolog.Logger) *PromptHandler {
	return &PromptHandler{
		service: service,
		logger:  logger.With().Str("component", "prompt_handler").Logger(),
	}
}

// Register attaches the prompt routes.
func (h *PromptHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *PromptHandler) list(c *fiber.Ctx) error {
	var query dto.PromptQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	prompts, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "prompts retrieved", prompts)
}

func (h *PromptHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	prompt, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "prompt retrieved", prompt)
}

func (h *PromptHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrPromptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "prompt not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
