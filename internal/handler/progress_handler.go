package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ielts-prep-api/internal/service"
	"github.com/noah-isme/ielts-prep-api/internal/utils"
)

// ProgressHandler exposes the learner progress endpoint.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler creates a new handler instance.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the progress endpoint.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("", h.getProgress)
}

// RegisterReview attaches the staff view of a learner's progress. Callers
// must guard the router with a role check.
func (h *ProgressHandler) RegisterReview(router fiber.Router) {
	router.Get("/:id/progress", h.getLearnerProgress)
}

func (h *ProgressHandler) getLearnerProgress(c *fiber.Ctx) error {
	learnerID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := h.service.GetProgress(c.UserContext(), learnerID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("learner_id", learnerID).Msg("failed to load learner progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load progress")
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}

func (h *ProgressHandler) getProgress(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	progress, err := h.service.GetProgress(c.UserContext(), userID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to load progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load progress")
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}
