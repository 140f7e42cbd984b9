package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/middleware"
	"github.com/noah-isme/ielts-prep-api/internal/models"
	"github.com/noah-isme/ielts-prep-api/internal/observability"
	"github.com/noah-isme/ielts-prep-api/internal/repository"
	"github.com/noah-isme/ielts-prep-api/pkg/ai"
	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

var (
	// ErrPromptModuleMismatch indicates the prompt belongs to the other module.
	ErrPromptModuleMismatch = errors.New("prompt does not belong to this module")
	// ErrSessionNotFound indicates the evaluation session cannot be located.
	ErrSessionNotFound = errors.New("evaluation not found")
	// ErrSessionForbidden indicates the caller may not view the session.
	ErrSessionForbidden = errors.New("forbidden")
	// ErrEvaluatorUnavailable indicates the AI evaluator is not configured.
	ErrEvaluatorUnavailable = errors.New("evaluator unavailable")
	// ErrEvaluationFailed wraps every model or validation failure. The session
	// is stored with status failed and no scores.
	ErrEvaluationFailed = errors.New("evaluation failed")
)

// SpeakingMinWords is the content-gate minimum for speaking transcripts.
const SpeakingMinWords = 20

// EvaluationService orchestrates sanitization, AI assessment and persistence.
type EvaluationService interface {
	EvaluateWriting(ctx context.Context, userID uint, payload dto.WritingEvaluationRequest) (dto.EvaluationResponse, error)
	EvaluateSpeaking(ctx context.Context, userID uint, payload dto.SpeakingEvaluationRequest) (dto.EvaluationResponse, error)
	Get(ctx context.Context, id uint, viewerID uint, role string) (dto.EvaluationResponse, error)
	History(ctx context.Context, userID uint, query dto.HistoryQuery) (dto.EvaluationListResponse, error)
}

type evaluationService struct {
	prompts   repository.PromptRepository
	sessions  repository.SessionRepository
	guard     *safety.Guard
	evaluator ai.Evaluator
	progress  ProgressService
	events    EventPublisher
	validator *validator.Validate
	policy    *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEvaluationService wires the evaluation pipeline. progress and events may be nil.
func NewEvaluationService(prompts repository.PromptRepository, sessions repository.SessionRepository, guard *safety.Guard, evaluator ai.Evaluator, progress ProgressService, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	if guard == nil {
		guard = safety.NewGuard(nil, safety.DefaultLimits(), logger)
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &evaluationService{
		prompts:   prompts,
		sessions:  sessions,
		guard:     guard,
		evaluator: evaluator,
		progress:  progress,
		events:    events,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/ielts-prep-api/internal/service/evaluation"),
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		now:       time.Now,
	}
}

type submission struct {
	userID          uint
	promptID        uint
	module          string
	text            string
	limits          safety.ContentLimits
	durationSeconds int
}

func (s *evaluationService) EvaluateWriting(ctx context.Context, userID uint, payload dto.WritingEvaluationRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}
	return s.evaluate(ctx, submission{
		userID:   userID,
		promptID: payload.PromptID,
		module:   models.ModuleWriting,
		text:     payload.Essay,
		limits:   s.guard.Limits().Content,
	})
}

func (s *evaluationService) EvaluateSpeaking(ctx context.Context, userID uint, payload dto.SpeakingEvaluationRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}
	limits := s.guard.Limits().Content
	limits.MinWords = SpeakingMinWords
	return s.evaluate(ctx, submission{
		userID:          userID,
		promptID:        payload.PromptID,
		module:          models.ModuleSpeaking,
		text:            payload.Transcript,
		limits:          limits,
		durationSeconds: payload.DurationSeconds,
	})
}

func (s *evaluationService) evaluate(ctx context.Context, sub submission) (dto.EvaluationResponse, error) {
	if sub.userID == 0 {
		return dto.EvaluationResponse{}, ErrSessionForbidden
	}

	ctx, span := s.tracer.Start(ctx, "evaluation.run", trace.WithAttributes(
		attribute.String("ielts.module", sub.module),
		attribute.Int64("ielts.prompt_id", int64(sub.promptID)),
	))
	defer span.End()

	prompt, err := s.prompts.GetByID(ctx, sub.promptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrPromptNotFound
		}
		return dto.EvaluationResponse{}, err
	}
	if prompt.Module != sub.module {
		return dto.EvaluationResponse{}, ErrPromptModuleMismatch
	}
	if s.evaluator == nil {
		return dto.EvaluationResponse{}, ErrEvaluatorUnavailable
	}

	prepared, err := s.guard.Prepare(sub.text, sub.limits)
	if err != nil {
		observability.Evaluations().WithLabelValues(sub.module, "rejected").Inc()
		return dto.EvaluationResponse{}, err
	}
	question := s.guard.SanitizePrompt(prompt.Question)

	session := models.EvaluationSession{
		UserID:      sub.userID,
		PromptID:    prompt.ID,
		Module:      sub.module,
		TaskType:    prompt.TaskType,
		Response:    prepared.Text,
		WordCount:   prepared.WordCount,
		Status:      models.SessionStatusPending,
		WasModified: prepared.WasModified,
		PIIWarning:  prepared.PIIWarning,
		Provider:    s.evaluator.Provider(),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.EvaluationResponse{}, err
	}
	span.SetAttributes(attribute.Int64("ielts.session_id", int64(session.ID)))

	start := s.now()
	result, evalErr := s.evaluator.Evaluate(ctx, ai.EvaluationInput{
		Module:          sub.module,
		TaskType:        prompt.TaskType,
		Question:        question.Sanitized,
		Response:        prepared.Text,
		WordCount:       prepared.WordCount,
		DurationSeconds: sub.durationSeconds,
	})
	session.DurationMs = s.now().Sub(start).Milliseconds()

	if evalErr != nil {
		span.RecordError(evalErr)
		span.SetStatus(codes.Error, "evaluation failed")
		s.recordFailure(ctx, &session, evalErr)
		return dto.EvaluationResponse{}, fmt.Errorf("%w: %w", ErrEvaluationFailed, evalErr)
	}

	if err := s.applyResult(&session, result); err != nil {
		s.recordFailure(ctx, &session, err)
		return dto.EvaluationResponse{}, fmt.Errorf("%w: %w", ErrEvaluationFailed, err)
	}
	if err := s.sessions.Update(ctx, &session); err != nil {
		return dto.EvaluationResponse{}, err
	}

	observability.Evaluations().WithLabelValues(sub.module, models.SessionStatusEvaluated).Inc()
	observability.EvaluationBands().WithLabelValues(sub.module).Observe(*session.OverallBand)
	s.afterAttempt(ctx, session)

	s.logger.Info().
		Uint("session_id", session.ID).
		Uint("user_id", session.UserID).
		Str("module", session.Module).
		Float64("overall_band", *session.OverallBand).
		Int64("duration_ms", session.DurationMs).
		Msg("evaluation completed")

	session.Prompt = prompt
	return dto.NewEvaluationResponse(session), nil
}

// applyResult scrubs markup from model text and stores the validated evaluation.
func (s *evaluationService) applyResult(session *models.EvaluationSession, result ai.EvaluationResult) error {
	var (
		payload []byte
		bands   map[string]float64
		overall float64
		err     error
	)

	switch {
	case session.Module == models.ModuleWriting && result.Writing != nil:
		evaluation := result.Writing.MapText(s.scrub)
		payload, err = json.Marshal(evaluation)
		bands, overall = evaluation.CriterionBands(), evaluation.OverallBand
	case session.Module == models.ModuleSpeaking && result.Speaking != nil:
		evaluation := result.Speaking.MapText(s.scrub)
		payload, err = json.Marshal(evaluation)
		bands, overall = evaluation.CriterionBands(), evaluation.OverallBand
	default:
		return fmt.Errorf("%w: no %s evaluation in result", ai.ErrInvalidResponse, session.Module)
	}
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}

	criterionBands := datatypes.JSONMap{}
	for criterion, band := range bands {
		criterionBands[criterion] = band
	}

	session.Status = models.SessionStatusEvaluated
	session.OverallBand = &overall
	session.CriterionBands = criterionBands
	session.Evaluation = datatypes.JSON(payload)
	session.Model = result.Model
	return nil
}

func (s *evaluationService) recordFailure(ctx context.Context, session *models.EvaluationSession, cause error) {
	reason := failureReason(cause)
	session.Status = models.SessionStatusFailed
	session.FailureReason = reason
	session.OverallBand = nil
	session.CriterionBands = nil
	session.Evaluation = nil

	observability.Evaluations().WithLabelValues(session.Module, models.SessionStatusFailed).Inc()
	s.logger.Error().
		Err(cause).
		Uint("session_id", session.ID).
		Str("module", session.Module).
		Str("reason", reason).
		Msg("evaluation failed")

	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Error().Err(err).Uint("session_id", session.ID).Msg("failed to persist failed evaluation")
	}
	s.afterAttempt(ctx, *session)
}

func (s *evaluationService) afterAttempt(ctx context.Context, session models.EvaluationSession) {
	if s.progress != nil && session.Status == models.SessionStatusEvaluated {
		if err := s.progress.Invalidate(ctx, session.UserID); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", session.UserID).Msg("failed to invalidate progress cache")
		}
	}

	event := EvaluationEvent{
		SessionID:     session.ID,
		UserID:        session.UserID,
		PromptID:      session.PromptID,
		Module:        session.Module,
		Status:        session.Status,
		OverallBand:   session.OverallBand,
		Provider:      session.Provider,
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.PublishEvaluation(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("session_id", session.ID).Msg("failed to publish evaluation event")
	}
}

// scrub strips markup from model text. Entity escaping can lengthen the
// result, so it is cut back to the rune length the schema already accepted.
func (s *evaluationService) scrub(text string) string {
	if !strings.ContainsAny(text, "<>") {
		return text
	}
	cleaned := strings.TrimSpace(s.policy.Sanitize(text))
	limit := utf8.RuneCountInString(text)
	if utf8.RuneCountInString(cleaned) <= limit {
		return cleaned
	}
	return truncateEscaped(cleaned, limit)
}

// truncateEscaped cuts text to limit runes without leaving a partial entity.
func truncateEscaped(text string, limit int) string {
	count := 0
	for i := range text {
		if count == limit {
			text = text[:i]
			break
		}
		count++
	}
	if amp := strings.LastIndexByte(text, '&'); amp >= 0 && !strings.Contains(text[amp:], ";") {
		text = text[:amp]
	}
	return strings.TrimSpace(text)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ai.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, safety.ErrUnparseable):
		return "unparseable_response"
	case errors.Is(err, ai.ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ai.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "provider_error"
	}
}

func (s *evaluationService) Get(ctx context.Context, id uint, viewerID uint, role string) (dto.EvaluationResponse, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrSessionNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if !canViewSession(viewerID, role, session) {
		return dto.EvaluationResponse{}, ErrSessionForbidden
	}

	return dto.NewEvaluationResponse(session), nil
}

func (s *evaluationService) History(ctx context.Context, userID uint, query dto.HistoryQuery) (dto.EvaluationListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.EvaluationListResponse{}, err
	}

	page, pageSize := dto.NormalizePage(query.Page, query.PageSize)
	sessions, total, err := s.sessions.List(ctx, repository.SessionFilter{
		UserID:   userID,
		Module:   query.Module,
		Status:   query.Status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.EvaluationListResponse{}, err
	}

	return dto.NewEvaluationListResponse(sessions, dto.NewPagination(page, pageSize, total)), nil
}

func canViewSession(viewerID uint, role string, session models.EvaluationSession) bool {
	if viewerID != 0 && viewerID == session.UserID {
		return true
	}
	role = strings.ToLower(strings.TrimSpace(role))
	return role == "teacher" || role == "admin"
}
