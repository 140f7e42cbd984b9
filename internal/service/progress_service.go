package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ielts-prep-api/internal/dto"
	"github.com/noah-isme/ielts-prep-api/internal/models"
	"github.com/noah-isme/ielts-prep-api/internal/observability"
	"github.com/noah-isme/ielts-prep-api/internal/repository"
)

// ProgressService aggregates evaluated sessions into per-module progress.
type ProgressService interface {
	GetProgress(ctx context.Context, userID uint) (dto.ProgressResponse, error)
	Invalidate(ctx context.Context, userID uint) error
}

type progressService struct {
	sessions repository.SessionRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProgressService builds the progress aggregator. A nil cache disables caching.
func NewProgressService(sessions repository.SessionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	return &progressService{
		sessions: sessions,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "progress_service").Logger(),
		now:      time.Now,
	}
}

func progressCacheKey(userID uint) string {
	return fmt.Sprintf("progress:user:%d", userID)
}

func (s *progressService) GetProgress(ctx context.Context, userID uint) (dto.ProgressResponse, error) {
	cacheKey := progressCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.ProgressCacheLookups().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("user_id", userID).Msg("progress cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
		observability.ProgressCacheLookups().WithLabelValues("miss").Inc()
	}

	sessions, err := s.sessions.ListEvaluatedByUser(ctx, userID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	response := dto.ProgressResponse{
		UserID:      userID,
		Modules:     []dto.ModuleProgress{summariseModule(models.ModuleWriting, sessions), summariseModule(models.ModuleSpeaking, sessions)},
		GeneratedAt: s.now().UTC(),
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func (s *progressService) Invalidate(ctx context.Context, userID uint) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, progressCacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate progress cache: %w", err)
	}
	return nil
}

// summariseModule expects sessions ordered oldest first.
func summariseModule(module string, sessions []models.EvaluationSession) dto.ModuleProgress {
	progress := dto.ModuleProgress{Module: module, CriterionAverages: map[string]float64{}}

	var total float64
	criterionTotals := map[string]float64{}
	criterionCounts := map[string]int{}

	for _, session := range sessions {
		if session.Module != module || session.OverallBand == nil {
			continue
		}
		band := *session.OverallBand
		progress.Attempts++
		total += band
		if band > progress.BestBand {
			progress.BestBand = band
		}
		progress.LatestBand = band
		createdAt := session.CreatedAt
		progress.LastAttemptAt = &createdAt

		for criterion, value := range session.CriterionBands {
			if score, ok := toFloat(value); ok {
				criterionTotals[criterion] += score
				criterionCounts[criterion]++
			}
		}
	}

	if progress.Attempts > 0 {
		progress.AverageBand = round2(total / float64(progress.Attempts))
	}

	for criterion, sum := range criterionTotals {
		progress.CriterionAverages[criterion] = round2(sum / float64(criterionCounts[criterion]))
	}

	return progress
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
