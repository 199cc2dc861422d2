package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/repository"
)

// StatisticsService produces derived reviewer workload metrics. Values are
// recomputed from current review rows on every cache miss; every review write
// invalidates the reviewer's cache entry first.
type StatisticsService interface {
	ReviewerStatistics(ctx context.Context, reviewerID uint) (dto.ReviewerStatisticsResponse, error)
	Invalidate(ctx context.Context, reviewerID uint)
}

type statisticsService struct {
	reviews  repository.ReviewRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStatisticsService builds the statistics aggregator.
func NewStatisticsService(reviews repository.ReviewRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatisticsService {
	return &statisticsService{
		reviews:  reviews,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "statistics_service").Logger(),
		now:      time.Now,
	}
}

func statisticsCacheKey(reviewerID uint) string {
	return fmt.Sprintf("statistics:reviewer:%d", reviewerID)
}

func (s *statisticsService) ReviewerStatistics(ctx context.Context, reviewerID uint) (dto.ReviewerStatisticsResponse, error) {
	cacheKey := statisticsCacheKey(reviewerID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ReviewerStatisticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("reviewer_id", reviewerID).Msg("statistics cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read statistics cache")
		}
	}

	reviews, err := s.reviews.ListByReviewer(ctx, reviewerID)
	if err != nil {
		return dto.ReviewerStatisticsResponse{}, err
	}

	response := dto.ReviewerStatisticsResponse{ReviewerID: reviewerID}
	reference := s.now()

	var scoreSum float64
	var turnaroundSum float64
	var positive int

	for _, review := range reviews {
		response.TotalReviews++

		if !review.Completed {
			response.PendingReviews++
			if review.IsOverdue(reference) {
				response.OverdueReviews++
			}
			continue
		}

		response.CompletedReviews++
		scoreSum += review.OverallScore
		if review.IsPositive() {
			positive++
		}
		if review.CompletedAt != nil {
			turnaroundSum += review.CompletedAt.Sub(review.AssignedAt).Hours() / 24
		}
	}

	if response.CompletedReviews > 0 {
		response.AverageScore = scoreSum / float64(response.CompletedReviews)
		response.AverageTurnaroundDays = turnaroundSum / float64(response.CompletedReviews)
		response.AcceptanceRate = float64(positive) / float64(response.CompletedReviews)
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store statistics cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached statistics for a reviewer after a review write.
func (s *statisticsService) Invalidate(ctx context.Context, reviewerID uint) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, statisticsCacheKey(reviewerID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("reviewer_id", reviewerID).Msg("failed to invalidate statistics cache")
	}
}
