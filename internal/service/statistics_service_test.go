package service

import (
	"context"
	"io"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crms-go-api/internal/models"
)

func seedReviewerHistory(repo *memoryReviewRepo, reviewerID uint, now time.Time) {
	completedEarly := now.Add(-10 * 24 * time.Hour)
	completedLate := now.Add(-2 * 24 * time.Hour)
	assigned := now.Add(-14 * 24 * time.Hour)

	repo.reviews[1] = models.Review{
		ID: 1, SubmissionID: 1, ReviewerID: reviewerID,
		AssignedAt: assigned, Deadline: assigned.Add(14 * 24 * time.Hour),
		Completed: true, CompletedAt: &completedEarly,
		Decision: models.DecisionAcceptAsIs, OverallScore: 8,
	}
	repo.reviews[2] = models.Review{
		ID: 2, SubmissionID: 2, ReviewerID: reviewerID,
		AssignedAt: assigned, Deadline: assigned.Add(14 * 24 * time.Hour),
		Completed: true, CompletedAt: &completedLate,
		Decision: models.DecisionReject, OverallScore: 3,
	}
	// Pending and already past its deadline.
	repo.reviews[3] = models.Review{
		ID: 3, SubmissionID: 3, ReviewerID: reviewerID,
		AssignedAt: assigned, Deadline: now.Add(-24 * time.Hour),
		Decision: models.DecisionNotReviewed,
	}
	// Pending, deadline still open.
	repo.reviews[4] = models.Review{
		ID: 4, SubmissionID: 4, ReviewerID: reviewerID,
		AssignedAt: now, Deadline: now.Add(7 * 24 * time.Hour),
		Decision: models.DecisionNotReviewed,
	}
	repo.nextID = 5
}

func TestReviewerStatisticsComputation(t *testing.T) {
	now := time.Now()
	repo := newMemoryReviewRepo(newMemorySubmissionRepo())
	seedReviewerHistory(repo, 100, now)

	svc := NewStatisticsService(repo, nil, time.Minute, zerolog.New(io.Discard))

	stats, err := svc.ReviewerStatistics(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalReviews)
	require.Equal(t, 2, stats.CompletedReviews)
	require.Equal(t, 2, stats.PendingReviews)
	require.Equal(t, 1, stats.OverdueReviews)
	require.InDelta(t, 5.5, stats.AverageScore, 0.0001)
	// Turnarounds of 4 and 12 days.
	require.InDelta(t, 8.0, stats.AverageTurnaroundDays, 0.01)
	require.InDelta(t, 0.5, stats.AcceptanceRate, 0.0001)
}

func TestReviewerStatisticsCacheAndInvalidate(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	now := time.Now()
	repo := newMemoryReviewRepo(newMemorySubmissionRepo())
	seedReviewerHistory(repo, 100, now)

	svc := NewStatisticsService(repo, redisClient, time.Minute, zerolog.New(io.Discard))

	first, err := svc.ReviewerStatistics(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 4, first.TotalReviews)

	// Mutating the repo must not show through the cache.
	delete(repo.reviews, 4)

	cached, err := svc.ReviewerStatistics(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 4, cached.TotalReviews)

	svc.Invalidate(context.Background(), 100)

	fresh, err := svc.ReviewerStatistics(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 3, fresh.TotalReviews)
}

func TestReviewerStatisticsNoReviews(t *testing.T) {
	repo := newMemoryReviewRepo(newMemorySubmissionRepo())

	svc := NewStatisticsService(repo, nil, time.Minute, zerolog.New(io.Discard))

	stats, err := svc.ReviewerStatistics(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalReviews)
	require.Zero(t, stats.AverageScore)
	require.Zero(t, stats.AcceptanceRate)
}
