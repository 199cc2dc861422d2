package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/observability"
	"github.com/noah-isme/crms-go-api/internal/repository"
)

// ErrReviewAlreadySubmitted indicates the reviewer already completed a review
// for this submission and must use an update instead.
var ErrReviewAlreadySubmitted = errors.New("review already submitted for this submission")

// ErrMissingDecision indicates completion was requested before a decision was recorded.
var ErrMissingDecision = errors.New("review has no recorded decision")

// StatisticsInvalidator drops derived reviewer statistics after a review write
// so reads never serve stale aggregates.
type StatisticsInvalidator interface {
	Invalidate(ctx context.Context, reviewerID uint)
}

// ReviewService records reviewer verdicts and derives the submission's
// automatic transitions from aggregate review state.
type ReviewService interface {
	Submit(ctx context.Context, submissionID uint, payload dto.ReviewSubmitRequest, actor Actor) (dto.ReviewResponse, error)
	Update(ctx context.Context, reviewID uint, payload dto.ReviewUpdateRequest, actor Actor) (dto.ReviewResponse, error)
	Complete(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewResponse, error)
	AggregateScore(ctx context.Context, submissionID uint) (dto.AggregateScoreResponse, error)
}

type reviewService struct {
	submissions     repository.SubmissionRepository
	reviews         repository.ReviewRepository
	history         repository.StatusHistoryRepository
	tx              repository.Transactor
	guard           *AuthzGuard
	notifier        Notifier
	stats           StatisticsInvalidator
	validator       *validator.Validate
	sanitizer       *bluemonday.Policy
	threshold       int
	defaultDeadline time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

// NewReviewService constructs a ReviewService instance. The threshold is the
// number of completed reviews that forces a submission into evaluation.
func NewReviewService(
	submissions repository.SubmissionRepository,
	reviews repository.ReviewRepository,
	history repository.StatusHistoryRepository,
	tx repository.Transactor,
	guard *AuthzGuard,
	notifier Notifier,
	stats StatisticsInvalidator,
	validate *validator.Validate,
	threshold int,
	defaultDeadline time.Duration,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		submissions:     submissions,
		reviews:         reviews,
		history:         history,
		tx:              tx,
		guard:           guard,
		notifier:        notifier,
		stats:           stats,
		validator:       validate,
		sanitizer:       bluemonday.StrictPolicy(),
		threshold:       threshold,
		defaultDeadline: defaultDeadline,
		logger:          logger.With().Str("component", "review_service").Logger(),
		now:             time.Now,
	}
}

func (s *reviewService) Submit(ctx context.Context, submissionID uint, payload dto.ReviewSubmitRequest, actor Actor) (dto.ReviewResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/crms-go-api/internal/service/review")
	ctx, span := tracer.Start(ctx, "review.submit")
	span.SetAttributes(
		attribute.Int64("review.submission_id", int64(submissionID)),
		attribute.Int64("review.reviewer_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReviewResponse{}, err
	}

	var review models.Review

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		submission, err := s.submissions.GetForUpdate(ctx, submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		existing, err := s.reviews.GetBySubmissionAndReviewer(ctx, submissionID, actor.ID)
		switch {
		case err == nil && existing.Completed:
			return ErrReviewAlreadySubmitted
		case err == nil:
			review = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Self-assignment path: the reviewer files a review without a
			// prior manager assignment, allowed only inside their own track.
			inPool, poolErr := s.guard.IsTrackReviewer(ctx, actor.ID, submission.TrackID)
			if poolErr != nil {
				return poolErr
			}
			if !inPool && !actor.IsAdmin() {
				return ErrReviewerNotInTrack
			}

			review = models.Review{
				SubmissionID: submissionID,
				ReviewerID:   actor.ID,
				AssignedByID: actor.ID,
				AssignedAt:   s.now(),
				Deadline:     s.now().Add(s.defaultDeadline),
			}
		default:
			return err
		}

		review.OriginalityScore = payload.OriginalityScore
		review.MethodologyScore = payload.MethodologyScore
		review.ClarityScore = payload.ClarityScore
		review.SignificanceScore = payload.SignificanceScore
		review.ReferencesScore = payload.ReferencesScore
		review.OverallScore = review.ComputeOverallScore()
		review.Decision = payload.Decision
		review.CommentsToAuthor = s.sanitizer.Sanitize(payload.CommentsToAuthor)
		review.CommentsToManager = s.sanitizer.Sanitize(payload.CommentsToManager)
		review.Completed = true
		completedAt := s.now()
		review.CompletedAt = &completedAt

		if review.ID == 0 {
			if err := s.reviews.Create(ctx, &review); err != nil {
				return err
			}
		} else {
			if err := s.reviews.Update(ctx, &review); err != nil {
				return err
			}
		}

		return s.applyReviewTriggers(ctx, &submission, actor)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit_failed")
		return dto.ReviewResponse{}, err
	}

	observability.ReviewsCompleted().WithLabelValues(review.Decision).Inc()
	s.logger.Info().
		Uint("review_id", review.ID).
		Uint("submission_id", submissionID).
		Str("decision", review.Decision).
		Float64("overall_score", review.OverallScore).
		Msg("review submitted")

	s.afterCompletion(ctx, review, actor)

	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) Update(ctx context.Context, reviewID uint, payload dto.ReviewUpdateRequest, actor Actor) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewResponse{}, err
	}

	var review models.Review
	var becameCompleted bool

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.reviews.GetByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		if err := s.guard.RequireReviewer(actor, current); err != nil {
			return err
		}

		var submission models.Submission
		wantsCompletion := payload.Completed != nil && *payload.Completed && !current.Completed
		if wantsCompletion {
			// Lock the submission before touching the review so completion
			// races against Submit resolve in a single lock order, then
			// re-read the review in case a concurrent write landed first.
			submission, err = s.submissions.GetForUpdate(ctx, current.SubmissionID)
			if err != nil {
				return err
			}
			current, err = s.reviews.GetByID(ctx, reviewID)
			if err != nil {
				return err
			}
		}

		if payload.OriginalityScore != nil {
			current.OriginalityScore = *payload.OriginalityScore
		}
		if payload.MethodologyScore != nil {
			current.MethodologyScore = *payload.MethodologyScore
		}
		if payload.ClarityScore != nil {
			current.ClarityScore = *payload.ClarityScore
		}
		if payload.SignificanceScore != nil {
			current.SignificanceScore = *payload.SignificanceScore
		}
		if payload.ReferencesScore != nil {
			current.ReferencesScore = *payload.ReferencesScore
		}
		current.OverallScore = current.ComputeOverallScore()

		if payload.Decision != nil {
			current.Decision = *payload.Decision
		}
		if payload.CommentsToAuthor != nil {
			current.CommentsToAuthor = s.sanitizer.Sanitize(*payload.CommentsToAuthor)
		}
		if payload.CommentsToManager != nil {
			current.CommentsToManager = s.sanitizer.Sanitize(*payload.CommentsToManager)
		}

		if payload.Completed != nil {
			switch {
			case *payload.Completed && !current.Completed:
				current.Completed = true
				completedAt := s.now()
				current.CompletedAt = &completedAt
				becameCompleted = true
			case !*payload.Completed && current.Completed:
				current.Completed = false
				current.CompletedAt = nil
			}
		}

		// A review that is, or becomes, completed must carry a real decision.
		if current.Completed && current.Decision == models.DecisionNotReviewed {
			return ErrMissingDecision
		}

		if err := s.reviews.Update(ctx, &current); err != nil {
			return err
		}

		if becameCompleted {
			if err := s.applyReviewTriggers(ctx, &submission, actor); err != nil {
				return err
			}
		}

		review = current
		return nil
	})
	if err != nil {
		return dto.ReviewResponse{}, err
	}

	s.logger.Info().Uint("review_id", review.ID).Bool("completed", review.Completed).Msg("review updated")

	if becameCompleted {
		observability.ReviewsCompleted().WithLabelValues(review.Decision).Inc()
		s.afterCompletion(ctx, review, actor)
	} else if s.stats != nil {
		s.stats.Invalidate(ctx, review.ReviewerID)
	}

	return dto.NewReviewResponse(review), nil
}

// Complete is an idempotent completion toggle: completing an already-completed
// review succeeds without touching the row or emitting side effects.
func (s *reviewService) Complete(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewResponse, error) {
	var review models.Review
	var alreadyDone bool

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.reviews.GetByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		if err := s.guard.RequireReviewer(actor, current); err != nil {
			return err
		}

		if current.Completed {
			review = current
			alreadyDone = true
			return nil
		}

		// Lock the submission first, matching the submit path, then re-read
		// the review so a completion that won the race is not repeated.
		submission, err := s.submissions.GetForUpdate(ctx, current.SubmissionID)
		if err != nil {
			return err
		}
		current, err = s.reviews.GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if current.Completed {
			review = current
			alreadyDone = true
			return nil
		}

		if current.Decision == models.DecisionNotReviewed {
			return ErrMissingDecision
		}

		current.Completed = true
		completedAt := s.now()
		current.CompletedAt = &completedAt

		if err := s.reviews.Update(ctx, &current); err != nil {
			return err
		}

		if err := s.applyReviewTriggers(ctx, &submission, actor); err != nil {
			return err
		}

		review = current
		return nil
	})
	if err != nil {
		return dto.ReviewResponse{}, err
	}

	if alreadyDone {
		return dto.NewReviewResponse(review), nil
	}

	observability.ReviewsCompleted().WithLabelValues(review.Decision).Inc()
	s.logger.Info().Uint("review_id", review.ID).Msg("review completed")

	s.afterCompletion(ctx, review, actor)

	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) AggregateScore(ctx context.Context, submissionID uint) (dto.AggregateScoreResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateScoreResponse{}, ErrSubmissionNotFound
		}
		return dto.AggregateScoreResponse{}, err
	}

	reviews, err := s.reviews.ListBySubmission(ctx, submissionID)
	if err != nil {
		return dto.AggregateScoreResponse{}, err
	}

	response := dto.AggregateScoreResponse{SubmissionID: submissionID}
	var sum float64
	for _, review := range reviews {
		response.TotalReviews++
		if !review.Completed {
			continue
		}
		response.CompletedReviews++
		sum += review.OverallScore
		response.Reviews = append(response.Reviews, dto.NewReviewResponse(review))
	}

	if response.CompletedReviews > 0 {
		response.AverageScore = sum / float64(response.CompletedReviews)
	}

	return response, nil
}

// applyReviewTriggers advances the submission after a review write: the first
// completed review moves it under review, and crossing the completion
// threshold forces evaluation. Both edges are idempotent and must run inside
// the transaction that wrote the review.
func (s *reviewService) applyReviewTriggers(ctx context.Context, submission *models.Submission, actor Actor) error {
	if next, ok := NextStatus(submission.Status, EventReviewStarted); ok {
		from := submission.Status
		submission.Status = next
		if err := s.submissions.Update(ctx, submission); err != nil {
			return err
		}
		if err := recordStatusHistory(ctx, s.history, submission.ID, from, next, actor, "review submitted"); err != nil {
			return err
		}
	}

	completed, err := s.reviews.CountCompleted(ctx, submission.ID)
	if err != nil {
		return err
	}

	if completed >= int64(s.threshold) {
		if next, ok := NextStatus(submission.Status, EventReviewThreshold); ok {
			from := submission.Status
			submission.Status = next
			if err := s.submissions.Update(ctx, submission); err != nil {
				return err
			}
			if err := recordStatusHistory(ctx, s.history, submission.ID, from, next, actor, "review threshold reached"); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *reviewService) afterCompletion(ctx context.Context, review models.Review, actor Actor) {
	if s.notifier != nil {
		reviewID := review.ID
		s.notifier.ReviewCompleted(ctx, WorkflowEvent{
			SubmissionID: review.SubmissionID,
			ReviewID:     &reviewID,
			ActorID:      actor.ID,
			RecipientID:  review.AssignedByID,
		})
	}

	if s.stats != nil {
		s.stats.Invalidate(ctx, review.ReviewerID)
	}
}
