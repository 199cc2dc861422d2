package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/repository"
)

// ErrReviewNotFound indicates a review could not be found.
var ErrReviewNotFound = errors.New("review not found")

// ErrDuplicateAssignment indicates the reviewer already holds a live review for
// the submission.
var ErrDuplicateAssignment = errors.New("reviewer already assigned to submission")

// ErrReviewerNotInTrack indicates the user is not part of the track's reviewer pool.
var ErrReviewerNotInTrack = errors.New("reviewer is not registered for this track")

// ErrReviewCompleted indicates the review is finished and can no longer be
// retracted or modified by a manager.
var ErrReviewCompleted = errors.New("completed review cannot be removed")

// AssignmentService enforces the reviewer assignment rules: track-scoped
// authorization, duplicate prevention, and pre-completion soft removal.
type AssignmentService interface {
	Assign(ctx context.Context, submissionID uint, payload dto.ReviewerAssignRequest, actor Actor) (dto.ReviewResponse, error)
	AssignBulk(ctx context.Context, submissionID uint, payload dto.ReviewerBulkAssignRequest, actor Actor) (dto.BulkAssignmentResponse, error)
	Remove(ctx context.Context, reviewID uint, payload dto.ReviewerRemoveRequest, actor Actor) error
	AvailableReviewers(ctx context.Context, submissionID uint, actor Actor) ([]dto.AvailableReviewerResponse, error)
}

type assignmentService struct {
	submissions     repository.SubmissionRepository
	reviews         repository.ReviewRepository
	trackMembers    repository.TrackAssignmentRepository
	history         repository.StatusHistoryRepository
	tx              repository.Transactor
	guard           *AuthzGuard
	notifier        Notifier
	validator       *validator.Validate
	defaultDeadline time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(
	submissions repository.SubmissionRepository,
	reviews repository.ReviewRepository,
	trackMembers repository.TrackAssignmentRepository,
	history repository.StatusHistoryRepository,
	tx repository.Transactor,
	guard *AuthzGuard,
	notifier Notifier,
	validate *validator.Validate,
	defaultDeadline time.Duration,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		submissions:     submissions,
		reviews:         reviews,
		trackMembers:    trackMembers,
		history:         history,
		tx:              tx,
		guard:           guard,
		notifier:        notifier,
		validator:       validate,
		defaultDeadline: defaultDeadline,
		logger:          logger.With().Str("component", "assignment_service").Logger(),
		now:             time.Now,
	}
}

func (s *assignmentService) Assign(ctx context.Context, submissionID uint, payload dto.ReviewerAssignRequest, actor Actor) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewResponse{}, err
	}

	var review models.Review
	var transitioned bool
	var from, to string

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		submission, err := s.submissions.GetForUpdate(ctx, submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if err := s.guard.RequireTrackManager(ctx, actor, submission.TrackID); err != nil {
			return err
		}

		inPool, err := s.guard.IsTrackReviewer(ctx, payload.ReviewerID, submission.TrackID)
		if err != nil {
			return err
		}
		if !inPool {
			return ErrReviewerNotInTrack
		}

		if _, err := s.reviews.GetBySubmissionAndReviewer(ctx, submissionID, payload.ReviewerID); err == nil {
			return ErrDuplicateAssignment
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		deadline := s.now().Add(s.defaultDeadline)
		if payload.Deadline != nil {
			deadline = *payload.Deadline
		}

		review = models.Review{
			SubmissionID: submissionID,
			ReviewerID:   payload.ReviewerID,
			AssignedByID: actor.ID,
			AssignedAt:   s.now(),
			Deadline:     deadline,
			Decision:     models.DecisionNotReviewed,
		}

		if err := s.reviews.Create(ctx, &review); err != nil {
			return err
		}

		if next, ok := NextStatus(submission.Status, EventReviewerAssigned); ok {
			from, to = submission.Status, next
			submission.Status = next
			transitioned = true

			if err := s.submissions.Update(ctx, &submission); err != nil {
				return err
			}
			if err := s.recordTransition(ctx, submission.ID, from, to, actor, "reviewer assigned"); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return dto.ReviewResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Uint("reviewer_id", payload.ReviewerID).
		Bool("transitioned", transitioned).
		Msg("reviewer assigned")

	if s.notifier != nil {
		reviewID := review.ID
		s.notifier.ReviewerAssigned(ctx, WorkflowEvent{
			SubmissionID: submissionID,
			ReviewID:     &reviewID,
			ActorID:      actor.ID,
			RecipientID:  payload.ReviewerID,
			FromStatus:   from,
			ToStatus:     to,
		})
	}

	return dto.NewReviewResponse(review), nil
}

// AssignBulk applies Assign per reviewer with per-item error isolation. A
// duplicate or rejected id is skipped and reported; it never aborts siblings.
func (s *assignmentService) AssignBulk(ctx context.Context, submissionID uint, payload dto.ReviewerBulkAssignRequest, actor Actor) (dto.BulkAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkAssignmentResponse{}, err
	}

	result := dto.BulkAssignmentResponse{}
	seen := make(map[uint]struct{}, len(payload.ReviewerIDs))

	for _, reviewerID := range payload.ReviewerIDs {
		if _, dup := seen[reviewerID]; dup {
			result.Skipped = append(result.Skipped, dto.SkippedAssignment{
				ReviewerID: reviewerID,
				Reason:     ErrDuplicateAssignment.Error(),
			})
			continue
		}
		seen[reviewerID] = struct{}{}

		single := dto.ReviewerAssignRequest{ReviewerID: reviewerID, Deadline: payload.Deadline}
		review, err := s.Assign(ctx, submissionID, single, actor)
		if err != nil {
			// Hard failures on the submission itself abort the batch; per-id
			// problems are the expected partial-failure mode.
			if errors.Is(err, ErrSubmissionNotFound) || errors.Is(err, ErrUnauthorized) {
				return result, err
			}
			result.Skipped = append(result.Skipped, dto.SkippedAssignment{
				ReviewerID: reviewerID,
				Reason:     err.Error(),
			})
			continue
		}

		result.Assigned = append(result.Assigned, review)
	}

	result.AssignedCount = len(result.Assigned)
	result.SkippedCount = len(result.Skipped)

	s.logger.Info().
		Uint("submission_id", submissionID).
		Int("assigned", result.AssignedCount).
		Int("skipped", result.SkippedCount).
		Msg("bulk reviewer assignment finished")

	return result, nil
}

func (s *assignmentService) Remove(ctx context.Context, reviewID uint, payload dto.ReviewerRemoveRequest, actor Actor) error {
	var removed models.Review

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		review, err := s.reviews.GetByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		if err := s.guard.RequireTrackManager(ctx, actor, review.Submission.TrackID); err != nil {
			return err
		}

		// A finished review is part of the audit record and can never be retracted.
		if review.Completed {
			return ErrReviewCompleted
		}

		review.Deleted = true
		if err := s.reviews.Update(ctx, &review); err != nil {
			return err
		}

		removed = review
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Uint("review_id", reviewID).
		Uint("reviewer_id", removed.ReviewerID).
		Str("reason", payload.Reason).
		Msg("reviewer removed")

	if s.notifier != nil {
		s.notifier.ReviewerRemoved(ctx, WorkflowEvent{
			SubmissionID: removed.SubmissionID,
			ReviewID:     &reviewID,
			ActorID:      actor.ID,
			RecipientID:  removed.ReviewerID,
			Notes:        payload.Reason,
		})
	}

	return nil
}

func (s *assignmentService) AvailableReviewers(ctx context.Context, submissionID uint, actor Actor) ([]dto.AvailableReviewerResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if err := s.guard.RequireTrackManager(ctx, actor, submission.TrackID); err != nil {
		return nil, err
	}

	pool, err := s.trackMembers.ListByTrack(ctx, submission.TrackID, models.TrackRoleReviewer)
	if err != nil {
		return nil, err
	}

	assigned, err := s.reviews.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	taken := make(map[uint]struct{}, len(assigned))
	for _, review := range assigned {
		taken[review.ReviewerID] = struct{}{}
	}

	available := make([]dto.AvailableReviewerResponse, 0, len(pool))
	for _, member := range pool {
		if _, ok := taken[member.UserID]; ok {
			continue
		}
		available = append(available, dto.AvailableReviewerResponse{
			ReviewerID: member.UserID,
			TrackID:    member.TrackID,
		})
	}

	return available, nil
}

// recordTransition mirrors submissionService.recordTransition for transitions
// triggered by assignment events.
func (s *assignmentService) recordTransition(ctx context.Context, submissionID uint, from, to string, actor Actor, notes string) error {
	return recordStatusHistory(ctx, s.history, submissionID, from, to, actor, notes)
}
