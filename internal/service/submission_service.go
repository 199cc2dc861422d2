package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/observability"
	"github.com/noah-isme/crms-go-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrTrackNotFound indicates the referenced track does not exist.
var ErrTrackNotFound = errors.New("track not found")

// ErrSubmissionNotEditable indicates the submission is past the point where
// the author may modify it.
var ErrSubmissionNotEditable = errors.New("submission can no longer be edited")

// ErrRejectionReasonRequired indicates a rejection was requested without a reason.
var ErrRejectionReasonRequired = errors.New("rejection reason is required")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService owns the submission lifecycle: creation, author edits,
// manager decisions, and the audit trail.
type SubmissionService interface {
	Create(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, actor Actor) (dto.SubmissionResponse, error)
	Edit(ctx context.Context, id uint, payload dto.SubmissionUpdateRequest, actor Actor) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	History(ctx context.Context, id uint) ([]dto.StatusHistoryResponse, error)
	SetStatus(ctx context.Context, id uint, payload dto.SubmissionStatusRequest, actor Actor) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	tracks      repository.TrackRepository
	history     repository.StatusHistoryRepository
	tx          repository.Transactor
	guard       *AuthzGuard
	notifier    Notifier
	uploader    FileUploader
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	tracks repository.TrackRepository,
	history repository.StatusHistoryRepository,
	tx repository.Transactor,
	guard *AuthzGuard,
	notifier Notifier,
	uploader FileUploader,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		tracks:      tracks,
		history:     history,
		tx:          tx,
		guard:       guard,
		notifier:    notifier,
		uploader:    uploader,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, actor Actor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.tracks.GetByID(ctx, payload.TrackID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrTrackNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	fileURL := ""
	if file != nil {
		url, err := s.uploadManuscript(ctx, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		fileURL = url
	}

	submission := models.Submission{
		Title:       strings.TrimSpace(payload.Title),
		Abstract:    payload.Abstract,
		Keywords:    payload.Keywords,
		FileURL:     fileURL,
		TrackID:     payload.TrackID,
		Status:      models.StatusSubmitted,
		AuthorID:    actor.ID,
		SubmittedAt: s.now(),
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.submissions.Create(ctx, &submission); err != nil {
			return err
		}
		return s.recordTransition(ctx, submission.ID, "", models.StatusSubmitted, actor, "submission created")
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("author_id", actor.ID).Msg("submission created")

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) Edit(ctx context.Context, id uint, payload dto.SubmissionUpdateRequest, actor Actor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	var updated models.Submission
	var from, to string

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		submission, err := s.submissions.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if err := s.guard.RequireAuthor(actor, submission); err != nil {
			return err
		}

		if !submission.IsEditable() {
			return ErrSubmissionNotEditable
		}

		if payload.Title != nil {
			submission.Title = strings.TrimSpace(*payload.Title)
		}
		if payload.Abstract != nil {
			submission.Abstract = *payload.Abstract
		}
		if payload.Keywords != nil {
			submission.Keywords = *payload.Keywords
		}

		// An edit while revisions are outstanding is the author resubmitting.
		if next, ok := NextStatus(submission.Status, EventAuthorEdited); ok {
			from, to = submission.Status, next
			submission.Status = next
		}

		if err := s.submissions.Update(ctx, &submission); err != nil {
			return err
		}

		if to != "" {
			if err := s.recordTransition(ctx, submission.ID, from, to, actor, "revisions submitted"); err != nil {
				return err
			}
		}

		updated = submission
		return nil
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if to != "" && s.notifier != nil {
		s.notifier.StatusChanged(ctx, WorkflowEvent{
			SubmissionID: updated.ID,
			ActorID:      actor.ID,
			RecipientID:  derefUint(updated.TrackManagerID),
			FromStatus:   from,
			ToStatus:     to,
		})
	}

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		TrackID:  filter.TrackID,
		AuthorID: filter.AuthorID,
		Status:   filter.Status,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) History(ctx context.Context, id uint) ([]dto.StatusHistoryResponse, error) {
	if _, err := s.submissions.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	entries, err := s.history.ListBySubmission(ctx, id)
	if err != nil {
		return nil, err
	}

	return dto.NewStatusHistoryResponseSlice(entries), nil
}

func (s *submissionService) SetStatus(ctx context.Context, id uint, payload dto.SubmissionStatusRequest, actor Actor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/crms-go-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.set_status")
	span.SetAttributes(
		attribute.Int64("submission.id", int64(id)),
		attribute.String("submission.target_status", payload.Status),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	var updated models.Submission
	var from string

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		submission, err := s.submissions.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if err := s.guard.RequireTrackManager(ctx, actor, submission.TrackID); err != nil {
			return err
		}

		if err := ValidateDecision(submission.Status, payload.Status); err != nil {
			return err
		}

		if payload.Status == models.StatusRejected && strings.TrimSpace(payload.RejectionReason) == "" {
			return ErrRejectionReasonRequired
		}

		from = submission.Status
		submission.Status = payload.Status

		switch payload.Status {
		case models.StatusAccepted, models.StatusRejected:
			decidedAt := s.now()
			submission.DecisionAt = &decidedAt
		}
		if payload.Status == models.StatusRejected {
			submission.RejectionReason = strings.TrimSpace(payload.RejectionReason)
		}
		if submission.TrackManagerID == nil {
			managerID := actor.ID
			submission.TrackManagerID = &managerID
		}

		if err := s.submissions.Update(ctx, &submission); err != nil {
			return err
		}

		if err := s.recordTransition(ctx, submission.ID, from, submission.Status, actor, payload.Notes); err != nil {
			return err
		}

		updated = submission
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set_status_failed")
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", updated.ID).
		Str("from", from).
		Str("to", updated.Status).
		Uint("actor_id", actor.ID).
		Msg("submission status set")

	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, WorkflowEvent{
			SubmissionID: updated.ID,
			ActorID:      actor.ID,
			RecipientID:  updated.AuthorID,
			FromStatus:   from,
			ToStatus:     updated.Status,
			Notes:        payload.Notes,
		})
	}

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) recordTransition(ctx context.Context, submissionID uint, from, to string, actor Actor, notes string) error {
	return recordStatusHistory(ctx, s.history, submissionID, from, to, actor, notes)
}

// recordStatusHistory appends the audit row for a status change. It must run
// inside the same transaction as the status write.
func recordStatusHistory(ctx context.Context, history repository.StatusHistoryRepository, submissionID uint, from, to string, actor Actor, notes string) error {
	entry := models.StatusHistory{
		SubmissionID: submissionID,
		FromStatus:   from,
		ToStatus:     to,
		ActorID:      actor.ID,
		Notes:        notes,
		Metadata:     datatypes.JSONMap{"actor_role": actor.Role},
	}

	if err := history.Create(ctx, &entry); err != nil {
		return fmt.Errorf("failed to record status transition: %w", err)
	}

	observability.WorkflowTransitions().WithLabelValues(from, to).Inc()
	return nil
}

func (s *submissionService) uploadManuscript(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("file storage is not configured")
	}

	if err := validateManuscriptType(file); err != nil {
		return "", err
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload manuscript: %w", err)
	}

	return url, nil
}

func validateManuscriptType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported manuscript type: %s", mime.String())
}

func derefUint(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}
