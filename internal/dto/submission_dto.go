package dto

import (
	"time"

	"github.com/noah-isme/crms-go-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a new submission.
type SubmissionCreateRequest struct {
	Title    string `form:"title" json:"title" validate:"required,min=3,max=255"`
	Abstract string `form:"abstract" json:"abstract" validate:"required,min=10"`
	Keywords string `form:"keywords" json:"keywords" validate:"omitempty,max=512"`
	TrackID  uint   `form:"track_id" json:"track_id" validate:"required,gt=0"`
}

// SubmissionUpdateRequest carries an author edit.
type SubmissionUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=3,max=255"`
	Abstract *string `json:"abstract" validate:"omitempty,min=10"`
	Keywords *string `json:"keywords" validate:"omitempty,max=512"`
}

// SubmissionStatusRequest carries a track manager decision.
type SubmissionStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=accepted rejected requires_minor_revisions requires_major_revisions"`
	Notes           string `json:"notes" validate:"omitempty,max=2000"`
	RejectionReason string `json:"rejection_reason" validate:"omitempty,max=2000"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	TrackID  *uint   `query:"track_id"`
	AuthorID *uint   `query:"author_id"`
	Status   *string `query:"status" validate:"omitempty,oneof=submitted assigned_for_review under_review under_evaluation requires_minor_revisions requires_major_revisions revisions_submitted accepted rejected"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Abstract        string     `json:"abstract"`
	Keywords        string     `json:"keywords"`
	FileURL         string     `json:"file_url"`
	TrackID         uint       `json:"track_id"`
	Track           TrackLite  `json:"track"`
	Status          string     `json:"status"`
	AuthorID        uint       `json:"author_id"`
	TrackManagerID  *uint      `json:"track_manager_id"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	DecisionAt      *time.Time `json:"decision_at"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TrackLite summarizes a track in submission responses.
type TrackLite struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewSubmissionResponse maps a model to its response payload.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              submission.ID,
		Title:           submission.Title,
		Abstract:        submission.Abstract,
		Keywords:        submission.Keywords,
		FileURL:         submission.FileURL,
		TrackID:         submission.TrackID,
		Track:           TrackLite{ID: submission.Track.ID, Code: submission.Track.Code, Name: submission.Track.Name},
		Status:          submission.Status,
		AuthorID:        submission.AuthorID,
		TrackManagerID:  submission.TrackManagerID,
		SubmittedAt:     submission.SubmittedAt,
		DecisionAt:      submission.DecisionAt,
		RejectionReason: submission.RejectionReason,
		CreatedAt:       submission.CreatedAt,
		UpdatedAt:       submission.UpdatedAt,
	}
}

// NewSubmissionResponseSlice maps a slice of models to response payloads.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}

// StatusHistoryResponse is one audit trail entry.
type StatusHistoryResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	FromStatus   string    `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	ActorID      uint      `json:"actor_id"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewStatusHistoryResponseSlice maps history models to response payloads.
func NewStatusHistoryResponseSlice(entries []models.StatusHistory) []StatusHistoryResponse {
	responses := make([]StatusHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, StatusHistoryResponse{
			ID:           entry.ID,
			SubmissionID: entry.SubmissionID,
			FromStatus:   entry.FromStatus,
			ToStatus:     entry.ToStatus,
			ActorID:      entry.ActorID,
			Notes:        entry.Notes,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return responses
}
