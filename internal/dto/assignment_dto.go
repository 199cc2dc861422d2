package dto

import "time"

// ReviewerAssignRequest assigns one reviewer to a submission.
type ReviewerAssignRequest struct {
	ReviewerID uint       `json:"reviewer_id" validate:"required,gt=0"`
	Deadline   *time.Time `json:"deadline" validate:"omitempty"`
}

// ReviewerBulkAssignRequest assigns multiple reviewers best-effort.
type ReviewerBulkAssignRequest struct {
	ReviewerIDs []uint     `json:"reviewer_ids" validate:"required,min=1,dive,gt=0"`
	Deadline    *time.Time `json:"deadline" validate:"omitempty"`
}

// ReviewerRemoveRequest soft-removes a reviewer from a submission.
type ReviewerRemoveRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=2000"`
}

// SkippedAssignment records one reviewer id a bulk assignment passed over.
type SkippedAssignment struct {
	ReviewerID uint   `json:"reviewer_id"`
	Reason     string `json:"reason"`
}

// BulkAssignmentResponse reports the partial outcome of a bulk assignment.
type BulkAssignmentResponse struct {
	AssignedCount int                 `json:"assigned_count"`
	SkippedCount  int                 `json:"skipped_count"`
	Assigned      []ReviewResponse    `json:"assigned,omitempty"`
	Skipped       []SkippedAssignment `json:"skipped,omitempty"`
}

// AvailableReviewerResponse is one reviewer-pool member eligible for assignment.
type AvailableReviewerResponse struct {
	ReviewerID uint `json:"reviewer_id"`
	TrackID    uint `json:"track_id"`
}
