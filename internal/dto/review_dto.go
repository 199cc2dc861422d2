package dto

import (
	"time"

	"github.com/noah-isme/crms-go-api/internal/models"
)

// ReviewSubmitRequest carries a reviewer's full verdict for a submission.
type ReviewSubmitRequest struct {
	Decision          string `json:"decision" validate:"required,oneof=accept_as_is accept_minor_revisions major_revisions_required reject not_suitable"`
	OriginalityScore  int    `json:"originality_score" validate:"required,min=1,max=10"`
	MethodologyScore  int    `json:"methodology_score" validate:"required,min=1,max=10"`
	ClarityScore      int    `json:"clarity_score" validate:"required,min=1,max=10"`
	SignificanceScore int    `json:"significance_score" validate:"required,min=1,max=10"`
	ReferencesScore   int    `json:"references_score" validate:"required,min=1,max=10"`
	CommentsToAuthor  string `json:"comments_to_author" validate:"omitempty,max=10000"`
	CommentsToManager string `json:"comments_to_manager" validate:"omitempty,max=10000"`
}

// ReviewUpdateRequest carries partial changes to an existing review.
type ReviewUpdateRequest struct {
	Decision          *string `json:"decision" validate:"omitempty,oneof=not_reviewed accept_as_is accept_minor_revisions major_revisions_required reject not_suitable"`
	OriginalityScore  *int    `json:"originality_score" validate:"omitempty,min=1,max=10"`
	MethodologyScore  *int    `json:"methodology_score" validate:"omitempty,min=1,max=10"`
	ClarityScore      *int    `json:"clarity_score" validate:"omitempty,min=1,max=10"`
	SignificanceScore *int    `json:"significance_score" validate:"omitempty,min=1,max=10"`
	ReferencesScore   *int    `json:"references_score" validate:"omitempty,min=1,max=10"`
	CommentsToAuthor  *string `json:"comments_to_author" validate:"omitempty,max=10000"`
	CommentsToManager *string `json:"comments_to_manager" validate:"omitempty,max=10000"`
	Completed         *bool   `json:"completed"`
}

// ReviewResponse is returned to API clients when viewing reviews.
type ReviewResponse struct {
	ID                uint       `json:"id"`
	SubmissionID      uint       `json:"submission_id"`
	ReviewerID        uint       `json:"reviewer_id"`
	AssignedByID      uint       `json:"assigned_by_id"`
	AssignedAt        time.Time  `json:"assigned_at"`
	Deadline          time.Time  `json:"deadline"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completed_at"`
	Decision          string     `json:"decision"`
	OriginalityScore  int        `json:"originality_score"`
	MethodologyScore  int        `json:"methodology_score"`
	ClarityScore      int        `json:"clarity_score"`
	SignificanceScore int        `json:"significance_score"`
	ReferencesScore   int        `json:"references_score"`
	OverallScore      float64    `json:"overall_score"`
	CommentsToAuthor  string     `json:"comments_to_author"`
	CommentsToManager string     `json:"comments_to_manager"`
	ReReview          bool       `json:"re_review"`
}

// NewReviewResponse maps a model to its response payload.
func NewReviewResponse(review models.Review) ReviewResponse {
	return ReviewResponse{
		ID:                review.ID,
		SubmissionID:      review.SubmissionID,
		ReviewerID:        review.ReviewerID,
		AssignedByID:      review.AssignedByID,
		AssignedAt:        review.AssignedAt,
		Deadline:          review.Deadline,
		Completed:         review.Completed,
		CompletedAt:       review.CompletedAt,
		Decision:          review.Decision,
		OriginalityScore:  review.OriginalityScore,
		MethodologyScore:  review.MethodologyScore,
		ClarityScore:      review.ClarityScore,
		SignificanceScore: review.SignificanceScore,
		ReferencesScore:   review.ReferencesScore,
		OverallScore:      review.OverallScore,
		CommentsToAuthor:  review.CommentsToAuthor,
		CommentsToManager: review.CommentsToManager,
		ReReview:          review.ReReview,
	}
}

// AggregateScoreResponse summarizes the completed reviews for one submission.
type AggregateScoreResponse struct {
	SubmissionID     uint             `json:"submission_id"`
	TotalReviews     int              `json:"total_reviews"`
	CompletedReviews int              `json:"completed_reviews"`
	AverageScore     float64          `json:"average_score"`
	Reviews          []ReviewResponse `json:"reviews,omitempty"`
}
