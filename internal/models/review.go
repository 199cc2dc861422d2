package models

import "time"

// Review represents one reviewer's evaluation task for a submission and, once
// completed, its verdict.
type Review struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	SubmissionID      uint       `gorm:"not null;index" json:"submission_id"`
	ReviewerID        uint       `gorm:"not null;index" json:"reviewer_id"`
	AssignedByID      uint       `json:"assigned_by_id"`
	AssignedAt        time.Time  `gorm:"not null" json:"assigned_at"`
	Deadline          time.Time  `gorm:"not null" json:"deadline"`
	Completed         bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt       *time.Time `json:"completed_at"`
	Decision          string     `gorm:"size:32;not null" json:"decision"`
	OriginalityScore  int        `json:"originality_score"`
	MethodologyScore  int        `json:"methodology_score"`
	ClarityScore      int        `json:"clarity_score"`
	SignificanceScore int        `json:"significance_score"`
	ReferencesScore   int        `json:"references_score"`
	OverallScore      float64    `json:"overall_score"`
	CommentsToAuthor  string     `gorm:"type:text" json:"comments_to_author"`
	CommentsToManager string     `gorm:"type:text" json:"comments_to_manager"`
	ReReview          bool       `gorm:"not null;default:false" json:"re_review"`
	Deleted           bool       `gorm:"not null;default:false;index" json:"deleted"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Submission        Submission `gorm:"constraint:OnUpdate:CASCADE" json:"submission"`
}

// Reviewer decisions.
const (
	DecisionNotReviewed          = "not_reviewed"
	DecisionAcceptAsIs           = "accept_as_is"
	DecisionAcceptMinorRevisions = "accept_minor_revisions"
	DecisionMajorRevisions       = "major_revisions_required"
	DecisionReject               = "reject"
	DecisionNotSuitable          = "not_suitable"
)

// Weights applied when deriving the overall score from the five sub-scores.
const (
	WeightOriginality  = 0.20
	WeightMethodology  = 0.25
	WeightClarity      = 0.20
	WeightSignificance = 0.20
	WeightReferences   = 0.15
)

// Score bounds for every sub-score.
const (
	ScoreMin = 1
	ScoreMax = 10
)

// ComputeOverallScore derives the weighted overall score from the five sub-scores.
func (r Review) ComputeOverallScore() float64 {
	return float64(r.OriginalityScore)*WeightOriginality +
		float64(r.MethodologyScore)*WeightMethodology +
		float64(r.ClarityScore)*WeightClarity +
		float64(r.SignificanceScore)*WeightSignificance +
		float64(r.ReferencesScore)*WeightReferences
}

// IsPositive reports whether the recorded decision counts toward the acceptance rate.
func (r Review) IsPositive() bool {
	return r.Decision == DecisionAcceptAsIs || r.Decision == DecisionAcceptMinorRevisions
}

// IsOverdue reports whether an incomplete review has passed its deadline.
func (r Review) IsOverdue(reference time.Time) bool {
	return !r.Completed && reference.After(r.Deadline)
}
