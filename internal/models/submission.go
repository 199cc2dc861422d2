package models

import "time"

// Submission represents a research work moving through the peer review pipeline.
type Submission struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Abstract        string     `gorm:"type:text" json:"abstract"`
	Keywords        string     `gorm:"size:512" json:"keywords"`
	FileURL         string     `gorm:"size:512" json:"file_url"`
	TrackID         uint       `gorm:"not null;index" json:"track_id"`
	Status          string     `gorm:"size:32;not null;index" json:"status"`
	AuthorID        uint       `gorm:"not null;index" json:"author_id"`
	TrackManagerID  *uint      `json:"track_manager_id"`
	SubmittedAt     time.Time  `gorm:"not null" json:"submitted_at"`
	DecisionAt      *time.Time `json:"decision_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	Deleted         bool       `gorm:"not null;default:false;index" json:"deleted"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Track           Track      `gorm:"constraint:OnUpdate:CASCADE" json:"track"`
	Reviews         []Review   `json:"reviews,omitempty"`
}

// Submission lifecycle statuses.
const (
	StatusSubmitted              = "submitted"
	StatusAssignedForReview      = "assigned_for_review"
	StatusUnderReview            = "under_review"
	StatusUnderEvaluation        = "under_evaluation"
	StatusRequiresMinorRevisions = "requires_minor_revisions"
	StatusRequiresMajorRevisions = "requires_major_revisions"
	StatusRevisionsSubmitted     = "revisions_submitted"
	StatusAccepted               = "accepted"
	StatusRejected               = "rejected"
)

// SubmissionStatuses enumerates every legal lifecycle status.
var SubmissionStatuses = []string{
	StatusSubmitted,
	StatusAssignedForReview,
	StatusUnderReview,
	StatusUnderEvaluation,
	StatusRequiresMinorRevisions,
	StatusRequiresMajorRevisions,
	StatusRevisionsSubmitted,
	StatusAccepted,
	StatusRejected,
}

// IsValidStatus reports whether the given value is a known lifecycle status.
func IsValidStatus(status string) bool {
	for _, s := range SubmissionStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the submission has reached a final decision.
func (s Submission) IsTerminal() bool {
	return s.Status == StatusAccepted || s.Status == StatusRejected
}

// IsEditable reports whether the author may still modify the submission.
func (s Submission) IsEditable() bool {
	switch s.Status {
	case StatusSubmitted, StatusRequiresMinorRevisions, StatusRequiresMajorRevisions:
		return true
	default:
		return false
	}
}

// RequiresRevisions reports whether the submission is waiting on author revisions.
func (s Submission) RequiresRevisions() bool {
	return s.Status == StatusRequiresMinorRevisions || s.Status == StatusRequiresMajorRevisions
}
