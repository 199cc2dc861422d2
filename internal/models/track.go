package models

import "time"

// Track is a subject-area partition of submissions with its own manager and
// reviewer pool.
type Track struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Track assignment roles.
const (
	TrackRoleManager  = "manager"
	TrackRoleReviewer = "reviewer"
)

// TrackAssignment binds a user to a track as either a manager or a member of
// the reviewer pool. These records gate every assignment operation.
type TrackAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TrackID   uint      `gorm:"not null;index" json:"track_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	Deleted   bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Track     Track     `gorm:"constraint:OnUpdate:CASCADE" json:"track"`
}

// IsUsable reports whether the assignment currently grants its role.
func (a TrackAssignment) IsUsable() bool {
	return a.Active && !a.Deleted
}
