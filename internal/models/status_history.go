package models

import (
	"time"

	"gorm.io/datatypes"
)

// StatusHistory is an append-only audit record of one submission status
// transition. Rows are never mutated or deleted.
type StatusHistory struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID uint              `gorm:"not null;index" json:"submission_id"`
	FromStatus   string            `gorm:"size:32;not null" json:"from_status"`
	ToStatus     string            `gorm:"size:32;not null" json:"to_status"`
	ActorID      uint              `gorm:"not null" json:"actor_id"`
	Notes        string            `gorm:"type:text" json:"notes"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}
