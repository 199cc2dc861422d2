package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/models"
)

// StatusHistoryRepository appends and reads the submission audit trail.
// History rows are append-only; there is deliberately no update or delete.
type StatusHistoryRepository interface {
	Create(ctx context.Context, entry *models.StatusHistory) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.StatusHistory, error)
}

type statusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository instantiates the repository.
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

func (r *statusHistoryRepository) Create(ctx context.Context, entry *models.StatusHistory) error {
	return conn(ctx, r.db).Create(entry).Error
}

func (r *statusHistoryRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.StatusHistory, error) {
	var entries []models.StatusHistory
	if err := conn(ctx, r.db).Model(&models.StatusHistory{}).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
