package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/models"
)

// ReviewRepository defines data operations for reviews. All lookups exclude
// soft-deleted rows unless noted otherwise.
type ReviewRepository interface {
	GetByID(ctx context.Context, id uint) (models.Review, error)
	GetBySubmissionAndReviewer(ctx context.Context, submissionID, reviewerID uint) (models.Review, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error)
	ListByReviewer(ctx context.Context, reviewerID uint) ([]models.Review, error)
	CountCompleted(ctx context.Context, submissionID uint) (int64, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository instantiates the repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) baseQuery(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&models.Review{}).
		Where("deleted = ?", false)
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (models.Review, error) {
	var review models.Review
	if err := r.baseQuery(ctx).Preload("Submission").First(&review, id).Error; err != nil {
		return models.Review{}, err
	}

	return review, nil
}

func (r *reviewRepository) GetBySubmissionAndReviewer(ctx context.Context, submissionID, reviewerID uint) (models.Review, error) {
	var review models.Review
	if err := r.baseQuery(ctx).
		Where("submission_id = ?", submissionID).
		Where("reviewer_id = ?", reviewerID).
		First(&review).Error; err != nil {
		return models.Review{}, err
	}

	return review, nil
}

func (r *reviewRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.baseQuery(ctx).
		Where("submission_id = ?", submissionID).
		Order("assigned_at ASC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepository) ListByReviewer(ctx context.Context, reviewerID uint) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.baseQuery(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("assigned_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}

	return reviews, nil
}

// CountCompleted returns the number of completed, non-deleted reviews for the
// submission. Must run inside the same transaction as the status write that
// depends on it.
func (r *reviewRepository) CountCompleted(ctx context.Context, submissionID uint) (int64, error) {
	var count int64
	if err := r.baseQuery(ctx).
		Where("submission_id = ?", submissionID).
		Where("completed = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return conn(ctx, r.db).Create(review).Error
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return conn(ctx, r.db).Save(review).Error
}
