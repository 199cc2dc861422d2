package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/models"
)

// TrackRepository serves the track catalog.
type TrackRepository interface {
	List(ctx context.Context) ([]models.Track, error)
	GetByID(ctx context.Context, id uint) (models.Track, error)
}

// TrackAssignmentRepository answers track-scoped authorization questions.
type TrackAssignmentRepository interface {
	HasRole(ctx context.Context, userID, trackID uint, role string) (bool, error)
	ListByTrack(ctx context.Context, trackID uint, role string) ([]models.TrackAssignment, error)
	Create(ctx context.Context, assignment *models.TrackAssignment) error
}

type trackRepository struct {
	db *gorm.DB
}

// NewTrackRepository instantiates the track catalog repository.
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &trackRepository{db: db}
}

func (r *trackRepository) List(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	if err := conn(ctx, r.db).Model(&models.Track{}).
		Where("active = ?", true).
		Order("code ASC").
		Find(&tracks).Error; err != nil {
		return nil, err
	}

	return tracks, nil
}

func (r *trackRepository) GetByID(ctx context.Context, id uint) (models.Track, error) {
	var track models.Track
	if err := conn(ctx, r.db).First(&track, id).Error; err != nil {
		return models.Track{}, err
	}

	return track, nil
}

type trackAssignmentRepository struct {
	db *gorm.DB
}

// NewTrackAssignmentRepository instantiates the assignment repository.
func NewTrackAssignmentRepository(db *gorm.DB) TrackAssignmentRepository {
	return &trackAssignmentRepository{db: db}
}

func (r *trackAssignmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&models.TrackAssignment{}).
		Where("active = ?", true).
		Where("deleted = ?", false)
}

func (r *trackAssignmentRepository) HasRole(ctx context.Context, userID, trackID uint, role string) (bool, error) {
	var count int64
	if err := r.baseQuery(ctx).
		Where("user_id = ?", userID).
		Where("track_id = ?", trackID).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *trackAssignmentRepository) ListByTrack(ctx context.Context, trackID uint, role string) ([]models.TrackAssignment, error) {
	var assignments []models.TrackAssignment
	if err := r.baseQuery(ctx).
		Where("track_id = ?", trackID).
		Where("role = ?", role).
		Order("user_id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *trackAssignmentRepository) Create(ctx context.Context, assignment *models.TrackAssignment) error {
	return conn(ctx, r.db).Create(assignment).Error
}
