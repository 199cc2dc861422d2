package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/repository"
)

// TrackService serves the track catalog.
type TrackService interface {
	List(ctx context.Context) ([]dto.TrackResponse, error)
}

type trackService struct {
	tracks  repository.TrackRepository
	members repository.TrackAssignmentRepository
	logger  zerolog.Logger
}

// NewTrackService constructs a TrackService instance.
func NewTrackService(tracks repository.TrackRepository, members repository.TrackAssignmentRepository, logger zerolog.Logger) TrackService {
	return &trackService{
		tracks:  tracks,
		members: members,
		logger:  logger.With().Str("component", "track_service").Logger(),
	}
}

func (s *trackService) List(ctx context.Context) ([]dto.TrackResponse, error) {
	tracks, err := s.tracks.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TrackResponse, 0, len(tracks))
	for _, track := range tracks {
		pool, err := s.members.ListByTrack(ctx, track.ID, models.TrackRoleReviewer)
		if err != nil {
			return nil, err
		}
		resp := dto.NewTrackResponse(track)
		resp.ReviewerPoolSize = len(pool)
		responses = append(responses, resp)
	}
	return responses, nil
}
