package dto

import "github.com/noah-isme/crms-go-api/internal/models"

// TrackResponse is one entry of the track catalog.
type TrackResponse struct {
	ID               uint   `json:"id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	Active           bool   `json:"active"`
	ReviewerPoolSize int    `json:"reviewer_pool_size"`
}

// NewTrackResponse maps a track model to a response payload.
func NewTrackResponse(track models.Track) TrackResponse {
	return TrackResponse{
		ID:     track.ID,
		Code:   track.Code,
		Name:   track.Name,
		Active: track.Active,
	}
}
