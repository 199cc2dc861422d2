package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/service"
	"github.com/noah-isme/crms-go-api/internal/utils"
)

// TrackHandler serves the track catalog.
type TrackHandler struct {
	service service.TrackService
	logger  zerolog.Logger
}

// NewTrackHandler builds a track handler instance.
func NewTrackHandler(service service.TrackService, logger zerolog.Logger) *TrackHandler {
	return &TrackHandler{
		service: service,
		logger:  logger.With().Str("component", "track_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TrackHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *TrackHandler) list(c *fiber.Ctx) error {
	tracks, err := h.service.List(c.UserContext())
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.OK(c, tracks, "tracks retrieved", fiber.Map{"count": len(tracks)})
}
