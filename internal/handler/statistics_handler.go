package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/service"
	"github.com/noah-isme/crms-go-api/internal/utils"
)

// StatisticsHandler serves reviewer statistics projections.
type StatisticsHandler struct {
	service service.StatisticsService
	logger  zerolog.Logger
}

// NewStatisticsHandler builds a statistics handler instance.
func NewStatisticsHandler(service service.StatisticsService, logger zerolog.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		service: service,
		logger:  logger.With().Str("component", "statistics_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *StatisticsHandler) Register(router fiber.Router) {
	router.Get("/:id/statistics", h.reviewerStatistics)
}

func (h *StatisticsHandler) reviewerStatistics(c *fiber.Ctx) error {
	reviewerID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid reviewer id")
	}

	statistics, err := h.service.ReviewerStatistics(c.UserContext(), reviewerID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "reviewer statistics retrieved", statistics)
}
