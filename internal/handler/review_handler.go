package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/service"
	"github.com/noah-isme/crms-go-api/internal/utils"
)

// ReviewHandler manages review submission and completion endpoints.
type ReviewHandler struct {
	service   service.ReviewService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReviewHandler builds a review handler instance.
func NewReviewHandler(service service.ReviewService, validator *validator.Validate, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "review_handler").Logger(),
	}
}

// RegisterSubmissionRoutes attaches the submission-scoped review routes.
func (h *ReviewHandler) RegisterSubmissionRoutes(router fiber.Router) {
	router.Post("/:id/reviews", h.submit)
	router.Get("/:id/score", h.aggregateScore)
}

// RegisterReviewRoutes attaches the review-scoped routes.
func (h *ReviewHandler) RegisterReviewRoutes(router fiber.Router) {
	router.Patch("/:id", h.update)
	router.Post("/:id/complete", h.complete)
}

func (h *ReviewHandler) submit(c *fiber.Ctx) error {
	submissionID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var payload dto.ReviewSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	review, err := h.service.Submit(c.UserContext(), submissionID, payload, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "review submitted", review)
}

func (h *ReviewHandler) update(c *fiber.Ctx) error {
	reviewID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid review id")
	}

	var payload dto.ReviewUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	review, err := h.service.Update(c.UserContext(), reviewID, payload, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "review updated", review)
}

func (h *ReviewHandler) complete(c *fiber.Ctx) error {
	reviewID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid review id")
	}

	review, err := h.service.Complete(c.UserContext(), reviewID, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "review completed", review)
}

func (h *ReviewHandler) aggregateScore(c *fiber.Ctx) error {
	submissionID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	score, err := h.service.AggregateScore(c.UserContext(), submissionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "aggregate score retrieved", score)
}
