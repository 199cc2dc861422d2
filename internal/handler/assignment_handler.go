package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/service"
	"github.com/noah-isme/crms-go-api/internal/utils"
)

// AssignmentHandler manages reviewer assignment endpoints.
type AssignmentHandler struct {
	service   service.AssignmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, validator *validator.Validate, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// RegisterSubmissionRoutes attaches the submission-scoped assignment routes.
// The guard is applied per route so sibling routes on the same group stay open.
func (h *AssignmentHandler) RegisterSubmissionRoutes(router fiber.Router, guard fiber.Handler) {
	router.Post("/:id/reviewers", guard, h.assign)
	router.Post("/:id/reviewers/bulk", guard, h.assignBulk)
	router.Get("/:id/reviewers/available", guard, h.available)
}

// RegisterReviewRoutes attaches the review-scoped removal route.
func (h *AssignmentHandler) RegisterReviewRoutes(router fiber.Router, guard fiber.Handler) {
	router.Delete("/:id", guard, h.remove)
}

func (h *AssignmentHandler) assign(c *fiber.Ctx) error {
	submissionID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var payload dto.ReviewerAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	review, err := h.service.Assign(c.UserContext(), submissionID, payload, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reviewer assigned", review)
}

func (h *AssignmentHandler) assignBulk(c *fiber.Ctx) error {
	submissionID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var payload dto.ReviewerBulkAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.AssignBulk(c.UserContext(), submissionID, payload, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.OK(c, result, "bulk assignment finished", fiber.Map{
		"assigned": result.AssignedCount,
		"skipped":  result.SkippedCount,
	})
}

func (h *AssignmentHandler) available(c *fiber.Ctx) error {
	submissionID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	reviewers, err := h.service.AvailableReviewers(c.UserContext(), submissionID, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.OK(c, reviewers, "available reviewers retrieved", fiber.Map{"count": len(reviewers)})
}

func (h *AssignmentHandler) remove(c *fiber.Ctx) error {
	reviewID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid review id")
	}

	var payload dto.ReviewerRemoveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	if err := h.service.Remove(c.UserContext(), reviewID, payload, actorFromContext(c)); err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "reviewer removed", nil)
}
