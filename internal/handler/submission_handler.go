package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/service"
	"github.com/noah-isme/crms-go-api/internal/utils"
)

// SubmissionHandler manages submission lifecycle endpoints.
type SubmissionHandler struct {
	service   service.SubmissionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, validator *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Get("/:id/history", h.history)
	router.Put("/:id/status", h.setStatus)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	trackID, err := parseQueryUint(c, "track_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid track_id filter")
	}
	authorID, err := parseQueryUint(c, "author_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid author_id filter")
	}

	filter := dto.SubmissionFilter{
		TrackID:  trackID,
		AuthorID: authorID,
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.OK(c, submissions, "submissions retrieved", fiber.Map{"count": len(submissions)})
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Attachment is optional; validation happens in the service.
	file, _ := c.FormFile("file")

	submission, err := h.service.Create(c.UserContext(), payload, file, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) update(c *fiber.Ctx) error {
	id, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var payload dto.SubmissionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.Edit(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "submission updated", submission)
}

func (h *SubmissionHandler) history(c *fiber.Ctx) error {
	id, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	entries, err := h.service.History(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.OK(c, entries, "status history retrieved", fiber.Map{"count": len(entries)})
}

func (h *SubmissionHandler) setStatus(c *fiber.Ctx) error {
	id, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var payload dto.SubmissionStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.SetStatus(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return utils.SendSuccess(c, "submission status updated", submission)
}
