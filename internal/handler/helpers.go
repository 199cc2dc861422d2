package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/crms-go-api/internal/service"
	"github.com/noah-isme/crms-go-api/internal/utils"
)

// mapServiceError translates service sentinel errors to HTTP responses so the
// caller can tell "nothing happened" apart from "already true" and
// "partially happened".
func mapServiceError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrs))
	}

	switch {
	case errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrTrackNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrDuplicateAssignment),
		errors.Is(err, service.ErrReviewAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())

	case errors.Is(err, service.ErrSubmissionNotEditable),
		errors.Is(err, service.ErrReviewCompleted),
		errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, service.ErrReviewerNotInTrack),
		errors.Is(err, service.ErrMissingDecision),
		errors.Is(err, service.ErrRejectionReasonRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())

	default:
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

func parseParamUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	result := uint(parsed)
	return &result, nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			actor.ID = id
		}
	}
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			actor.Role = role
		}
	}
	return actor
}
