package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rubrica/rubrica-api/internal/dto"
	"github.com/rubrica/rubrica-api/internal/service"
	"github.com/rubrica/rubrica-api/internal/utils"
	"github.com/rubrica/rubrica-api/pkg/grader"
)

// GradeHandler exposes the grading pipeline over HTTP.
type GradeHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradeHandler builds a grade handler instance.
func NewGradeHandler(service service.GradingService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches the ad hoc grading route to the provided router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Post("", h.grade)
}

// RegisterAssignmentRoutes attaches the grade-against-assignment route.
func (h *GradeHandler) RegisterAssignmentRoutes(router fiber.Router) {
	router.Post("/:id/grade", h.gradeAssignment)
}

func (h *GradeHandler) grade(c *fiber.Ctx) error {
	var payload grader.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	result, err := h.service.Grade(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *GradeHandler) gradeAssignment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	submission, err := h.service.GradeSubmission(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission graded", submission)
}

// handleError maps pipeline failures onto the caller-facing severity
// classes: 400 for bad input, 429 for provider rate limiting, 502 for a
// structurally invalid provider reply and 500 for everything else.
func (h *GradeHandler) handleError(c *fiber.Ctx, err error) error {
	var (
		validationErr    *grader.ValidationError
		configurationErr *grader.ConfigurationError
		upstreamErr      *grader.UpstreamError
		shapeErr         *grader.ShapeError
		fieldErrors      validator.ValidationErrors
	)

	switch {
	case errors.As(err, &validationErr):
		return utils.SendError(c, fiber.StatusBadRequest, validationErr.Message)

	case errors.As(err, &fieldErrors):
		return utils.SendError(c, fiber.StatusBadRequest, fieldErrors.Error())

	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")

	case errors.As(err, &upstreamErr):
		if upstreamErr.RateLimited() {
			return utils.SendError(c, fiber.StatusTooManyRequests, "rate limited by the grading provider, please retry shortly")
		}
		status := upstreamErr.Status
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		h.logger.Warn().Err(err).Int("upstream_status", upstreamErr.Status).Msg("grading provider failure")
		return utils.SendErrorWithDetails(c, status, "failed to grade submission", upstreamErr.Message)

	case errors.As(err, &shapeErr):
		h.logger.Warn().Err(err).Msg("grading provider returned invalid shape")
		return utils.SendError(c, fiber.StatusBadGateway, "upstream returned invalid shape")

	case errors.As(err, &configurationErr):
		h.logger.Error().Err(err).Msg("grading misconfigured")
		return utils.SendError(c, fiber.StatusInternalServerError, "grading is not configured")

	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
