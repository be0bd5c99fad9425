package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/pkg/response"
)

type WorkflowHandler struct {
	service   *service.WorkflowService
	validator *validator.Validate
}

func NewWorkflowHandler(svc *service.WorkflowService, v *validator.Validate) *WorkflowHandler {
	return &WorkflowHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/songs/create
// @Summary      Start a song workflow
// @Description  Queue the full generate/review/disposition workflow for one Bible passage
// @Tags         Songs
// @Accept       json
// @Produce      json
// @Param        request body model.SongCreateRequest true "Song create request"
// @Success      202 {object} model.SongCreateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/songs/create [post]
func (h *WorkflowHandler) Create(c *fiber.Ctx) error {
	var req model.SongCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if _, err := model.ParseVerseRange(req.VerseRange); err != nil {
		return response.ValidationError(c, "Invalid verse range", nil)
	}

	result, err := h.service.StartWorkflow(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/songs/status/:jobId
// @Summary      Get workflow status
// @Tags         Songs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.WorkflowStatusResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/songs/status/{jobId} [get]
func (h *WorkflowHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Result handles GET /api/songs/result/:jobId
// @Summary      Get workflow result
// @Description  Returns the terminal WorkflowResult including per-attempt details
// @Tags         Songs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.WorkflowResult
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/songs/result/{jobId} [get]
func (h *WorkflowHandler) Result(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetResult(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		if err.Error() == "job not completed" {
			return response.ValidationError(c, "Job not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Cancel handles POST /api/songs/cancel/:jobId
// @Summary      Cancel a queued workflow
// @Tags         Songs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.WorkflowCancelResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/songs/cancel/{jobId} [post]
func (h *WorkflowHandler) Cancel(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.CancelWorkflow(c.Context(), jobID)
	if err != nil {
		if err.Error() == "job not found" {
			return response.NotFound(c, "Job not found")
		}
		if err.Error() == "job already completed" {
			return response.ValidationError(c, "Job already completed", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
