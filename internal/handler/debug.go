package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/versecraft/api/internal/client"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/pkg/response"
)

// DebugHandler exposes the download and review steps in isolation so
// they can be exercised without running a full workflow.
type DebugHandler struct {
	studio    client.StudioDriver
	reviews   *service.ReviewService
	validator *validator.Validate
}

func NewDebugHandler(studio client.StudioDriver, reviews *service.ReviewService, v *validator.Validate) *DebugHandler {
	return &DebugHandler{
		studio:    studio,
		reviews:   reviews,
		validator: v,
	}
}

// Download handles POST /api/debug/download
// @Summary      Download one slot directly
// @Tags         Debug
// @Accept       json
// @Produce      json
// @Param        request body model.DebugDownloadRequest true "Debug download request"
// @Success      200 {object} model.DownloadedSong
// @Failure      400 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/debug/download [post]
func (h *DebugHandler) Download(c *fiber.Ctx) error {
	var req model.DebugDownloadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	path, err := h.studio.DownloadSong(c.Context(), req.Title, req.Slot)
	if err != nil {
		return response.DriverError(c, err.Error())
	}

	return response.OK(c, model.DownloadedSong{
		FilePath: path,
		Slot:     req.Slot,
		Title:    req.Title,
		State:    model.FileStatePending,
	})
}

// Review handles POST /api/debug/review
// @Summary      Review one downloaded file directly
// @Tags         Debug
// @Accept       json
// @Produce      json
// @Param        request body model.DebugReviewRequest true "Debug review request"
// @Success      200 {object} model.ReviewResult
// @Failure      400 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/debug/review [post]
func (h *DebugHandler) Review(c *fiber.Ctx) error {
	var req model.DebugReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	song := model.DownloadedSong{
		FilePath: req.FilePath,
		Slot:     model.SlotMostRecent,
		State:    model.FileStatePending,
	}
	result, err := h.reviews.ReviewSong(c.Context(), &song, req.ProgressID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
