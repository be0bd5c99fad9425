package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/pkg/response"
)

type StructureHandler struct {
	service   *service.StructureService
	validator *validator.Validate
}

func NewStructureHandler(svc *service.StructureService, v *validator.Validate) *StructureHandler {
	return &StructureHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/structures/generate
// @Summary      Generate or fetch a song structure
// @Description  Returns the cached structure for (book, chapter, name) or derives a new one
// @Tags         Structures
// @Accept       json
// @Produce      json
// @Param        request body model.StructureGenerateRequest true "Structure generate request"
// @Success      200 {object} model.SongStructure
// @Failure      400 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/structures/generate [post]
func (h *StructureHandler) Generate(c *fiber.Ctx) error {
	var req model.StructureGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.GenerateStructure(c.Context(), &req)
	if err != nil {
		return response.AIError(c, err.Error())
	}

	return response.OK(c, result)
}
