package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/versecraft/api/internal/model"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/pkg/response"
)

type LyricsHandler struct {
	structures *service.StructureService
	lyrics     *service.LyricsService
	validator  *validator.Validate
}

func NewLyricsHandler(structures *service.StructureService, lyrics *service.LyricsService, v *validator.Validate) *LyricsHandler {
	return &LyricsHandler{
		structures: structures,
		lyrics:     lyrics,
		validator:  v,
	}
}

// Preview handles GET /api/lyrics/:book/:chapter
// @Summary      Preview assembled lyrics
// @Description  Assembles the lyric blocks the workflow would submit for a chapter
// @Tags         Lyrics
// @Produce      json
// @Param        book path string true "Book name"
// @Param        chapter path int true "Chapter"
// @Param        range query string false "Verse range, e.g. 1-8"
// @Param        structure query string false "Structure name (default: default)"
// @Success      200 {array} model.LyricBlock
// @Failure      400 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/lyrics/{book}/{chapter} [get]
func (h *LyricsHandler) Preview(c *fiber.Ctx) error {
	book := c.Params("book")
	chapter, err := strconv.Atoi(c.Params("chapter"))
	if err != nil || chapter < 1 {
		return response.ValidationError(c, "Invalid chapter", nil)
	}

	structureName := c.Query("structure", "default")
	structure, err := h.structures.GenerateStructure(c.Context(), &model.StructureGenerateRequest{
		BookName: book,
		Chapter:  chapter,
		Name:     structureName,
	})
	if err != nil {
		return response.AIError(c, err.Error())
	}

	limit := model.VerseRange{Start: 1, End: structure.Ranges[len(structure.Ranges)-1].End}
	if rangeParam := c.Query("range"); rangeParam != "" {
		limit, err = model.ParseVerseRange(rangeParam)
		if err != nil {
			return response.ValidationError(c, "Invalid verse range", nil)
		}
	}

	blocks, err := h.lyrics.Assemble(c.Context(), structure, limit)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, blocks)
}
