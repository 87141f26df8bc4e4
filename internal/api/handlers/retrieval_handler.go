package handlers

import (
	"strings"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxSearchK = 50

type RetrievalHandler struct {
	verified *service.VerifiedContentService
	hybrid   *service.HybridRetriever
	logger   *zap.Logger
}

func NewRetrievalHandler(verified *service.VerifiedContentService, hybrid *service.HybridRetriever, logger *zap.Logger) *RetrievalHandler {
	return &RetrievalHandler{
		verified: verified,
		hybrid:   hybrid,
		logger:   logger,
	}
}

// ListCourses godoc
// @Summary List verified courses
// @Description Courses found in the verified content directory
// @Tags retrieval
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.CoursesResponse
// @Router /verified-content/courses [get]
func (h *RetrievalHandler) ListCourses(c *fiber.Ctx) error {
	return c.JSON(dto.CoursesResponse{Courses: h.verified.ListCourses("")})
}

// IndexVerifiedContent godoc
// @Summary Index verified content
// @Description Index the configured content directory unless the collection is already populated
// @Tags retrieval
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.IndexResponse
// @Failure 500 {object} map[string]string
// @Router /verified-content/index [post]
func (h *RetrievalHandler) IndexVerifiedContent(c *fiber.Ctx) error {
	count, err := h.verified.IndexVerifiedContent(c.UserContext(), "")
	if err != nil {
		h.logger.Error("Indexing verified content failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Indexing verified content failed",
		})
	}
	return c.JSON(dto.IndexResponse{Collection: h.verified.CollectionName(), Count: count})
}

// Search godoc
// @Summary Hybrid search
// @Description Verified course content first, topped up with web results when it falls short of k
// @Tags retrieval
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Query"
// @Security Bearer
// @Success 200 {object} dto.SearchResponse
// @Failure 400 {object} map[string]string
// @Router /retrieval/search [post]
func (h *RetrievalHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}

	k := req.K
	if k <= 0 {
		k = service.DefaultRetrieveK
	}
	if k > maxSearchK {
		k = maxSearchK
	}

	return c.JSON(dto.SearchResponse{
		Query:   query,
		Results: h.hybrid.InvokeHybrid(c.UserContext(), query, k),
	})
}
