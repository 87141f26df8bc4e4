package handlers

import (
	"errors"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TutorHandler struct {
	tutorService *service.TutorService
	models       []dto.ModelInfo
	logger       *zap.Logger
}

// NewTutorHandler accepts a nil tutorService when no LLM is configured; chat
// requests are then answered with 503.
func NewTutorHandler(tutorService *service.TutorService, models []dto.ModelInfo, logger *zap.Logger) *TutorHandler {
	return &TutorHandler{
		tutorService: tutorService,
		models:       models,
		logger:       logger,
	}
}

// ChatWithTutor godoc
// @Summary Chat with the AI tutor
// @Description Answer the latest message, grounded on hybrid retrieval unless use_search is false
// @Tags tutor
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Conversation"
// @Security Bearer
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /chat-with-tutor [post]
func (h *TutorHandler) ChatWithTutor(c *fiber.Ctx) error {
	if h.tutorService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Tutor is not configured",
		})
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "messages must be a JSON array",
		})
	}

	useSearch := req.UseSearch == nil || *req.UseSearch
	resp, err := h.tutorService.Chat(c.UserContext(), req.Messages, req.LearnerProfile, useSearch)
	if err != nil {
		if errors.Is(err, service.ErrNoMessages) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("Tutor chat failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(resp)
}

// ListModels godoc
// @Summary List LLM models
// @Tags tutor
// @Produce json
// @Success 200 {object} dto.ModelsResponse
// @Router /list-llm-models [get]
func (h *TutorHandler) ListModels(c *fiber.Ctx) error {
	models := h.models
	if models == nil {
		models = []dto.ModelInfo{}
	}
	return c.JSON(dto.ModelsResponse{Models: models})
}
