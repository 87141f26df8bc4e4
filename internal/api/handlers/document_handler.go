package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/micocomia/5902Group5/internal/content"
	"github.com/micocomia/5902Group5/internal/dto"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxUploadSize bounds the PDF read into memory.
const maxUploadSize = 20 << 20

// PDFTextExtractor turns an uploaded PDF into plain text.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

type DocumentHandler struct {
	extractor PDFTextExtractor
	logger    *zap.Logger
}

func NewDocumentHandler(extractor PDFTextExtractor, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		extractor: extractor,
		logger:    logger,
	}
}

// ExtractPDFText godoc
// @Summary Extract text from a PDF
// @Description Upload a PDF (for example a resume during onboarding) and get its text back
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Security Bearer
// @Success 200 {object} dto.ExtractTextResponse
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /extract-pdf-text [post]
func (h *DocumentHandler) ExtractPDFText(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}
	if file.Size > maxUploadSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File is too large",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize))
	if err != nil {
		h.logger.Error("Failed to read upload", zap.String("filename", file.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	text, err := h.extractor.ExtractText(c.UserContext(), data)
	if err != nil {
		if errors.Is(err, content.ErrInvalidPDF) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "File is not a readable PDF",
			})
		}
		h.logger.Error("Failed to extract PDF text", zap.String("filename", file.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.logger.Info("Extracted PDF text",
		zap.String("filename", file.Filename),
		zap.Int("length", len(text)),
	)
	return c.JSON(dto.ExtractTextResponse{Text: text})
}
