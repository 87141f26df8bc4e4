package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/gen2brain/go-fitz"
)

// ErrInvalidPDF is returned when uploaded bytes cannot be opened as a PDF.
var ErrInvalidPDF = errors.New("invalid PDF document")

// FitzConverter extracts PDF text page by page with MuPDF.
type FitzConverter struct{}

func NewFitzConverter() *FitzConverter {
	return &FitzConverter{}
}

// Convert returns one document per page that has text. Pages that fail to
// extract are skipped; the file fails only if it cannot be opened or has no text.
func (c *FitzConverter) Convert(ctx context.Context, path string) ([]models.RawDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	docs := make([]models.RawDocument, 0, pages)
	var lastErr error
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := doc.Text(i)
		if err != nil {
			lastErr = err
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		docs = append(docs, models.RawDocument{
			Content: text,
			Metadata: map[string]any{
				models.MetaSource: path,
				models.MetaPage:   i + 1,
			},
		})
	}

	if len(docs) == 0 && lastErr != nil {
		return nil, fmt.Errorf("failed to extract text from PDF: %w", lastErr)
	}
	return docs, nil
}

// ExtractText returns the text of an in-memory PDF, one line block per page.
// Pages without extractable text contribute an empty line.
func (c *FitzConverter) ExtractText(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrInvalidPDF
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	defer doc.Close()

	pages := make([]string, doc.NumPage())
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		pages[i] = strings.TrimSpace(text)
	}
	return strings.Join(pages, "\n"), nil
}
