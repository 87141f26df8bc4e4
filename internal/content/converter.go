package content

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/micocomia/5902Group5/internal/models"
)

// DocumentConverter extracts text from binary documents such as PDF or PPTX.
type DocumentConverter interface {
	Convert(ctx context.Context, path string) ([]models.RawDocument, error)
}

// ConverterSet dispatches to a converter by lower-cased file extension.
type ConverterSet map[string]DocumentConverter

func (s ConverterSet) Convert(ctx context.Context, path string) ([]models.RawDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	converter, ok := s[ext]
	if !ok {
		return nil, fmt.Errorf("no converter registered for %q", ext)
	}
	return converter.Convert(ctx, path)
}

// DefaultConverters wires the PDF and PPTX converters shipped with this package.
func DefaultConverters() ConverterSet {
	return ConverterSet{
		".pdf":  NewFitzConverter(),
		".pptx": NewPPTXConverter(),
	}
}
