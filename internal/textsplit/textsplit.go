// Package textsplit cuts documents into bounded-size chunks for embedding.
package textsplit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/micocomia/5902Group5/internal/models"
)

const (
	TypeRecursiveCharacter = "recursive_character"
	TypeFixed              = "fixed"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 0

// Splitter breaks text into chunks no longer than its chunk size where possible.
type Splitter interface {
	SplitText(text string) []string
	SplitDocuments(docs []models.Document) []models.Document
}

type options struct {
	chunkSize int
	overlap   int
}

// Option configures a splitter.
type Option func(*options)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(o *options) {
		if overlap >= 0 {
			o.overlap = overlap
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.overlap >= o.chunkSize {
		o.overlap = o.chunkSize / 4
	}
	return o
}

// New returns the splitter registered under kind.
func New(kind string, opts ...Option) (Splitter, error) {
	switch kind {
	case TypeRecursiveCharacter, "":
		return NewRecursiveCharacter(opts...), nil
	case TypeFixed, "character":
		return NewFixed(opts...), nil
	default:
		return nil, fmt.Errorf("unknown text splitter type %q", kind)
	}
}

// splitDocuments applies split to every document. Chunks copy the parent
// metadata and record their position under chunk_index.
func splitDocuments(split func(string) []string, docs []models.Document) []models.Document {
	var chunks []models.Document
	for _, doc := range docs {
		index := 0
		for _, text := range split(doc.Content) {
			if strings.TrimSpace(text) == "" {
				continue
			}
			meta := doc.Metadata.Clone()
			meta[models.MetaChunkIndex] = models.IntValue(int64(index))
			chunks = append(chunks, models.NewDocument(text, meta))
			index++
		}
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
