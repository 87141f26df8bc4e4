package textsplit

import (
	"strings"

	"github.com/micocomia/5902Group5/internal/models"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveCharacter splits on paragraph, line and word boundaries in turn,
// falling back to single characters, then greedily merges the pieces back
// into chunks of at most chunkSize characters.
type RecursiveCharacter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewRecursiveCharacter(opts ...Option) *RecursiveCharacter {
	o := buildOptions(opts)
	return &RecursiveCharacter{
		chunkSize:  o.chunkSize,
		overlap:    o.overlap,
		separators: defaultSeparators,
	}
}

func (s *RecursiveCharacter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *RecursiveCharacter) SplitDocuments(docs []models.Document) []models.Document {
	return splitDocuments(s.SplitText, docs)
}

func (s *RecursiveCharacter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var (
		final []string
		small []string
	)
	for _, piece := range splitOn(text, separator) {
		if runeLen(piece) < s.chunkSize {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			final = append(final, s.merge(small, separator)...)
			small = nil
		}
		if len(remaining) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, remaining)...)
		}
	}
	if len(small) > 0 {
		final = append(final, s.merge(small, separator)...)
	}
	return final
}

// merge joins pieces with separator into chunks, carrying up to overlap
// characters of trailing pieces into the next chunk.
func (s *RecursiveCharacter) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)

	var (
		chunks  []string
		current []string
		total   int
	)
	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n+joinLen() > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.overlap || (total > 0 && total+n+joinLen() > s.chunkSize) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		total += n + joinLen()
		current = append(current, piece)
	}
	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		parts = make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for _, p := range strings.Split(text, separator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
