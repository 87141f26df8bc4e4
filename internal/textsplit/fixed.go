package textsplit

import "github.com/micocomia/5902Group5/internal/models"

// Fixed cuts text into windows of chunkSize characters that advance by
// chunkSize-overlap, ignoring word boundaries.
type Fixed struct {
	chunkSize int
	overlap   int
}

func NewFixed(opts ...Option) *Fixed {
	o := buildOptions(opts)
	return &Fixed{chunkSize: o.chunkSize, overlap: o.overlap}
}

func (s *Fixed) SplitText(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := s.chunkSize - s.overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func (s *Fixed) SplitDocuments(docs []models.Document) []models.Document {
	return splitDocuments(s.SplitText, docs)
}
