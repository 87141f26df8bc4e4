package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/micocomia/5902Group5/internal/embeddings"
	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/textsplit"
	"github.com/micocomia/5902Group5/internal/vectorstore"
	"github.com/micocomia/5902Group5/internal/websearch"

	"go.uber.org/zap"
)

// WebSearchRAG searches the web, chunks the hits and ranks the chunks
// against the query embedding. Nothing is persisted.
type WebSearchRAG struct {
	searcher   websearch.Searcher
	embedder   embeddings.Embedder
	splitter   textsplit.Splitter
	maxResults int
	logger     *zap.Logger
}

func NewWebSearchRAG(searcher websearch.Searcher, embedder embeddings.Embedder, splitter textsplit.Splitter, maxResults int, logger *zap.Logger) *WebSearchRAG {
	return &WebSearchRAG{
		searcher:   searcher,
		embedder:   embedder,
		splitter:   splitter,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Invoke returns up to k web_search documents. Only search failures are
// errors; if ranking fails the chunks come back in search order.
func (w *WebSearchRAG) Invoke(ctx context.Context, query string, k int) ([]models.Document, error) {
	if k <= 0 {
		return []models.Document{}, nil
	}

	n := w.maxResults
	if n < k {
		n = k
	}
	results, err := w.searcher.Search(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to search the web: %w", err)
	}

	docs := make([]models.Document, 0, len(results))
	for _, r := range results {
		doc := resultDocument(r)
		if !doc.IsEmpty() {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return []models.Document{}, nil
	}

	chunks := w.splitter.SplitDocuments(docs)
	ranked, err := w.rank(ctx, query, chunks, k)
	if err != nil {
		w.logger.Warn("Failed to rank web results, keeping search order", zap.Error(err))
		if len(chunks) > k {
			chunks = chunks[:k]
		}
		return chunks, nil
	}
	return ranked, nil
}

func (w *WebSearchRAG) rank(ctx context.Context, query string, chunks []models.Document, k int) ([]models.Document, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := w.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	queryVector, err := w.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))
	}

	hits := make([]vectorstore.ScoredDocument, len(chunks))
	for i, c := range chunks {
		hits[i] = vectorstore.ScoredDocument{
			Document: c,
			Score:    vectorstore.CosineSimilarity(queryVector, vectors[i]),
		}
	}
	return vectorstore.Documents(vectorstore.Rank(hits, k)), nil
}

func resultDocument(r websearch.Result) models.Document {
	text := strings.TrimSpace(strings.Join([]string{r.Title, r.Snippet}, "\n"))
	return models.NewDocument(text, models.Metadata{
		models.MetaSourceType: models.StringValue(string(models.SourceTypeWebSearch)),
		models.MetaTitle:      models.StringValue(r.Title),
		models.MetaURL:        models.StringValue(r.URL),
		models.MetaSource:     models.StringValue(r.URL),
		models.MetaEngine:     models.StringValue(r.Engine),
	})
}
