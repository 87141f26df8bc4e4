// Package vectorstore persists embedded chunks and ranks them against a query vector.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	BackendLocal    = "local"
	BackendPostgres = "postgres"
)

var ErrDimensionMismatch = errors.New("embedding count does not match chunk count")

// Collection is a named, persistent set of chunks with their embeddings.
type Collection interface {
	Name() string
	Count(ctx context.Context) (int, error)
	Add(ctx context.Context, chunks []models.Document, embeddings [][]float32) error
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]ScoredDocument, error)
}

// ScoredDocument is a search hit; Score is the cosine similarity to the query.
type ScoredDocument struct {
	Document models.Document
	Score    float32
}

// Documents strips the scores, keeping rank order.
func Documents(hits []ScoredDocument) []models.Document {
	docs := make([]models.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	return docs
}

// New opens the collection on the configured backend. pool may be nil for the local backend.
func New(ctx context.Context, cfg *config.VectorStoreConfig, name string, pool *pgxpool.Pool, logger *zap.Logger) (Collection, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return OpenLocal(cfg.PersistDirectory, name, logger)
	case BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres vector store requires a database pool")
		}
		return NewPostgresCollection(pool, name, logger), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.Backend)
	}
}

func validateBatch(chunks []models.Document, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks, %d embeddings", ErrDimensionMismatch, len(chunks), len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) == 0 {
			return fmt.Errorf("empty embedding for chunk %d", i)
		}
		if len(e) != len(embeddings[0]) {
			return fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(e), len(embeddings[0]))
		}
	}
	return nil
}

// Rank orders hits by descending score and keeps the first k.
func Rank(hits []ScoredDocument, k int) []ScoredDocument {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}
