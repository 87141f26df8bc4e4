package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/micocomia/5902Group5/internal/content"
	"github.com/micocomia/5902Group5/internal/embeddings"
	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/textsplit"
	"github.com/micocomia/5902Group5/internal/vectorstore"
	"github.com/micocomia/5902Group5/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DefaultRetrieveK is used when a caller asks for a non-positive number of results.
const DefaultRetrieveK = 5

// VerifiedContentService owns the verified course content collection: it
// indexes the course directory once and serves similarity search over it.
type VerifiedContentService struct {
	embedder   embeddings.Embedder
	splitter   textsplit.Splitter
	collection vectorstore.Collection
	loader     *content.Loader
	baseDir    string
	logger     *zap.Logger

	// indexMu serializes the count check and the bulk insert so concurrent
	// callers cannot both index an empty collection.
	indexMu sync.Mutex
}

func NewVerifiedContentService(
	embedder embeddings.Embedder,
	splitter textsplit.Splitter,
	collection vectorstore.Collection,
	loader *content.Loader,
	baseDir string,
	logger *zap.Logger,
) *VerifiedContentService {
	return &VerifiedContentService{
		embedder:   embedder,
		splitter:   splitter,
		collection: collection,
		loader:     loader,
		baseDir:    baseDir,
		logger:     logger,
	}
}

// NewVerifiedContentServiceFromConfig resolves the splitter and collection
// from configuration. pool is only used by the postgres backend.
func NewVerifiedContentServiceFromConfig(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder, pool *pgxpool.Pool, logger *zap.Logger) (*VerifiedContentService, error) {
	splitter, err := textsplit.New(cfg.RAG.TextSplitterType,
		textsplit.WithChunkSize(cfg.VerifiedContent.ChunkSize),
		textsplit.WithOverlap(cfg.RAG.ChunkOverlap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create text splitter: %w", err)
	}

	collection, err := vectorstore.New(ctx, &cfg.VectorStore, cfg.VerifiedContent.CollectionName, pool, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector collection: %w", err)
	}

	loader := content.NewLoader(content.DefaultConverters(), logger)

	logger.Info("Verified content service configured",
		zap.String("embedder_provider", cfg.Embedder.Provider),
		zap.String("embedder_model", cfg.Embedder.ModelName),
		zap.String("splitter", cfg.RAG.TextSplitterType),
		zap.Int("chunk_size", cfg.VerifiedContent.ChunkSize),
		zap.Int("chunk_overlap", cfg.RAG.ChunkOverlap),
		zap.String("vectorstore", cfg.VectorStore.Backend),
		zap.String("collection", cfg.VerifiedContent.CollectionName),
	)

	return NewVerifiedContentService(embedder, splitter, collection, loader, cfg.VerifiedContent.BaseDir, logger), nil
}

// IndexVerifiedContent loads, chunks, embeds and stores everything under
// baseDir, unless the collection already holds documents, in which case it
// returns the existing count without touching the file system. An empty
// baseDir means the configured default.
func (s *VerifiedContentService) IndexVerifiedContent(ctx context.Context, baseDir string) (int, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection: %w", err)
	}
	if count > 0 {
		s.logger.Info("Verified content already indexed",
			zap.String("collection", s.collection.Name()),
			zap.Int("count", count),
		)
		return count, nil
	}

	if baseDir == "" {
		baseDir = s.baseDir
	}

	var docs []models.Document
	for _, doc := range s.loader.LoadAllVerifiedContent(ctx, baseDir) {
		if !doc.IsEmpty() {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		s.logger.Warn("No verified content found to index", zap.String("dir", baseDir))
		return 0, nil
	}

	chunks := prepareChunks(s.splitter.SplitDocuments(docs))
	if len(chunks) == 0 {
		s.logger.Warn("Verified content produced no chunks", zap.String("dir", baseDir))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed verified content: %w", err)
	}

	if err := s.collection.Add(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("failed to add chunks to collection: %w", err)
	}

	count, err = s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection: %w", err)
	}

	s.logger.Info("Indexed verified content",
		zap.String("collection", s.collection.Name()),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("count", count),
	)
	return count, nil
}

// prepareChunks drops blank chunks and tags untagged ones as verified content.
// Metadata values are scalar by construction, so nothing else needs filtering.
func prepareChunks(chunks []models.Document) []models.Document {
	out := make([]models.Document, 0, len(chunks))
	for _, c := range chunks {
		if c.IsEmpty() {
			continue
		}
		if _, ok := c.Metadata[models.MetaSourceType]; !ok {
			c.Metadata = c.Metadata.Clone()
			c.Metadata[models.MetaSourceType] = models.StringValue(string(models.SourceTypeVerifiedContent))
		}
		out = append(out, c)
	}
	return out
}

// Retrieve returns at most k chunks ranked by similarity to query. Any
// failure is logged and reported as no results.
func (s *VerifiedContentService) Retrieve(ctx context.Context, query string, k int) (docs []models.Document) {
	docs = []models.Document{}
	if k <= 0 {
		k = DefaultRetrieveK
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Verified content retrieval panicked", zap.Any("panic", r))
			docs = []models.Document{}
		}
	}()

	count, err := s.collection.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count verified content", zap.Error(err))
		return docs
	}
	if count == 0 {
		return docs
	}
	if k > count {
		k = count
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Error("Failed to embed query", zap.Error(err))
		return docs
	}

	hits, err := s.collection.SimilaritySearch(ctx, vector, k)
	if err != nil {
		s.logger.Error("Verified content search failed", zap.Error(err))
		return docs
	}

	s.logger.Debug("Verified content retrieved",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("results", len(hits)),
	)
	return vectorstore.Documents(hits)
}

// ListCourses scans baseDir, or the configured default when it is empty.
func (s *VerifiedContentService) ListCourses(baseDir string) []models.Course {
	if baseDir == "" {
		baseDir = s.baseDir
	}
	return content.ScanCourses(baseDir, s.logger)
}

func (s *VerifiedContentService) CollectionName() string {
	return s.collection.Name()
}

// Count reports how many chunks the collection holds.
func (s *VerifiedContentService) Count(ctx context.Context) (int, error) {
	return s.collection.Count(ctx)
}
