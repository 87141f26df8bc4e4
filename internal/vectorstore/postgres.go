package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	chunksTable     = "vector_chunks"
	insertBatchSize = 200
)

// PostgresCollection stores chunks in the shared vector_chunks table, scoped
// by collection name, and ranks them with pgvector's cosine distance.
type PostgresCollection struct {
	db     *pgxpool.Pool
	name   string
	logger *zap.Logger
}

func NewPostgresCollection(db *pgxpool.Pool, name string, logger *zap.Logger) *PostgresCollection {
	return &PostgresCollection{
		db:     db,
		name:   name,
		logger: logger,
	}
}

func (c *PostgresCollection) Name() string {
	return c.name
}

func (c *PostgresCollection) Count(ctx context.Context) (int, error) {
	sql, args, err := countQuery(c.name).ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := c.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// Add inserts all chunks in one transaction so a failed batch leaves the collection untouched.
func (c *PostgresCollection) Add(ctx context.Context, chunks []models.Document, embeddings [][]float32) error {
	if err := validateBatch(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		query, err := insertQuery(c.name, chunks[start:end], embeddings[start:end], now)
		if err != nil {
			return err
		}
		sql, args, err := query.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}

	c.logger.Info("Inserted chunks",
		zap.String("collection", c.name),
		zap.Int("count", len(chunks)),
	)
	return nil
}

func (c *PostgresCollection) SimilaritySearch(ctx context.Context, query []float32, k int) ([]ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	sql, args, err := searchQuery(c.name, query, k).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var hits []ScoredDocument
	for rows.Next() {
		var (
			content  string
			rawMeta  []byte
			distance float64
		)
		if err := rows.Scan(&content, &rawMeta, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		meta := models.Metadata{}
		if err := json.Unmarshal(rawMeta, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
		}
		hits = append(hits, ScoredDocument{
			Document: models.NewDocument(content, meta),
			Score:    float32(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}
	return hits, nil
}

func countQuery(collection string) squirrel.SelectBuilder {
	return squirrel.Select("COUNT(*)").
		From(chunksTable).
		Where(squirrel.Eq{"collection": collection}).
		PlaceholderFormat(squirrel.Dollar)
}

func insertQuery(collection string, chunks []models.Document, embeddings [][]float32, now time.Time) (squirrel.InsertBuilder, error) {
	query := squirrel.Insert(chunksTable).
		Columns("id", "collection", "content", "metadata", "embedding", "created_at").
		PlaceholderFormat(squirrel.Dollar)

	for i, chunk := range chunks {
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return query, fmt.Errorf("failed to encode chunk metadata: %w", err)
		}
		query = query.Values(
			uuid.New(),
			collection,
			sanitizeText(chunk.Content),
			string(meta),
			squirrel.Expr("?::vector", vectorLiteral(embeddings[i])),
			now,
		)
	}
	return query, nil
}

func searchQuery(collection string, query []float32, k int) squirrel.SelectBuilder {
	return squirrel.Select("content", "metadata").
		Column(squirrel.Expr("embedding <=> ?::vector AS distance", vectorLiteral(query))).
		From(chunksTable).
		Where(squirrel.Eq{"collection": collection}).
		OrderBy("distance ASC").
		Limit(uint64(k)).
		PlaceholderFormat(squirrel.Dollar)
}

// vectorLiteral renders v in pgvector's text format, e.g. [0.1,0.2].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
