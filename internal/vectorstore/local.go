package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalCollection keeps every record in memory and mirrors it to
// <dir>/<name>.json, rewriting the file atomically on each Add.
type LocalCollection struct {
	mu      sync.RWMutex
	name    string
	path    string
	records []record
	logger  *zap.Logger
}

type record struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Metadata  models.Metadata `json:"metadata"`
	Embedding []float32       `json:"embedding"`
}

type collectionFile struct {
	Collection string    `json:"collection"`
	UpdatedAt  time.Time `json:"updated_at"`
	Records    []record  `json:"records"`
}

// OpenLocal opens or creates the named collection under dir. An unwritable
// directory or a corrupt collection file is reported as an error.
func OpenLocal(dir, name string, logger *zap.Logger) (*LocalCollection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("persist directory %s is not writable: %w", dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	c := &LocalCollection{
		name:   name,
		path:   filepath.Join(dir, name+".json"),
		logger: logger,
	}
	if err := c.load(); err != nil {
		return nil, err
	}

	logger.Info("Opened local vector collection",
		zap.String("collection", name),
		zap.String("path", c.path),
		zap.Int("records", len(c.records)),
	)
	return c, nil
}

func (c *LocalCollection) Name() string {
	return c.name
}

func (c *LocalCollection) Count(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

func (c *LocalCollection) Add(_ context.Context, chunks []models.Document, embeddings [][]float32) error {
	if err := validateBatch(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) > 0 && len(c.records[0].Embedding) != len(embeddings[0]) {
		return fmt.Errorf("collection %s holds %d-dimensional embeddings, got %d",
			c.name, len(c.records[0].Embedding), len(embeddings[0]))
	}

	next := make([]record, len(c.records), len(c.records)+len(chunks))
	copy(next, c.records)
	for i, chunk := range chunks {
		next = append(next, record{
			ID:        uuid.New().String(),
			Content:   chunk.Content,
			Metadata:  chunk.Metadata.Clone(),
			Embedding: slices.Clone(embeddings[i]),
		})
	}

	if err := c.save(next); err != nil {
		return err
	}
	c.records = next
	return nil
}

func (c *LocalCollection) SimilaritySearch(_ context.Context, query []float32, k int) ([]ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.records) > 0 && len(query) != len(c.records[0].Embedding) {
		return nil, fmt.Errorf("query has %d dimensions, collection %s has %d",
			len(query), c.name, len(c.records[0].Embedding))
	}

	hits := make([]ScoredDocument, 0, len(c.records))
	for _, r := range c.records {
		hits = append(hits, ScoredDocument{
			Document: models.NewDocument(r.Content, r.Metadata.Clone()),
			Score:    CosineSimilarity(query, r.Embedding),
		})
	}
	return Rank(hits, k), nil
}

func (c *LocalCollection) load() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read collection file: %w", err)
	}

	var file collectionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to decode collection file %s: %w", c.path, err)
	}
	c.records = file.Records
	return nil
}

func (c *LocalCollection) save(records []record) error {
	data, err := json.Marshal(collectionFile{
		Collection: c.name,
		UpdatedAt:  time.Now().UTC(),
		Records:    records,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+c.name+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to replace collection file: %w", err)
	}
	return nil
}
