// Package embeddings turns text into vectors for indexing and querying.
package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/micocomia/5902Group5/pkg/config"
	"github.com/micocomia/5902Group5/pkg/gigachat"

	"go.uber.org/zap"
)

const (
	ProviderOllama   = "ollama"
	ProviderGigaChat = "gigachat"
)

// Embedder embeds documents in bulk at index time and single queries at search time.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// New builds the embedder selected by cfg.Provider.
func New(cfg *config.EmbedderConfig, gigaCfg *config.GigaChatConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaEmbedder(OllamaConfig{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.ModelName,
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.Concurrency,
		}, logger), nil
	case ProviderGigaChat:
		if gigaCfg.APIKey == "" {
			return nil, fmt.Errorf("gigachat embedder requires GIGACHAT_API_KEY")
		}
		httpClient := gigachat.NewHTTPClient(gigaCfg, 60*time.Second)
		tokens := gigachat.NewTokenSource(gigaCfg, httpClient, logger)
		return NewGigaChatEmbedder(GigaChatConfig{
			BaseURL:   gigachat.DefaultBaseURL,
			Model:     cfg.ModelName,
			BatchSize: cfg.BatchSize,
		}, httpClient, tokens, logger), nil
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}

// batches splits texts into consecutive slices of at most size elements.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[start:end])
	}
	return out
}
