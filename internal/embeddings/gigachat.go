package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"go.uber.org/zap"
)

const DefaultGigaChatEmbeddingModel = "Embeddings"

type GigaChatConfig struct {
	BaseURL   string
	Model     string
	BatchSize int
}

// TokenProvider supplies bearer tokens for the GigaChat REST API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// GigaChatEmbedder calls the GigaChat /embeddings endpoint.
type GigaChatEmbedder struct {
	client    *http.Client
	tokens    TokenProvider
	baseURL   string
	model     string
	batchSize int
	logger    *zap.Logger
}

type gigaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type gigaEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func NewGigaChatEmbedder(cfg GigaChatConfig, client *http.Client, tokens TokenProvider, logger *zap.Logger) *GigaChatEmbedder {
	if cfg.Model == "" {
		cfg.Model = DefaultGigaChatEmbeddingModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	return &GigaChatEmbedder{
		client:    client,
		tokens:    tokens,
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
}

func (e *GigaChatEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, e.batchSize) {
		vectors, err := e.embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *GigaChatEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embed retries once with a fresh token when the cached one is rejected.
func (e *GigaChatEmbedder) embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors, status, err := e.post(ctx, input)
	if status == http.StatusUnauthorized {
		e.logger.Warn("GigaChat token rejected, refreshing")
		e.tokens.Invalidate()
		vectors, _, err = e.post(ctx, input)
	}
	return vectors, err
}

func (e *GigaChatEmbedder) post(ctx context.Context, input []string) ([][]float32, int, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get access token: %w", err)
	}

	body, err := json.Marshal(gigaEmbedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call embeddings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("embeddings API failed with status %d: %s", resp.StatusCode, string(msg))
	}

	var parsed gigaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(parsed.Data) != len(input) {
		return nil, resp.StatusCode, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(parsed.Data), len(input))
	}

	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		vectors[i] = d.Embedding
	}
	return vectors, resp.StatusCode, nil
}
