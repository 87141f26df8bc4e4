package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/micocomia/5902Group5/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lengthVector embeds a text as [len(text), 1] so callers can check alignment.
func lengthVector(s string) []float32 {
	return []float32{float32(len(s)), 1}
}

func newOllamaServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		resp := ollamaEmbedResponse{}
		for _, in := range req.Input {
			resp.Embeddings = append(resp.Embeddings, lengthVector(in))
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOllamaEmbedder_EmbedDocumentsKeepsOrder(t *testing.T) {
	var requests atomic.Int32
	srv := newOllamaServer(t, &requests)
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, BatchSize: 2, Concurrency: 3}, zap.NewNop())
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	vectors, err := e.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, lengthVector(text), vectors[i])
	}
	assert.EqualValues(t, 3, requests.Load())
}

func TestOllamaEmbedder_EmbedQuery(t *testing.T) {
	var requests atomic.Int32
	srv := newOllamaServer(t, &requests)
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL}, zap.NewNop())
	v, err := e.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, lengthVector("hello"), v)
}

func TestOllamaEmbedder_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL}, zap.NewNop())
	_, err := e.EmbedDocuments(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "status 404")
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings": [[1, 2]]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, BatchSize: 10}, zap.NewNop())
	_, err := e.EmbedDocuments(context.Background(), []string{"x", "y"})
	assert.Error(t, err)
}

type fakeTokens struct {
	token       string
	invalidated int
}

func (f *fakeTokens) Token(context.Context) (string, error) { return f.token, nil }
func (f *fakeTokens) Invalidate() {
	f.invalidated++
	f.token = "fresh"
}

func TestGigaChatEmbedder_RefreshesRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req gigaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// answer out of order to check re-sorting by index
		_, _ = w.Write([]byte(`{"data": [
			{"embedding": [2, 0], "index": 1},
			{"embedding": [1, 0], "index": 0}
		]}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "stale"}
	e := NewGigaChatEmbedder(GigaChatConfig{BaseURL: srv.URL}, srv.Client(), tokens, zap.NewNop())

	vectors, err := e.EmbedDocuments(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {2, 0}}, vectors)
	assert.Equal(t, 1, tokens.invalidated)
}

func TestNew(t *testing.T) {
	e, err := New(&config.EmbedderConfig{Provider: ProviderOllama}, &config.GigaChatConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	_, err = New(&config.EmbedderConfig{Provider: ProviderGigaChat}, &config.GigaChatConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(&config.EmbedderConfig{Provider: "huggingface"}, &config.GigaChatConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestBatches(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, batches([]string{"a", "b", "c"}, 2))
	assert.Nil(t, batches(nil, 2))
}

func TestOllamaEmbedder_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, Model: "nomic-embed-text"}, zap.NewNop())
	assert.NoError(t, e.Ping(context.Background()))

	srv.Close()
	assert.Error(t, e.Ping(context.Background()))
}
