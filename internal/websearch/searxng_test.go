package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSearxNGClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "gradient descent", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"title": "GD", "url": "https://a.example/gd", "content": "Gradient descent is...", "engine": "duckduckgo"},
			{"title": "GD again", "url": "https://a.example/gd", "content": "dup"},
			{"title": "No URL", "url": "", "content": "skip"},
			{"title": "SGD", "url": "https://b.example/sgd", "content": "Stochastic...", "engine": "bing"},
			{"title": "Adam", "url": "https://c.example/adam", "content": "Adaptive..."}
		]}`))
	}))
	defer srv.Close()

	c := NewSearxNGClient(srv.URL+"/", time.Second, zap.NewNop())
	results, err := c.Search(context.Background(), "gradient descent", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "https://a.example/gd", results[0].URL)
	assert.Equal(t, "Gradient descent is...", results[0].Snippet)
	assert.Equal(t, "bing", results[1].Engine)
}

func TestSearxNGClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "format not allowed", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSearxNGClient(srv.URL, time.Second, zap.NewNop()).Search(context.Background(), "q", 3)
	assert.ErrorContains(t, err, "403")
}

func TestSearxNGClient_BlankQuery(t *testing.T) {
	results, err := NewSearxNGClient("http://unused.invalid", time.Second, zap.NewNop()).Search(context.Background(), "  ", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
