package service

import (
	"context"
	"testing"

	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/textsplit"
	"github.com/micocomia/5902Group5/internal/websearch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var searchResults = []websearch.Result{
	{Title: "Zebra facts", URL: "https://example.com/zebra", Snippet: "Zebras have stripes.", Engine: "duckduckgo"},
	{Title: "Gradient descent", URL: "https://example.com/gd", Snippet: "Gradient descent minimizes a loss.", Engine: "bing"},
	{Title: "", URL: "https://example.com/empty", Snippet: "  ", Engine: "bing"},
}

func newWebSearchRAG(searcher websearch.Searcher, embedder *letterEmbedder) *WebSearchRAG {
	splitter := textsplit.NewRecursiveCharacter(textsplit.WithChunkSize(500))
	return NewWebSearchRAG(searcher, embedder, splitter, 5, zap.NewNop())
}

func TestWebSearchRAG_RanksAndTagsResults(t *testing.T) {
	searcher := &fakeSearcher{results: searchResults}
	rag := newWebSearchRAG(searcher, &letterEmbedder{})

	docs, err := rag.Invoke(context.Background(), "gradient descent loss", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, models.SourceTypeWebSearch, doc.SourceType())
	assert.Contains(t, doc.Content, "Gradient descent")
	url, _ := doc.Metadata.String(models.MetaURL)
	assert.Equal(t, "https://example.com/gd", url)
	engine, _ := doc.Metadata.String(models.MetaEngine)
	assert.Equal(t, "bing", engine)
	assert.Equal(t, 5, searcher.lastN)
}

func TestWebSearchRAG_SkipsBlankResults(t *testing.T) {
	rag := newWebSearchRAG(&fakeSearcher{results: searchResults}, &letterEmbedder{})

	docs, err := rag.Invoke(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestWebSearchRAG_AsksForAtLeastK(t *testing.T) {
	searcher := &fakeSearcher{}
	rag := newWebSearchRAG(searcher, &letterEmbedder{})

	docs, err := rag.Invoke(context.Background(), "q", 8)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 8, searcher.lastN)
}

func TestWebSearchRAG_SearchFailure(t *testing.T) {
	rag := newWebSearchRAG(&fakeSearcher{err: errBoom}, &letterEmbedder{})

	_, err := rag.Invoke(context.Background(), "q", 3)
	assert.ErrorIs(t, err, errBoom)
}

func TestWebSearchRAG_RankingFailureKeepsSearchOrder(t *testing.T) {
	rag := newWebSearchRAG(&fakeSearcher{results: searchResults}, &letterEmbedder{err: errBoom})

	docs, err := rag.Invoke(context.Background(), "gradient", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "Zebra")
}

func TestWebSearchRAG_NonPositiveK(t *testing.T) {
	searcher := &fakeSearcher{results: searchResults}
	rag := newWebSearchRAG(searcher, &letterEmbedder{})

	docs, err := rag.Invoke(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, searcher.lastN)
}
