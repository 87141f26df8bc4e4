package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/internal/vectorstore"
	"github.com/micocomia/5902Group5/internal/websearch"
)

// letterEmbedder embeds text as its a-z letter histogram plus a constant
// component so that no vector is all zeros.
type letterEmbedder struct {
	mu         sync.Mutex
	docCalls   int
	queryCalls int
	err        error
}

func letterVector(text string) []float32 {
	v := make([]float32, 27)
	v[26] = 1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' && unicode.IsLetter(r) {
			v[r-'a']++
		}
	}
	return v
}

func (e *letterEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.docCalls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

func (e *letterEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queryCalls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return letterVector(text), nil
}

// brokenCollection fails every operation it is configured to fail.
type brokenCollection struct {
	count     int
	countErr  error
	searchErr error
	addErr    error
}

func (c *brokenCollection) Name() string { return "broken" }

func (c *brokenCollection) Count(context.Context) (int, error) { return c.count, c.countErr }

func (c *brokenCollection) Add(context.Context, []models.Document, [][]float32) error {
	return c.addErr
}

func (c *brokenCollection) SimilaritySearch(context.Context, []float32, int) ([]vectorstore.ScoredDocument, error) {
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	panic("search should not have been reached")
}

type stubConverter struct {
	docs []models.RawDocument
}

func (s stubConverter) Convert(context.Context, string) ([]models.RawDocument, error) {
	return s.docs, nil
}

func docsOf(source models.SourceType, contents ...string) []models.Document {
	docs := make([]models.Document, len(contents))
	for i, c := range contents {
		docs[i] = models.NewDocument(c, models.Metadata{
			models.MetaSourceType: models.StringValue(string(source)),
		})
	}
	return docs
}

type fakeVerified struct {
	docs  []models.Document
	calls int
}

func (f *fakeVerified) Retrieve(_ context.Context, _ string, k int) []models.Document {
	f.calls++
	if len(f.docs) > k {
		return f.docs[:k]
	}
	return f.docs
}

type fakeWeb struct {
	docs  []models.Document
	err   error
	calls int
	lastK int
	lastQ string
}

func (f *fakeWeb) Invoke(_ context.Context, query string, k int) ([]models.Document, error) {
	f.calls++
	f.lastK = k
	f.lastQ = query
	return f.docs, f.err
}

type fakeSearcher struct {
	results []websearch.Result
	err     error
	lastN   int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, n int) ([]websearch.Result, error) {
	f.lastN = n
	return f.results, f.err
}

var errBoom = errors.New("boom")
