package service

import (
	"context"

	"github.com/micocomia/5902Group5/internal/models"

	"go.uber.org/zap"
)

// VerifiedRetriever serves locally indexed course content.
type VerifiedRetriever interface {
	Retrieve(ctx context.Context, query string, k int) []models.Document
}

// WebRetriever runs a web search and returns documents tagged as web_search.
type WebRetriever interface {
	Invoke(ctx context.Context, query string, k int) ([]models.Document, error)
}

// HybridRetriever answers queries from verified content first and tops the
// result up with web search only when verified content falls short of k.
type HybridRetriever struct {
	verified VerifiedRetriever
	web      WebRetriever
	logger   *zap.Logger
}

// NewHybridRetriever accepts a nil verified or web collaborator; the missing
// source is simply skipped.
func NewHybridRetriever(verified VerifiedRetriever, web WebRetriever, logger *zap.Logger) *HybridRetriever {
	return &HybridRetriever{
		verified: verified,
		web:      web,
		logger:   logger,
	}
}

// InvokeHybrid returns at most k documents, verified ones first in rank order.
func (h *HybridRetriever) InvokeHybrid(ctx context.Context, query string, k int) []models.Document {
	if k <= 0 {
		return []models.Document{}
	}

	var verified []models.Document
	if h.verified != nil {
		verified = h.verified.Retrieve(ctx, query, k)
	}
	if len(verified) >= k {
		h.logger.Debug("Verified content satisfied query",
			zap.String("query", query),
			zap.Int("k", k),
		)
		return verified[:k]
	}

	results := make([]models.Document, 0, k)
	results = append(results, verified...)
	if h.web == nil {
		return results
	}

	web, err := h.web.Invoke(ctx, query, k)
	if err != nil {
		h.logger.Warn("Web search failed, returning verified content only",
			zap.String("query", query),
			zap.Int("verified", len(verified)),
			zap.Error(err),
		)
		return results
	}
	for _, doc := range web {
		if len(results) >= k {
			break
		}
		results = append(results, doc)
	}

	h.logger.Info("Hybrid retrieval completed",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("verified", len(verified)),
		zap.Int("web", len(results)-len(verified)),
	)
	return results
}
