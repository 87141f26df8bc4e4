package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/micocomia/5902Group5/internal/dto"
	"github.com/micocomia/5902Group5/internal/models"

	"go.uber.org/zap"
)

// DefaultChatContextK is how many retrieved documents ground one tutor reply.
const DefaultChatContextK = 5

var ErrNoMessages = errors.New("messages must contain at least one message")

// HybridSearcher is the retrieval entry point the tutor grounds answers on.
type HybridSearcher interface {
	InvokeHybrid(ctx context.Context, query string, k int) []models.Document
}

type TutorService struct {
	llm       ChatModel
	retriever HybridSearcher
	k         int
	logger    *zap.Logger
}

// NewTutorService accepts a nil retriever, in which case answers are not
// grounded. k is the number of context documents, DefaultChatContextK if not positive.
func NewTutorService(llm ChatModel, retriever HybridSearcher, k int, logger *zap.Logger) *TutorService {
	if k <= 0 {
		k = DefaultChatContextK
	}
	return &TutorService{
		llm:       llm,
		retriever: retriever,
		k:         k,
		logger:    logger,
	}
}

// Chat answers the latest user message. When useSearch is set the message is
// used as a hybrid retrieval query and the results are handed to the model
// as tagged context.
func (s *TutorService) Chat(ctx context.Context, messages []models.ChatMessage, profile models.LearnerProfile, useSearch bool) (*dto.ChatResponse, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	sources := []models.Document{}
	if useSearch && s.retriever != nil {
		if query := lastUserMessage(messages); query != "" {
			sources = s.retriever.InvokeHybrid(ctx, query, s.k)
		}
	}

	reply, err := s.llm.Generate(ctx, tutorInstruction(profile, sources), messages)
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor reply: %w", err)
	}

	s.logger.Info("Tutor replied",
		zap.Int("messages", len(messages)),
		zap.Int("sources", len(sources)),
	)
	return &dto.ChatResponse{Response: reply, Sources: sources}, nil
}

func lastUserMessage(messages []models.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != models.RoleAssistant {
			if text := strings.TrimSpace(messages[i].Content); text != "" {
				return text
			}
		}
	}
	return ""
}

func tutorInstruction(profile models.LearnerProfile, sources []models.Document) string {
	var b strings.Builder
	b.WriteString("You are a patient AI tutor. Answer the learner's question clearly and adapt the explanation to their profile.\n")
	b.WriteString("Prefer the verified course material below over web results and cite the source tag of anything you use. ")
	b.WriteString("If the material does not cover the question, say so before answering from general knowledge.\n")

	if len(profile) > 0 {
		if raw, err := json.Marshal(profile); err == nil {
			b.WriteString("\nLearner profile:\n")
			b.Write(raw)
			b.WriteString("\n")
		}
	}

	if len(sources) > 0 {
		b.WriteString("\nContext:\n")
		b.WriteString(FormatContext(sources))
	}
	return b.String()
}

// FormatContext renders documents as numbered blocks tagged with their
// provenance, e.g. "[1] (verified_content: CS101 Lectures/week1.pdf)".
func FormatContext(docs []models.Document) string {
	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, sourceLabel(doc), strings.TrimSpace(doc.Content))
	}
	return b.String()
}

func sourceLabel(doc models.Document) string {
	kind := string(doc.SourceType())
	if kind == "" {
		kind = "unknown"
	}

	switch doc.SourceType() {
	case models.SourceTypeVerifiedContent:
		code, _ := doc.Metadata.String(models.MetaCourseCode)
		category, _ := doc.Metadata.String(models.MetaContentCategory)
		file, _ := doc.Metadata.String(models.MetaFileName)
		return strings.TrimSpace(fmt.Sprintf("%s: %s %s/%s", kind, code, category, file))
	case models.SourceTypeWebSearch:
		url, _ := doc.Metadata.String(models.MetaURL)
		return kind + ": " + url
	}
	return kind
}
