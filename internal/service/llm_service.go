package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/micocomia/5902Group5/internal/models"
	"github.com/micocomia/5902Group5/pkg/config"
	"github.com/micocomia/5902Group5/pkg/gigachat"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const (
	llmProvider    = "gigachat"
	llmTemperature = 0.3
)

// ChatModel produces one assistant reply for a conversation.
type ChatModel interface {
	Generate(ctx context.Context, systemInstruction string, messages []models.ChatMessage) (string, error)
}

// LLMService talks to GigaChat: chat completions go through the gigago
// client, the model listing through the REST API with a cached OAuth token.
type LLMService struct {
	client     *gigago.Client
	modelName  string
	tokens     *gigachat.TokenSource
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

func NewLLMService(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GIGACHAT_API_KEY is not set")
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	httpClient := gigachat.NewHTTPClient(cfg, 30*time.Second)

	logger.Info("GigaChat client initialized", zap.String("model", cfg.Model))

	return &LLMService{
		client:     client,
		modelName:  cfg.Model,
		tokens:     gigachat.NewTokenSource(cfg, httpClient, logger),
		httpClient: httpClient,
		baseURL:    gigachat.DefaultBaseURL,
		logger:     logger,
	}, nil
}

func (s *LLMService) ModelName() string {
	return s.modelName
}

func (s *LLMService) Provider() string {
	return llmProvider
}

// Generate sends the conversation with the given system instruction and
// returns the first choice.
func (s *LLMService) Generate(ctx context.Context, systemInstruction string, messages []models.ChatMessage) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = systemInstruction
	model.Temperature = llmTemperature

	resp, err := model.Generate(ctx, toGigagoMessages(messages))
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Debug("LLM response received",
		zap.String("model", s.modelName),
		zap.Int("messages", len(messages)),
		zap.Int("length", len(content)),
	)
	return content, nil
}

func toGigagoMessages(messages []models.ChatMessage) []gigago.Message {
	out := make([]gigago.Message, 0, len(messages))
	for _, m := range messages {
		role := gigago.RoleUser
		if m.Role == models.RoleAssistant {
			role = gigago.RoleAssistant
		}
		out = append(out, gigago.Message{Role: role, Content: m.Content})
	}
	return out
}

// ListModels returns the model ids available to the configured credentials.
func (s *LLMService) ListModels(ctx context.Context) ([]string, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		s.tokens.Invalidate()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("failed to get models with status %d: %s", resp.StatusCode, string(body))
	}

	var modelsResp struct {
		Data []struct {
			ID      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}

	ids := make([]string, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
