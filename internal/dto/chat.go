package dto

import "github.com/micocomia/5902Group5/internal/models"

type ChatRequest struct {
	Messages       []models.ChatMessage  `json:"messages"`
	LearnerProfile models.LearnerProfile `json:"learner_profile"`
	UseSearch      *bool                 `json:"use_search,omitempty"`
}

type ChatResponse struct {
	Response string            `json:"response"`
	Sources  []models.Document `json:"sources"`
}

type ModelInfo struct {
	ModelName     string `json:"model_name"`
	ModelProvider string `json:"model_provider"`
}

type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}
