package handlers

import (
	"net/http"

	"LLM_ImageChat/internal/api/middleware"
	"LLM_ImageChat/pkg/llm"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ModelsHandler struct {
	logger   *zap.Logger
	registry *llm.Registry
}

func NewModelsHandler(logger *zap.Logger) *ModelsHandler {
	return &ModelsHandler{
		logger:   logger,
		registry: llm.NewRegistry(logger),
	}
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
	ContextSize int    `json:"context_size,omitempty"`
}

type ProviderInfo struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	SupportedModels []ModelInfo `json:"supported_models"`
	RequiredConfig  []string    `json:"required_config"`
}

type ModelsResponse struct {
	CurrentProvider    string         `json:"current_provider"`
	CurrentModel       string         `json:"current_model"`
	ImageModel         string         `json:"image_model"`
	AvailableProviders []ProviderInfo `json:"available_providers"`
	SupportedProviders []string       `json:"supported_providers"`
}

// GET /api/v1/models - провайдеры и модели
func (h *ModelsHandler) GetAvailableModels(c *gin.Context) {
	providerInfos := h.registry.GetAvailableProviders()

	availableProviders := make([]ProviderInfo, 0, len(providerInfos))
	supportedProviders := make([]string, 0, len(providerInfos))
	for _, info := range providerInfos {
		supportedProviders = append(supportedProviders, info.Name)
		availableProviders = append(availableProviders, h.toProviderInfo(info))
	}

	c.JSON(http.StatusOK, ModelsResponse{
		CurrentProvider:    c.GetString(middleware.CurrentProviderKey),
		CurrentModel:       c.GetString(middleware.CurrentModelKey),
		ImageModel:         c.GetString(middleware.ImageModelKey),
		AvailableProviders: availableProviders,
		SupportedProviders: supportedProviders,
	})
}

// GET /api/v1/models/:provider - модели конкретного провайдера
func (h *ModelsHandler) GetProviderModels(c *gin.Context) {
	providerName := c.Param("provider")

	for _, info := range h.registry.GetAvailableProviders() {
		if info.Name == providerName {
			c.JSON(http.StatusOK, h.toProviderInfo(info))
			return
		}
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error: "provider not found",
		Code:  "PROVIDER_NOT_FOUND",
	})
}

func (h *ModelsHandler) toProviderInfo(info llm.ProviderInfo) ProviderInfo {
	models := make([]ModelInfo, 0, len(info.SupportedModels))
	for _, modelID := range info.SupportedModels {
		models = append(models, getModelDetails(modelID, info.Name))
	}

	return ProviderInfo{
		Name:            info.Name,
		Description:     info.Description,
		SupportedModels: models,
		RequiredConfig:  info.RequiredConfig,
	}
}

func getModelDetails(modelID, provider string) ModelInfo {
	model := ModelInfo{
		ID:       modelID,
		Name:     modelID,
		Provider: provider,
	}

	switch modelID {
	// Hugging Face router
	case "openai/gpt-oss-20b:fireworks-ai":
		model.Name = "GPT-OSS 20B (Fireworks)"
		model.Description = "Open-weight model served through the Hugging Face router"
		model.ContextSize = 131072
	case "openai/gpt-oss-120b:fireworks-ai":
		model.Name = "GPT-OSS 120B (Fireworks)"
		model.Description = "Larger open-weight model served through the Hugging Face router"
		model.ContextSize = 131072
	case "meta-llama/Llama-3.1-8B-Instruct":
		model.Name = "Llama 3.1 8B Instruct"
		model.Description = "Small Meta Llama instruct model"
		model.ContextSize = 131072

	// Gemini
	case "gemini-2.0-flash":
		model.Name = "Gemini 2.0 Flash"
		model.Description = "Fast Gemini model"
		model.ContextSize = 1048576
	case "gemini-1.5-pro":
		model.Name = "Gemini 1.5 Pro"
		model.Description = "High-performance Gemini model"
		model.ContextSize = 2097152
	case "gemini-1.5-flash":
		model.Name = "Gemini 1.5 Flash"
		model.Description = "Fast and efficient Gemini model"
		model.ContextSize = 1048576

	default:
		model.Description = "Model information not available"
	}

	return model
}
