package llm

import (
	"strings"

	"LLM_ImageChat/pkg/llm/providers"

	"go.uber.org/zap"
)

// ProviderInfo описание провайдера для /api/v1/models
type ProviderInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	SupportedModels []string `json:"supported_models"`
	RequiredConfig  []string `json:"required_config"`
}

// Registry реестр доступных провайдеров
type Registry struct {
	factory providers.ProviderFactory
	logger  *zap.Logger
}

// NewRegistry создает новый реестр провайдеров
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		factory: providers.NewFactory(logger),
		logger:  logger,
	}
}

// GetAvailableProviders возвращает список доступных провайдеров с их описанием
func (r *Registry) GetAvailableProviders() []ProviderInfo {
	names := r.factory.GetSupportedProviders()
	infos := make([]ProviderInfo, 0, len(names))

	for _, name := range names {
		infos = append(infos, r.getProviderInfo(name))
	}

	return infos
}

func (r *Registry) getProviderInfo(provider string) ProviderInfo {
	switch strings.ToLower(provider) {
	case providers.ProviderOpenAI:
		return ProviderInfo{
			Name:            providers.ProviderOpenAI,
			SupportedModels: providers.OpenAIModels(),
			Description:     "OpenAI-compatible chat completions (Hugging Face router, OpenRouter, OpenAI)",
			RequiredConfig:  []string{"api_key", "base_url", "model"},
		}
	case providers.ProviderGemini:
		return ProviderInfo{
			Name:            providers.ProviderGemini,
			SupportedModels: providers.GeminiModels(),
			Description:     "Google's Gemini models via the generative-ai-go SDK",
			RequiredConfig:  []string{"api_key", "model"},
		}
	default:
		return ProviderInfo{
			Name:            provider,
			SupportedModels: []string{},
			Description:     "Unknown provider",
			RequiredConfig:  []string{"api_key", "base_url", "model"},
		}
	}
}

// GetSupportedProviders возвращает имена провайдеров, которые умеет создавать фабрика
func GetSupportedProviders(logger *zap.Logger) []string {
	return providers.NewFactory(logger).GetSupportedProviders()
}
