package providers

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Factory struct {
	logger *zap.Logger
}

func NewFactory(logger *zap.Logger) ProviderFactory {
	return &Factory{
		logger: logger,
	}
}

func (f *Factory) CreateProvider(config Config) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAIProvider(config, f.logger)
	case ProviderGemini:
		return NewGeminiProvider(config, f.logger)
	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: %s)",
			config.Provider, strings.Join(f.GetSupportedProviders(), ", "))
	}
}

func (f *Factory) GetSupportedProviders() []string {
	return []string{ProviderOpenAI, ProviderGemini}
}
