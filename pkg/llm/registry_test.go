package llm

import (
	"slices"
	"testing"

	"LLM_ImageChat/pkg/llm/providers"

	"go.uber.org/zap"
)

func TestRegistryListsFactoryProviders(t *testing.T) {
	infos := NewRegistry(zap.NewNop()).GetAvailableProviders()

	if len(infos) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(infos))
	}
	for _, info := range infos {
		if len(info.SupportedModels) == 0 {
			t.Errorf("provider %s has no models", info.Name)
		}
		if len(info.RequiredConfig) == 0 {
			t.Errorf("provider %s has no required config", info.Name)
		}
	}

	names := GetSupportedProviders(zap.NewNop())
	if names[0] != "openai" || names[1] != "gemini" {
		t.Fatalf("unexpected provider order %v", names)
	}
}

func TestRegistryModelsMatchProviders(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	openaiInfo := registry.getProviderInfo(providers.ProviderOpenAI)
	if !slices.Equal(openaiInfo.SupportedModels, (&providers.OpenAIProvider{}).GetSupportedModels()) {
		t.Fatalf("openai models differ: %v", openaiInfo.SupportedModels)
	}

	geminiInfo := registry.getProviderInfo(providers.ProviderGemini)
	if !slices.Equal(geminiInfo.SupportedModels, (&providers.GeminiProvider{}).GetSupportedModels()) {
		t.Fatalf("gemini models differ: %v", geminiInfo.SupportedModels)
	}
}
