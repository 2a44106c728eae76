package providers

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"
)

// OpenAIProvider ходит в любой OpenAI-совместимый endpoint
// (Hugging Face router, OpenRouter, сам OpenAI)
type OpenAIProvider struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	client      *openai.Client
	logger      *zap.Logger
}

func NewOpenAIProvider(config Config, logger *zap.Logger) (Provider, error) {
	config = config.withDefaults()

	provider := &OpenAIProvider{
		baseURL:     config.BaseURL,
		apiKey:      config.APIKey,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With(zap.String("provider", ProviderOpenAI)),
	}

	if err := provider.ValidateConfig(); err != nil {
		return nil, err
	}

	// Ретраи SDK выключены: каждый внешний вызов выполняется ровно один раз
	oaClient := openai.NewClient(
		option.WithBaseURL(provider.baseURL),
		option.WithAPIKey(provider.apiKey),
		option.WithHTTPClient(provider.httpClient),
		option.WithMaxRetries(0),
	)
	provider.client = &oaClient

	return provider, nil
}

func (p *OpenAIProvider) GetName() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) ValidateConfig() error {
	if p.baseURL == "" {
		return fmt.Errorf("base URL is required for OpenAI-compatible provider")
	}
	if p.apiKey == "" {
		return fmt.Errorf("API key is required for OpenAI-compatible provider")
	}
	if p.model == "" {
		return fmt.Errorf("model is required for OpenAI-compatible provider")
	}
	return nil
}

func (p *OpenAIProvider) GetSupportedModels() []string {
	return OpenAIModels()
}

// OpenAIModels модели, проверенные через Hugging Face router
func OpenAIModels() []string {
	return []string{
		"openai/gpt-oss-20b:fireworks-ai",
		"openai/gpt-oss-120b:fireworks-ai",
		"meta-llama/Llama-3.1-8B-Instruct",
	}
}

func (p *OpenAIProvider) ChatCompletion(ctx context.Context, messages []Message) (*ChatResponse, error) {
	oaMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			oaMessages[i] = openai.SystemMessage(msg.Content)
		case "assistant":
			oaMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			oaMessages[i] = openai.UserMessage(msg.Content)
		}
	}

	p.logger.Debug("Sending chat completion request",
		zap.String("model", p.model),
		zap.Int("messages_count", len(messages)),
	)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    oaMessages,
		MaxTokens:   openai.Int(int64(p.maxTokens)),
		Temperature: openai.Float(p.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	return p.convertResponse(resp), nil
}

func (p *OpenAIProvider) convertResponse(resp *openai.ChatCompletion) *ChatResponse {
	choices := make([]Choice, len(resp.Choices))
	for i, choice := range resp.Choices {
		choices[i] = Choice{
			Index: int(choice.Index),
			Message: Message{
				Role:    string(choice.Message.Role),
				Content: choice.Message.Content,
			},
			FinishReason: choice.FinishReason,
		}
	}

	return &ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: choices,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}
