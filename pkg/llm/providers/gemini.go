// pkg/llm/providers/gemini.go
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	client      *genai.Client
	logger      *zap.Logger
}

func NewGeminiProvider(config Config, logger *zap.Logger) (Provider, error) {
	config = config.withDefaults()

	provider := &GeminiProvider{
		apiKey:      config.APIKey,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		timeout:     config.Timeout,
		logger:      logger.With(zap.String("provider", ProviderGemini)),
	}

	if err := provider.ValidateConfig(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(provider.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	provider.client = client

	return provider, nil
}

func (p *GeminiProvider) GetName() string {
	return ProviderGemini
}

func (p *GeminiProvider) ValidateConfig() error {
	if p.apiKey == "" {
		return fmt.Errorf("API key is required for Gemini")
	}
	if p.model == "" {
		return fmt.Errorf("model is required for Gemini")
	}
	return nil
}

func (p *GeminiProvider) GetSupportedModels() []string {
	return GeminiModels()
}

func GeminiModels() []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-1.5-pro",
		"gemini-1.5-flash",
	}
}

// Close освобождает gRPC/HTTP ресурсы клиента
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) ChatCompletion(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := p.client.GenerativeModel(p.model)
	model.SetMaxOutputTokens(int32(p.maxTokens))
	model.SetTemperature(float32(p.temperature))

	// Gemini принимает системную инструкцию отдельно, остальное - история чата
	var history []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		case "assistant":
			history = append(history, &genai.Content{
				Role:  "model", // В Gemini ассистент называется "model"
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		default:
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}

	if len(history) == 0 {
		return nil, errors.New("no user message to send")
	}

	last := history[len(history)-1]
	cs := model.StartChat()
	cs.History = history[:len(history)-1]

	p.logger.Debug("Sending Gemini request",
		zap.String("model", p.model),
		zap.Int("messages_count", len(messages)),
	)

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	return p.convertResponse(resp), nil
}

func (p *GeminiProvider) convertResponse(resp *genai.GenerateContentResponse) *ChatResponse {
	choices := make([]Choice, 0, len(resp.Candidates))

	for i, candidate := range resp.Candidates {
		var content strings.Builder
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					content.WriteString(string(text))
				}
			}
		}

		choices = append(choices, Choice{
			Index: i,
			Message: Message{
				Role:    "assistant",
				Content: content.String(),
			},
			FinishReason: candidate.FinishReason.String(),
		})
	}

	out := &ChatResponse{
		ID:      fmt.Sprintf("gemini-%d", time.Now().Unix()),
		Model:   p.model,
		Choices: choices,
	}

	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out
}
