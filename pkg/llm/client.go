package llm

import (
	"LLM_ImageChat/pkg/llm/providers"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Client обертка над провайдером: логирование и проверка ответа
type Client struct {
	provider providers.Provider
	logger   *zap.Logger
}

// Message совместимый тип (переиспользуем из providers)
type Message = providers.Message

// ChatResponse совместимый тип
type ChatResponse = providers.ChatResponse

// Choice совместимый тип
type Choice = providers.Choice

// Usage совместимый тип
type Usage = providers.Usage

// NewClientWithProvider создает клиент с готовым провайдером
func NewClientWithProvider(provider providers.Provider, logger *zap.Logger) *Client {
	return &Client{
		provider: provider,
		logger:   logger,
	}
}

// NewClient создает провайдера через фабрику и оборачивает его
func NewClient(config providers.Config, logger *zap.Logger) (*Client, error) {
	provider, err := providers.NewFactory(logger).CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", config.Provider, err)
	}
	return NewClientWithProvider(provider, logger), nil
}

// ChatCompletion выполняет запрос к LLM (делегирует провайдеру)
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyMessages
	}

	c.logger.Debug("Executing chat completion",
		zap.String("provider", c.provider.GetName()),
		zap.Int("messages_count", len(messages)),
	)

	return c.provider.ChatCompletion(ctx, messages)
}

// GetProviderName возвращает имя используемого провайдера
func (c *Client) GetProviderName() string {
	return c.provider.GetName()
}

// GetSupportedModels возвращает список поддерживаемых моделей текущего провайдера
func (c *Client) GetSupportedModels() []string {
	return c.provider.GetSupportedModels()
}

// Close закрывает провайдера, если ему есть что закрывать
func (c *Client) Close() error {
	if closer, ok := c.provider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// FirstChoiceContent достаёт текст из первого choice
func FirstChoiceContent(resp *ChatResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
