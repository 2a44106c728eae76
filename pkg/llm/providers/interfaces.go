// pkg/llm/providers/interfaces.go
package providers

import (
	"context"
	"time"
)

// Message представляет сообщение в диалоге (универсальный формат)
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse представляет ответ от LLM (универсальный формат)
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider интерфейс для LLM провайдеров
type Provider interface {
	// GetName возвращает имя провайдера
	GetName() string

	// ChatCompletion выполняет запрос без стриминга
	ChatCompletion(ctx context.Context, messages []Message) (*ChatResponse, error)

	// GetSupportedModels возвращает список поддерживаемых моделей
	GetSupportedModels() []string

	// ValidateConfig проверяет корректность конфигурации
	ValidateConfig() error
}

// Config общая конфигурация для всех провайдеров
type Config struct {
	Provider    string        `mapstructure:"provider"` // "openai", "gemini"
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ProviderFactory создает провайдеров
type ProviderFactory interface {
	CreateProvider(config Config) (Provider, error)
	GetSupportedProviders() []string
}

const (
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	// 0 допустимая температура, подменяем только отрицательную
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
