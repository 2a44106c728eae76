package llm

import (
	"context"
)

// LLMClient интерфейс для работы с LLM API
type LLMClient interface {
	ChatCompletion(ctx context.Context, messages []Message) (*ChatResponse, error)
}

// TokenCounter оценивает размер промпта в токенах
type TokenCounter interface {
	CountMessagesTokens(messages []Message) int
}

// Verify interface implementation
var _ LLMClient = (*Client)(nil)
var _ TokenCounter = (*Tokenizer)(nil)
