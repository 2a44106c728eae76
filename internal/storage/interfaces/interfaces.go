package interfaces

import (
	"LLM_ImageChat/internal/storage/models"
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionStore interface {
	// GetOrCreate возвращает сессию; новая сессия сразу получает системное сообщение
	GetOrCreate(ctx context.Context, sessionID, systemPrompt string) (*models.ChatSession, bool, error)
	GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SessionCount(ctx context.Context) (int, error)

	// Image prompt cache
	SetLastImagePrompt(ctx context.Context, sessionID, prompt string) error
}

type MessageStore interface {
	AppendMessage(ctx context.Context, msg models.Message) error
	GetHistory(ctx context.Context, sessionID string) ([]models.Message, error)
}

// ConversationStore combines all storage interfaces for convenience
type ConversationStore interface {
	SessionStore
	MessageStore
}
