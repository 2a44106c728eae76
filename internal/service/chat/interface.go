package chat

import (
	"LLM_ImageChat/internal/storage/models"
	"LLM_ImageChat/pkg/imagegen"
	"context"
)

// ChatService определяет интерфейс для работы с чатом и картинками
type ChatService interface {
	ProcessMessage(ctx context.Context, req ProcessMessageRequest) (*ProcessMessageResponse, error)
	GenerateImage(ctx context.Context, prompt string) (*imagegen.Image, error)
	GetHistory(ctx context.Context, sessionID string) ([]models.Message, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Stats(ctx context.Context) MetricsSnapshot
}

// Verify interface implementation
var _ ChatService = (*Service)(nil)
