package chat

import (
	"errors"
	"strings"
)

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrEmptyPrompt  = errors.New("prompt is required")
)

// ValidateProcessMessageRequest session ID непрозрачен и необязателен: пустой будет
// сгенерирован. Длину сообщения и session ID не ограничиваем.
func ValidateProcessMessageRequest(req ProcessMessageRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return ErrEmptyMessage
	}

	return nil
}

// IsValidationError true для ошибок, которые надо отдавать клиенту как 400
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrEmptyPrompt)
}
