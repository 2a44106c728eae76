package llm

import (
	"LLM_ImageChat/internal/storage/models"
)

// ConvertToLLMMessages converts storage models to LLM messages
func ConvertToLLMMessages(storageMessages []models.Message) []Message {
	llmMessages := make([]Message, len(storageMessages))

	for i, msg := range storageMessages {
		llmMessages[i] = Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	return llmMessages
}

// TrimMessages обрезает историю до limit сообщений: первое (системное) сообщение
// сохраняется, к нему добавляются последние limit-1
func TrimMessages(messages []Message, limit int) []Message {
	if limit < 2 || len(messages) <= limit {
		return messages
	}

	trimmed := make([]Message, 0, limit)
	trimmed = append(trimmed, messages[0])
	trimmed = append(trimmed, messages[len(messages)-(limit-1):]...)
	return trimmed
}
