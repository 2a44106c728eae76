package chat

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SimpleMetrics простая реализация метрик для мониторинга
type SimpleMetrics struct {
	mu sync.RWMutex

	TotalTurns          int64
	ImagesGenerated     int64
	ImageFailures       int64
	CompletionFailures  int64
	PromptTokens        int64
	AverageResponseTime time.Duration

	responseTimesSum time.Duration
	responseCount    int64
}

// MetricsSnapshot копия счётчиков для отдачи наружу
type MetricsSnapshot struct {
	TotalTurns          int64  `json:"total_turns"`
	ImagesGenerated     int64  `json:"images_generated"`
	ImageFailures       int64  `json:"image_failures"`
	CompletionFailures  int64  `json:"completion_failures"`
	PromptTokens        int64  `json:"prompt_tokens_estimate"`
	AverageResponseTime string `json:"average_response_time"`
	ActiveSessions      int    `json:"active_sessions"`
}

func NewSimpleMetrics() *SimpleMetrics {
	return &SimpleMetrics{}
}

func (m *SimpleMetrics) RecordTurn(promptTokens int, responseTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalTurns++
	m.PromptTokens += int64(promptTokens)

	m.responseTimesSum += responseTime
	m.responseCount++
	m.AverageResponseTime = m.responseTimesSum / time.Duration(m.responseCount)
}

func (m *SimpleMetrics) RecordImage(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.ImagesGenerated++
	} else {
		m.ImageFailures++
	}
}

func (m *SimpleMetrics) RecordCompletionFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompletionFailures++
}

func (m *SimpleMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		TotalTurns:          m.TotalTurns,
		ImagesGenerated:     m.ImagesGenerated,
		ImageFailures:       m.ImageFailures,
		CompletionFailures:  m.CompletionFailures,
		PromptTokens:        m.PromptTokens,
		AverageResponseTime: m.AverageResponseTime.String(),
	}
}

func (s *Service) recordMetrics(sessionID string, kind ReplyKind, promptTokens int, responseTime time.Duration) {
	s.metrics.RecordTurn(promptTokens, responseTime)
	s.logger.Info("Turn metrics",
		zap.String("session_id", sessionID),
		zap.String("reply_kind", string(kind)),
		zap.Int("prompt_tokens_estimate", promptTokens),
		zap.Duration("response_time", responseTime),
	)
}
