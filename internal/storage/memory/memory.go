package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LLM_ImageChat/internal/storage/interfaces"
	"LLM_ImageChat/internal/storage/models"

	"github.com/google/uuid"
)

// DefaultMaxMessages лимит хранимой истории на сессию (включая системное сообщение)
const DefaultMaxMessages = 50

type MemoryStorage struct {
	messages    map[string][]models.Message   // sessionID -> messages
	sessions    map[string]models.ChatSession // sessionID -> session
	maxMessages int
	mu          sync.RWMutex
}

func New(maxMessages int) *MemoryStorage {
	if maxMessages < 2 {
		maxMessages = DefaultMaxMessages
	}

	return &MemoryStorage{
		messages:    make(map[string][]models.Message),
		sessions:    make(map[string]models.ChatSession),
		maxMessages: maxMessages,
	}
}

// SessionStore implementation
func (m *MemoryStorage) GetOrCreate(ctx context.Context, sessionID, systemPrompt string) (*models.ChatSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, exists := m.sessions[sessionID]; exists {
		return &session, false, nil
	}

	now := time.Now()
	session := models.ChatSession{
		ID:           sessionID,
		CreatedAt:    now,
		UpdatedAt:    now,
		MessageCount: 1,
	}
	m.sessions[sessionID] = session
	m.messages[sessionID] = []models.Message{{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleSystem,
		Content:   systemPrompt,
		Timestamp: now,
	}}

	return &session, true, nil
}

func (m *MemoryStorage) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrSessionNotFound, sessionID)
	}

	return &session, nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("%w: %s", interfaces.ErrSessionNotFound, sessionID)
	}

	delete(m.messages, sessionID)
	delete(m.sessions, sessionID)

	return nil
}

func (m *MemoryStorage) SessionCount(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions), nil
}

func (m *MemoryStorage) SetLastImagePrompt(ctx context.Context, sessionID, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return fmt.Errorf("%w: %s", interfaces.ErrSessionNotFound, sessionID)
	}

	session.LastImagePrompt = prompt
	session.UpdatedAt = time.Now()
	m.sessions[sessionID] = session

	return nil
}

// MessageStore implementation
func (m *MemoryStorage) AppendMessage(ctx context.Context, msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[msg.SessionID]
	if !exists {
		return fmt.Errorf("%w: %s", interfaces.ErrSessionNotFound, msg.SessionID)
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	history := append(m.messages[msg.SessionID], msg)

	// Вытесняем самые старые реплики, системное сообщение (index 0) остаётся
	if len(history) > m.maxMessages {
		overflow := len(history) - m.maxMessages
		bounded := make([]models.Message, 0, m.maxMessages)
		bounded = append(bounded, history[0])
		bounded = append(bounded, history[1+overflow:]...)
		history = bounded
	}
	m.messages[msg.SessionID] = history

	session.UpdatedAt = msg.Timestamp
	session.MessageCount++
	m.sessions[msg.SessionID] = session

	return nil
}

// GetHistory возвращает копию истории, вызывающий может её свободно менять
func (m *MemoryStorage) GetHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages, exists := m.messages[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrSessionNotFound, sessionID)
	}

	out := make([]models.Message, len(messages))
	copy(out, messages)
	return out, nil
}

// Verify interfaces implementation
var _ interfaces.SessionStore = (*MemoryStorage)(nil)
var _ interfaces.MessageStore = (*MemoryStorage)(nil)
