package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"LLM_ImageChat/internal/config"
	"LLM_ImageChat/internal/service/prompt"
	"LLM_ImageChat/internal/storage/interfaces"
	"LLM_ImageChat/internal/storage/models"
	"LLM_ImageChat/pkg/imagegen"
	"LLM_ImageChat/pkg/llm"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageApology ответ, когда сервис картинок недоступен. Используется для обоих
// путей генерации (маркер модели и эвристика правки).
const ImageApology = "I'd love to generate that image for you, but I'm having trouble with the image service right now. Please try again later."

// ReplyKind чем закончился ход
type ReplyKind string

const (
	KindDirect         ReplyKind = "direct"
	KindImageMarker    ReplyKind = "image_marker"
	KindImageHeuristic ReplyKind = "image_heuristic"
	KindImageFailed    ReplyKind = "image_failed"
)

type Service struct {
	store       interfaces.ConversationStore
	llmClient   llm.LLMClient
	images      imagegen.Generator
	tokens      llm.TokenCounter
	config      *config.ChatConfig
	imageParams imagegen.Params
	locks       *sessionLocks
	metrics     *SimpleMetrics
	logger      *zap.Logger
}

func NewService(
	store interfaces.ConversationStore,
	llmClient llm.LLMClient,
	images imagegen.Generator,
	config *config.ChatConfig,
	imageParams imagegen.Params,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:       store,
		llmClient:   llmClient,
		images:      images,
		config:      config,
		imageParams: imageParams,
		locks:       newSessionLocks(),
		metrics:     NewSimpleMetrics(),
		logger:      logger,
	}
}

// WithTokenCounter включает оценку размера промпта в токенах
func (s *Service) WithTokenCounter(tokens llm.TokenCounter) *Service {
	s.tokens = tokens
	return s
}

type ProcessMessageRequest struct {
	SessionID string
	Message   string
}

type ProcessMessageResponse struct {
	Reply          string
	SessionID      string
	Image          string // data URI
	ImagePrompt    string
	Kind           ReplyKind
	NewSession     bool
	ProcessingTime time.Duration
}

// NewSessionID генерирует идентификатор для клиента, который его не прислал
func NewSessionID() string {
	return uuid.NewString()
}

// ProcessMessage обрабатывает одну реплику пользователя
func (s *Service) ProcessMessage(ctx context.Context, req ProcessMessageRequest) (*ProcessMessageResponse, error) {
	startTime := time.Now()

	// 1. Валидация
	if err := ValidateProcessMessageRequest(req); err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	// 2. Сессия и классификация до изменения истории
	session, created, err := s.store.GetOrCreate(ctx, sessionID, s.config.SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	modification := prompt.IsLikelyModification(req.Message)

	s.logger.Debug("Processing message",
		zap.String("session_id", sessionID),
		zap.Bool("new_session", created),
		zap.Bool("likely_modification", modification),
		zap.Int("message_length", len(req.Message)),
	)

	// 3. Сообщение пользователя остаётся в истории даже если LLM упадёт
	if err := s.appendTurn(ctx, sessionID, models.RoleUser, req.Message); err != nil {
		return nil, err
	}

	history, err := s.store.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	window := llm.TrimMessages(llm.ConvertToLLMMessages(history), s.config.HistoryWindow)
	promptTokens := 0
	if s.tokens != nil {
		promptTokens = s.tokens.CountMessagesTokens(window)
	}

	llmResponse, err := s.llmClient.ChatCompletion(ctx, window)
	if err != nil {
		s.metrics.RecordCompletionFailure()
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}
	completion, err := llm.FirstChoiceContent(llmResponse)
	if err != nil {
		s.metrics.RecordCompletionFailure()
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}

	lastPrompt, hasLastPrompt := s.lastImagePrompt(session, history)

	// 4. Ветвление по ответу модели
	var resp *ProcessMessageResponse
	switch reply := prompt.ParseReply(completion).(type) {
	case prompt.ImageRequest:
		imagePrompt := reply.Prompt
		// Эвристика правки важнее промпта, который предложила модель
		if modification && hasLastPrompt {
			imagePrompt = prompt.Enhance(lastPrompt, true, req.Message, imagePrompt)
		}
		if imagePrompt == "" {
			imagePrompt = req.Message
		}
		resp, err = s.respondWithImage(ctx, sessionID, imagePrompt, KindImageMarker)

	case prompt.PlainReply:
		if modification && hasLastPrompt {
			// Модель не выдала маркер, но пользователь явно правит прошлую картинку
			enhanced := prompt.Enhance(lastPrompt, true, req.Message, req.Message)
			resp, err = s.respondWithImage(ctx, sessionID, enhanced, KindImageHeuristic)
		} else {
			resp, err = s.respondWithText(ctx, sessionID, reply.Text)
		}

	default:
		resp, err = s.respondWithText(ctx, sessionID, completion)
	}
	if err != nil {
		return nil, err
	}

	resp.SessionID = sessionID
	resp.NewSession = created
	resp.ProcessingTime = time.Since(startTime)

	s.recordMetrics(sessionID, resp.Kind, promptTokens, resp.ProcessingTime)

	return resp, nil
}

func (s *Service) respondWithText(ctx context.Context, sessionID, text string) (*ProcessMessageResponse, error) {
	if err := s.appendTurn(ctx, sessionID, models.RoleAssistant, text); err != nil {
		return nil, err
	}
	return &ProcessMessageResponse{Reply: text, Kind: KindDirect}, nil
}

// respondWithImage общая политика для обоих путей: при ошибке сервиса картинок
// в историю и в ответ идёт ImageApology, HTTP статус остаётся 200
func (s *Service) respondWithImage(ctx context.Context, sessionID, imagePrompt string, kind ReplyKind) (*ProcessMessageResponse, error) {
	img, err := s.images.Generate(ctx, imagePrompt, s.imageParams)
	if err != nil {
		s.metrics.RecordImage(false)
		s.logger.Warn("Image generation failed",
			zap.String("session_id", sessionID),
			zap.String("reply_kind", string(kind)),
			zap.String("image_prompt", imagePrompt),
			zap.Error(err),
		)

		if err := s.appendTurn(ctx, sessionID, models.RoleAssistant, ImageApology); err != nil {
			return nil, err
		}
		return &ProcessMessageResponse{Reply: ImageApology, Kind: KindImageFailed}, nil
	}
	s.metrics.RecordImage(true)

	reply := prompt.ImageReply(imagePrompt)
	if err := s.appendTurn(ctx, sessionID, models.RoleAssistant, reply); err != nil {
		return nil, err
	}
	if err := s.store.SetLastImagePrompt(ctx, sessionID, imagePrompt); err != nil {
		return nil, fmt.Errorf("failed to cache image prompt: %w", err)
	}

	return &ProcessMessageResponse{
		Reply:       reply,
		Image:       img.DataURI(),
		ImagePrompt: imagePrompt,
		Kind:        kind,
	}, nil
}

// lastImagePrompt берёт закешированный в сессии промпт, иначе ищет в истории
func (s *Service) lastImagePrompt(session *models.ChatSession, history []models.Message) (string, bool) {
	if session != nil && session.LastImagePrompt != "" {
		return session.LastImagePrompt, true
	}
	return prompt.LastImagePrompt(history)
}

func (s *Service) appendTurn(ctx context.Context, sessionID, role, content string) error {
	msg := models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to save %s message: %w", role, err)
	}
	return nil
}

// GenerateImage генерация без привязки к сессии (POST /generate-image)
func (s *Service) GenerateImage(ctx context.Context, imagePrompt string) (*imagegen.Image, error) {
	if strings.TrimSpace(imagePrompt) == "" {
		return nil, ErrEmptyPrompt
	}

	img, err := s.images.Generate(ctx, imagePrompt, s.imageParams)
	if err != nil {
		s.metrics.RecordImage(false)
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	s.metrics.RecordImage(true)

	return img, nil
}

func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	messages, err := s.store.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// DeleteSession удаляет сессию вместе с историей
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info("Session deleted", zap.String("session_id", sessionID))
	return nil
}

func (s *Service) Stats(ctx context.Context) MetricsSnapshot {
	snapshot := s.metrics.Snapshot()
	if count, err := s.store.SessionCount(ctx); err == nil {
		snapshot.ActiveSessions = count
	}
	return snapshot
}

// IsNotFound true, если сессии нет в хранилище
func IsNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrSessionNotFound)
}
