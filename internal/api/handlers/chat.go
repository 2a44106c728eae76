package handlers

import (
	"errors"
	"net/http"

	"LLM_ImageChat/internal/service/chat"
	"LLM_ImageChat/internal/storage/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService chat.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService chat.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type ChatResponse struct {
	Reply       string `json:"reply"`
	SessionID   string `json:"sessionId"`
	Image       string `json:"image,omitempty"`
	ImagePrompt string `json:"imagePrompt,omitempty"`
}

type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []models.Message `json:"messages"`
	Total     int              `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const genericError = "Something went wrong"

// POST /chat - основной эндпоинт для отправки сообщений
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.chatService.ProcessMessage(c.Request.Context(), chat.ProcessMessageRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		if chat.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: validationMessage(err),
				Code:  "VALIDATION_ERROR",
			})
			return
		}

		h.logger.Error("Failed to process message",
			zap.Error(err),
			zap.String("session_id", req.SessionID),
		)
		// Детали ошибки клиенту не отдаём
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: genericError})
		return
	}

	h.logger.Info("Message processed successfully",
		zap.String("session_id", resp.SessionID),
		zap.String("reply_kind", string(resp.Kind)),
		zap.Bool("new_session", resp.NewSession),
		zap.Duration("processing_time", resp.ProcessingTime),
	)

	c.JSON(http.StatusOK, ChatResponse{
		Reply:       resp.Reply,
		SessionID:   resp.SessionID,
		Image:       resp.Image,
		ImagePrompt: resp.ImagePrompt,
	})
}

// GET /chat/:session_id/history - получение истории сообщений
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	messages, err := h.chatService.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		if chat.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "Session not found",
				Code:  "SESSION_NOT_FOUND",
			})
			return
		}
		h.logger.Error("Failed to get messages",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to get messages",
			Code:  "HISTORY_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
		Total:     len(messages),
	})
}

// DELETE /chat/:session_id - удаление сессии
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.chatService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		if chat.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "Session not found",
				Code:  "SESSION_NOT_FOUND",
			})
			return
		}
		h.logger.Error("Failed to delete session",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to delete session",
			Code:  "DELETE_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Session deleted successfully",
		"session_id": sessionID,
	})
}

// GET /api/v1/stats - счётчики сервиса
func (h *ChatHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.chatService.Stats(c.Request.Context()))
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return "Message is required"
	case errors.Is(err, chat.ErrEmptyPrompt):
		return "Prompt is required"
	default:
		return "Validation failed"
	}
}
