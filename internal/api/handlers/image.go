package handlers

import (
	"net/http"

	"LLM_ImageChat/internal/service/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ImageHandler struct {
	chatService chat.ChatService
	logger      *zap.Logger
}

func NewImageHandler(chatService chat.ChatService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type ImageRequest struct {
	Prompt string `json:"prompt"`
}

type ImageResponse struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

// POST /generate-image - генерация картинки без сессии
func (h *ImageHandler) Generate(c *gin.Context) {
	var req ImageRequest
	// Битое тело отвечает так же, как тело без prompt
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid image request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
		return
	}

	img, err := h.chatService.GenerateImage(c.Request.Context(), req.Prompt)
	if err != nil {
		if chat.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
			return
		}

		h.logger.Error("Failed to generate image",
			zap.Error(err),
			zap.String("image_prompt", req.Prompt),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate image"})
		return
	}

	c.JSON(http.StatusOK, ImageResponse{
		Image:  img.DataURI(),
		Prompt: req.Prompt,
	})
}
