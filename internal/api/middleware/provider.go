package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CurrentProviderKey = "current_provider"
	CurrentModelKey    = "current_model"
	ImageModelKey      = "image_model"
)

// ProviderInfoMiddleware добавляет информацию о провайдерах в контекст
func ProviderInfoMiddleware(provider, model, imageModel string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CurrentProviderKey, provider)
		c.Set(CurrentModelKey, model)
		c.Set(ImageModelKey, imageModel)

		logger.Debug("Request with provider info",
			zap.String("provider", provider),
			zap.String("model", model),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()
	}
}
