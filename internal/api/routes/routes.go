package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"LLM_ImageChat/internal/api/handlers"
	"LLM_ImageChat/internal/api/middleware"
	"LLM_ImageChat/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRoutes(
	cfg *config.Config,
	logger *zap.Logger,
	chatHandler *handlers.ChatHandler,
	imageHandler *handlers.ImageHandler,
	healthHandler *handlers.HealthHandler,
	modelsHandler *handlers.ModelsHandler,
) *gin.Engine {

	// Настройка Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.TimeoutMiddleware(cfg.Server.RequestTimeout))
	r.Use(middleware.ProviderInfoMiddleware(cfg.LLM.Provider, cfg.LLM.Model, cfg.Image.Model, logger))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.ErrorResponse{Error: "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "Not found"})
	})

	// Health check
	r.GET("/health", healthHandler.Check)

	// Основной API фронтенда
	r.POST("/chat", chatHandler.SendMessage)
	r.POST("/generate-image", imageHandler.Generate)

	// Операции с сессиями
	r.GET("/chat/:session_id/history", chatHandler.GetHistory)
	r.DELETE("/chat/:session_id", chatHandler.DeleteSession)

	api := r.Group("/api/v1")
	{
		api.GET("/stats", chatHandler.GetStats)

		models := api.Group("/models")
		{
			models.GET("", modelsHandler.GetAvailableModels)
			models.GET("/:provider", modelsHandler.GetProviderModels)
		}

		// Информация о конфигурации (без секретов)
		api.GET("/config/info", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"server": gin.H{
					"host": cfg.Server.Host,
					"port": cfg.Server.Port,
				},
				"chat": gin.H{
					"history_window":      cfg.Chat.HistoryWindow,
					"max_stored_messages": cfg.Chat.MaxStoredMessages,
				},
				"llm": gin.H{
					"provider": cfg.LLM.Provider,
					"model":    cfg.LLM.Model,
					"base_url": cfg.LLM.BaseURL,
				},
				"image": gin.H{
					"model":  cfg.Image.Model,
					"width":  cfg.Image.Width,
					"height": cfg.Image.Height,
				},
				"sources": config.GetConfigSource(cfg),
			})
		})
	}

	setupStatic(r, cfg.Server.StaticDir, logger)

	return r
}

// setupStatic отдаёт фронтенд, если каталог существует
func setupStatic(r *gin.Engine, dir string, logger *zap.Logger) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Warn("Static directory not found, front-end disabled", zap.String("static_dir", dir))
		return
	}

	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err == nil {
		r.StaticFile("/", index)
	}
	r.Static("/static", dir)

	logger.Info("Serving static front-end", zap.String("static_dir", dir))
}
