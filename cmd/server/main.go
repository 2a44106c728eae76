package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LLM_ImageChat/internal/api/handlers"
	"LLM_ImageChat/internal/api/routes"
	"LLM_ImageChat/internal/config"
	"LLM_ImageChat/internal/service/chat"
	"LLM_ImageChat/internal/storage/memory"
	"LLM_ImageChat/pkg/imagegen"
	"LLM_ImageChat/pkg/llm"

	"go.uber.org/zap"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Настройка логгера
	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		panic(fmt.Sprintf("Failed to setup logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting image chat server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("image_model", cfg.Image.Model),
		zap.Int("history_window", cfg.Chat.HistoryWindow),
	)

	logConfigInfo(cfg, logger)

	// LLM клиент
	llmClient, err := llm.NewClient(cfg.ToProviderConfig(), logger.With(zap.String("component", "llm")))
	if err != nil {
		logger.Fatal("Failed to initialize LLM client",
			zap.Error(err),
			zap.Strings("supported_providers", llm.GetSupportedProviders(logger)),
		)
	}
	defer llmClient.Close()

	logger.Info("LLM client initialized",
		zap.String("provider", llmClient.GetProviderName()),
		zap.Strings("models", llmClient.GetSupportedModels()),
	)

	// Клиент генерации картинок
	imageClient, err := imagegen.NewHFClient(cfg.ToImageConfig(), logger.With(zap.String("component", "imagegen")))
	if err != nil {
		logger.Fatal("Failed to initialize image client", zap.Error(err))
	}
	logger.Info("Image client initialized", zap.String("endpoint", imageClient.Endpoint()))

	// Хранилище сессий живёт столько же, сколько процесс
	storage := memory.New(cfg.Chat.MaxStoredMessages)

	chatService := chat.NewService(
		storage,
		llmClient,
		imageClient,
		&cfg.Chat,
		cfg.ToImageParams(),
		logger.With(zap.String("component", "chat")),
	)

	// Оценка токенов необязательна: без словаря tiktoken сервис работает как обычно
	if tokenizer, err := llm.NewTokenizer(""); err != nil {
		logger.Warn("Token estimation disabled", zap.Error(err))
	} else {
		chatService.WithTokenCounter(tokenizer)
	}

	// Инициализация handlers
	chatHandler := handlers.NewChatHandler(chatService, logger)
	imageHandler := handlers.NewImageHandler(chatService, logger)
	healthHandler := handlers.NewHealthHandler()
	modelsHandler := handlers.NewModelsHandler(logger)

	// Настройка роутов
	router := routes.SetupRoutes(cfg, logger, chatHandler, imageHandler, healthHandler, modelsHandler)

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func logConfigInfo(cfg *config.Config, logger *zap.Logger) {
	configSources := config.GetConfigSource(cfg)

	logger.Info("Configuration loaded successfully",
		zap.String("config_file", configSources["config_file"]),
		zap.String("llm_api_key", configSources["llm_api_key"]),
		zap.String("image_api_key", configSources["image_api_key"]),
		zap.String("provider", configSources["provider"]),
		zap.String("image_model", configSources["image_model"]),
	)

	logger.Info("Environment variables guide",
		zap.Strings("llm_env_vars", config.GetLLMEnvVars()),
		zap.Strings("image_env_vars", config.GetImageEnvVars()),
	)
}

func setupLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	// Настройка уровня логирования
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return zapCfg.Build()
}
