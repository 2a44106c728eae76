package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"LLM_ImageChat/pkg/imagegen"
	"LLM_ImageChat/pkg/llm/providers"

	"github.com/spf13/viper"
)

// DefaultSystemPrompt системная инструкция, с которой начинается каждая сессия
const DefaultSystemPrompt = "You are a helpful AI assistant that can both chat and generate images. " +
	"When a user asks you to create, generate, draw, make, or show an image/picture/photo, respond with 'GENERATE_IMAGE:' followed by a detailed prompt for the image. " +
	"For example: 'GENERATE_IMAGE: a beautiful sunset over mountains, digital art style'. " +
	"When a user asks to modify, enhance, or change a previously generated image (like 'make it more colorful', 'add more details', 'change the style', etc.), " +
	"also respond with 'GENERATE_IMAGE:' followed by an enhanced version of the previous image prompt that incorporates their requested changes. " +
	"For all other requests, respond normally as a helpful assistant. Keep responses concise and friendly."

const envPrefix = "IMAGE_CHAT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Chat    ChatConfig    `mapstructure:"chat"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Image   ImageConfig   `mapstructure:"image"`

	ConfigFile string `mapstructure:"-"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	StaticDir      string        `mapstructure:"static_dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ChatConfig struct {
	HistoryWindow     int    `mapstructure:"history_window"`      // сколько сообщений уходит в LLM, включая системное
	MaxStoredMessages int    `mapstructure:"max_stored_messages"` // сколько сообщений хранится на сессию
	SystemPrompt      string `mapstructure:"system_prompt"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // "openai" (HF router и другие OpenAI-совместимые) или "gemini"
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ImageConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	Steps         int           `mapstructure:"steps"`
	GuidanceScale float64       `mapstructure:"guidance_scale"`
	Width         int           `mapstructure:"width"`
	Height        int           `mapstructure:"height"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxBytes      int64         `mapstructure:"max_bytes"`
}

// Load читает configs/config.yaml или ./config.yaml (файл необязателен),
// затем переменные окружения IMAGE_CHAT_*. Дополнительные каталоги можно передать в paths.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindSecrets(v); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ConfigFile = v.ConfigFileUsed()
	config.LLM.Provider = strings.ToLower(strings.TrimSpace(config.LLM.Provider))

	// Валидация критических параметров
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.request_timeout", "170s")
	v.SetDefault("server.static_dir", "public")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Chat defaults
	v.SetDefault("chat.history_window", 10)
	v.SetDefault("chat.max_stored_messages", 50)
	v.SetDefault("chat.system_prompt", DefaultSystemPrompt)

	// LLM defaults (Hugging Face router, OpenAI-совместимый API)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("llm.model", "openai/gpt-oss-20b:fireworks-ai")
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", "60s")

	// Image defaults
	v.SetDefault("image.base_url", "https://api-inference.huggingface.co/models")
	v.SetDefault("image.model", "stabilityai/stable-diffusion-xl-base-1.0")
	v.SetDefault("image.steps", 20)
	v.SetDefault("image.guidance_scale", 7.5)
	v.SetDefault("image.width", 512)
	v.SetDefault("image.height", 512)
	v.SetDefault("image.timeout", "120s")
	v.SetDefault("image.max_bytes", imagegen.DefaultMaxImageBytes)
}

// bindSecrets ключи берутся только из конфига или окружения, в коде их нет
func bindSecrets(v *viper.Viper) error {
	if err := v.BindEnv(append([]string{"llm.api_key"}, GetLLMEnvVars()...)...); err != nil {
		return err
	}
	return v.BindEnv(append([]string{"image.api_key"}, GetImageEnvVars()...)...)
}

func validateConfig(config *Config) error {
	switch config.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported LLM provider: %s, supported: openai, gemini", config.LLM.Provider)
	}

	if strings.TrimSpace(config.LLM.APIKey) == "" {
		return fmt.Errorf("LLM API key is required, set llm.api_key or one of: %s",
			strings.Join(GetLLMEnvVars(), ", "))
	}

	if strings.TrimSpace(config.Image.APIKey) == "" {
		return fmt.Errorf("image API key is required, set image.api_key or one of: %s",
			strings.Join(GetImageEnvVars(), ", "))
	}

	// Проверяем базовые параметры сервера
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Chat.HistoryWindow < 2 {
		return fmt.Errorf("history window must be at least 2: %d", config.Chat.HistoryWindow)
	}

	if config.Chat.MaxStoredMessages < config.Chat.HistoryWindow {
		return fmt.Errorf("max stored messages (%d) must not be less than history window (%d)",
			config.Chat.MaxStoredMessages, config.Chat.HistoryWindow)
	}

	if strings.TrimSpace(config.Chat.SystemPrompt) == "" {
		return fmt.Errorf("system prompt is required")
	}

	if strings.TrimSpace(config.LLM.Model) == "" {
		return fmt.Errorf("LLM model is required")
	}

	if config.LLM.Provider == "openai" && !strings.HasPrefix(config.LLM.BaseURL, "http") {
		return fmt.Errorf("LLM base_url must start with http:// or https://")
	}

	if config.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM max tokens must be positive: %d", config.LLM.MaxTokens)
	}

	if !strings.HasPrefix(config.Image.BaseURL, "http") {
		return fmt.Errorf("image base_url must start with http:// or https://")
	}

	if strings.TrimSpace(config.Image.Model) == "" {
		return fmt.Errorf("image model is required")
	}

	if config.Image.Steps <= 0 || config.Image.Width <= 0 || config.Image.Height <= 0 || config.Image.GuidanceScale <= 0 {
		return fmt.Errorf("image steps, guidance scale, width and height must be positive")
	}

	return nil
}

// GetConfigSource возвращает информацию о том, откуда взяты настройки (без значений секретов)
func GetConfigSource(config *Config) map[string]string {
	sources := make(map[string]string)

	sources["config_file"] = config.ConfigFile
	if config.ConfigFile == "" {
		sources["config_file"] = "none (defaults and environment)"
	}
	sources["llm_api_key"] = secretSource(config.LLM.APIKey)
	sources["image_api_key"] = secretSource(config.Image.APIKey)
	sources["provider"] = config.LLM.Provider
	sources["image_model"] = config.Image.Model

	return sources
}

func secretSource(value string) string {
	if strings.TrimSpace(value) == "" {
		return "not set"
	}
	return "set"
}

// GetLLMEnvVars переменные окружения для ключа LLM в порядке приоритета
func GetLLMEnvVars() []string {
	return []string{
		envPrefix + "_LLM_API_KEY",
		"HF_API_KEY",
	}
}

// GetImageEnvVars переменные окружения для ключа сервиса картинок
func GetImageEnvVars() []string {
	return []string{
		envPrefix + "_IMAGE_API_KEY",
		"HF_IMAGE_API_KEY",
		"HF_API_KEY",
	}
}

// ToProviderConfig конфигурация для фабрики LLM провайдеров
func (c *Config) ToProviderConfig() providers.Config {
	return providers.Config{
		Provider:    c.LLM.Provider,
		BaseURL:     c.LLM.BaseURL,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
	}
}

// ToImageConfig конфигурация клиента генерации картинок
func (c *Config) ToImageConfig() imagegen.Config {
	return imagegen.Config{
		BaseURL:       c.Image.BaseURL,
		Model:         c.Image.Model,
		APIKey:        c.Image.APIKey,
		Timeout:       c.Image.Timeout,
		MaxImageBytes: c.Image.MaxBytes,
	}
}

// ToImageParams параметры сэмплирования для каждого запроса картинки
func (c *Config) ToImageParams() imagegen.Params {
	return imagegen.Params{
		Steps:         c.Image.Steps,
		GuidanceScale: c.Image.GuidanceScale,
		Width:         c.Image.Width,
		Height:        c.Image.Height,
	}
}
