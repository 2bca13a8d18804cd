package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort       = "5000"
	defaultBaseURL    = "https://openrouter.ai/api/v1"
	defaultTimeout    = 30
	defaultReferer    = "http://localhost:5000"
	defaultTitle      = "My Chatbot App"
	defaultRelayModel = "meta-llama/llama-4-maverick:free"
)

// DefaultBotModels is the fallback list tried by the bot when BOT_MODELS is unset.
var DefaultBotModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"cognitivecomputations/dolphin3.0-mistral-24b:free",
}

// Config aggregates the settings for both services.
type Config struct {
	Server     ServerConfig
	OpenRouter OpenRouterConfig
	Bot        BotConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	openRouter, err := loadOpenRouterConfig()
	if err != nil {
		return nil, err
	}

	bot, err := loadBotConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, OpenRouter: openRouter, Bot: bot}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = defaultPort
	}

	if strings.Contains(port, ":") {
		// Accept ":5000" or "127.0.0.1:5000" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// OpenRouterConfig describes the upstream completion API.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Referer     string
	Title       string
	Model       string
	Timeout     time.Duration
	Temperature *float32
	MaxTokens   *int
}

// Enabled reports whether an API credential is configured.
func (c OpenRouterConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadOpenRouterConfig() (OpenRouterConfig, error) {
	timeout, err := parseOptionalIntEnv("OPENROUTER_TIMEOUT")
	if err != nil {
		return OpenRouterConfig{}, err
	}
	timeoutSeconds := defaultTimeout
	if timeout != nil {
		if *timeout < 1 {
			return OpenRouterConfig{}, fmt.Errorf("invalid OPENROUTER_TIMEOUT value %d: must be positive", *timeout)
		}
		timeoutSeconds = *timeout
	}

	temperature, err := parseOptionalFloat32Env("OPENROUTER_TEMPERATURE")
	if err != nil {
		return OpenRouterConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("OPENROUTER_MAX_TOKENS")
	if err != nil {
		return OpenRouterConfig{}, err
	}

	return OpenRouterConfig{
		APIKey:      strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		BaseURL:     strings.TrimRight(getEnvOrDefault("OPENROUTER_BASE_URL", defaultBaseURL), "/"),
		Referer:     getEnvOrDefault("OPENROUTER_REFERER", defaultReferer),
		Title:       getEnvOrDefault("OPENROUTER_TITLE", defaultTitle),
		Model:       getEnvOrDefault("OPENROUTER_MODEL", defaultRelayModel),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// BotConfig describes the Telegram front-end.
type BotConfig struct {
	Token  string
	Models []string
	Debug  bool
}

// Enabled reports whether a bot token is configured.
func (c BotConfig) Enabled() bool {
	return c.Token != ""
}

func loadBotConfig() (BotConfig, error) {
	debug, err := parseBoolEnv("BOT_DEBUG", false)
	if err != nil {
		return BotConfig{}, err
	}

	models := parseListEnv("BOT_MODELS")
	if len(models) == 0 {
		models = append([]string(nil), DefaultBotModels...)
	}

	return BotConfig{
		Token:  strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		Models: models,
		Debug:  debug,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseListEnv splits a comma separated variable, dropping blanks.
func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
