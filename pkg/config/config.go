// Package config loads the server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Chat     ChatConfig
	History  HistoryConfig
	Auth     AuthConfig
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port            int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// ProviderConfig selects and configures the upstream model provider
type ProviderConfig struct {
	// Name is one of openai, anthropic, gemini.
	Name string

	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string
}

// ChatConfig configures chat behavior
type ChatConfig struct {
	// Model overrides the provider's default model when non-empty.
	Model string

	// SystemPrompt is prepended to every conversation.
	SystemPrompt string

	// IdleTimeout bounds provider silence before the turn is aborted.
	IdleTimeout time.Duration
}

// HistoryConfig selects the turn-archive backend
type HistoryConfig struct {
	// Backend is one of none, memory, redis, postgres.
	Backend string

	MaxEntries int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string
}

// AuthConfig configures the optional bearer-token middleware
type AuthConfig struct {
	// JWTSecret enables auth when non-empty.
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// DefaultSystemPrompt instructs the model how to drive page tools
const DefaultSystemPrompt = "You are a helpful assistant embedded in a web page. " +
	"When the user asks you to act on the page, call the available tools. " +
	"Keep answers short and conversational."

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnvInt("PORT", 3000),
			CORSOrigins:     getEnvStringSlice("CORS_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Provider: ProviderConfig{
			Name:         getEnv("CHAT_PROVIDER", "openai"),
			OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
			AnthropicKey: getEnv("ANTHROPIC_API_KEY", ""),
			GeminiKey:    getEnv("GEMINI_API_KEY", ""),
		},
		Chat: ChatConfig{
			Model:        getEnv("CHAT_MODEL", ""),
			SystemPrompt: getEnv("CHAT_SYSTEM_PROMPT", DefaultSystemPrompt),
			IdleTimeout:  getEnvDuration("CHAT_IDLE_TIMEOUT", 60*time.Second),
		},
		History: HistoryConfig{
			Backend:       getEnv("HISTORY_BACKEND", "none"),
			MaxEntries:    getEnvInt("HISTORY_MAX_ENTRIES", 1000),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			Issuer:    getEnv("AUTH_ISSUER", "sitepilot"),
		},
	}
}

// ProviderKey returns the API key of the selected provider
func (c *Config) ProviderKey() string {
	switch strings.ToLower(c.Provider.Name) {
	case "anthropic":
		return c.Provider.AnthropicKey
	case "gemini":
		return c.Provider.GeminiKey
	default:
		return c.Provider.OpenAIKey
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvStringSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
