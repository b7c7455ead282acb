package main

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/sitepilot/pkg/ai/llm"
	"github.com/Abraxas-365/sitepilot/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/sitepilot/pkg/ai/providers/aianthropic"
	"github.com/Abraxas-365/sitepilot/pkg/ai/providers/aigemini"
	"github.com/Abraxas-365/sitepilot/pkg/ai/providers/aiopenai"
	"github.com/Abraxas-365/sitepilot/pkg/authx"
	"github.com/Abraxas-365/sitepilot/pkg/chat"
	"github.com/Abraxas-365/sitepilot/pkg/config"
	"github.com/Abraxas-365/sitepilot/pkg/history"
	"github.com/Abraxas-365/sitepilot/pkg/logx"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Redis *redis.Client

	// Services
	Client llm.Client
	Store  history.Store
	Auth   *authx.Service
	Chat   *chat.Service
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config) *Container {
	c := &Container{Config: cfg}

	c.initProvider()
	c.initHistory()
	c.initModules()

	return c
}

// initProvider builds the model client selected by CHAT_PROVIDER
func (c *Container) initProvider() {
	name := strings.ToLower(c.Config.Provider.Name)
	key := c.Config.ProviderKey()
	if key == "" {
		logx.Fatalf("no API key configured for provider %q", name)
	}

	switch name {
	case "anthropic":
		c.Client = aianthropic.NewAnthropicProvider(key)
	case "gemini":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		provider, err := aigemini.NewGeminiProvider(ctx, key)
		if err != nil {
			logx.WithError(err).Fatal("failed to initialize Gemini provider")
		}
		c.Client = provider
	case "openai":
		c.Client = aiopenai.NewOpenAIProvider(key)
	default:
		logx.Fatalf("unknown provider %q (expected openai, anthropic, or gemini)", name)
	}

	logx.WithField("provider", name).Info("Model provider initialized")
}

// initHistory builds the turn-archive backend selected by HISTORY_BACKEND
func (c *Container) initHistory() {
	cfg := c.Config.History

	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		logx.Info("Turn archiving disabled")

	case "memory":
		c.Store = history.NewMemoryStore(cfg.MaxEntries)
		logx.Info("In-memory turn archive initialized")

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logx.WithError(err).Fatal("Failed to connect to Redis")
		}

		c.Redis = client
		c.Store = history.NewRedisStore(client, cfg.MaxEntries)
		logx.WithField("addr", cfg.RedisAddr).Info("Redis turn archive initialized")

	case "postgres":
		if cfg.PostgresDSN == "" {
			logx.Fatal("HISTORY_BACKEND=postgres requires POSTGRES_DSN")
		}

		db, err := sqlx.Connect("postgres", cfg.PostgresDSN)
		if err != nil {
			logx.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		store := history.NewPostgresStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			logx.WithError(err).Fatal("Failed to run history migrations")
		}

		c.DB = db
		c.Store = store
		logx.Info("PostgreSQL turn archive initialized")

	default:
		logx.Fatalf("unknown history backend %q (expected none, memory, redis, or postgres)", cfg.Backend)
	}
}

// initModules wires the HTTP-facing services
func (c *Container) initModules() {
	if c.Config.Auth.JWTSecret != "" {
		c.Auth = authx.NewService(
			c.Config.Auth.JWTSecret,
			c.Config.Auth.TokenTTL,
			c.Config.Auth.Issuer,
		)
		logx.Info("JWT authentication enabled")
	}

	opts := []chat.ServiceOption{
		chat.WithTools(defaultTools()),
		chat.WithSystemPrompt(c.Config.Chat.SystemPrompt),
		chat.WithIdleTimeout(c.Config.Chat.IdleTimeout),
	}
	if c.Config.Chat.Model != "" {
		opts = append(opts, chat.WithModel(c.Config.Chat.Model))
	}
	if c.Store != nil {
		opts = append(opts, chat.WithHistoryStore(c.Store))
	}

	c.Chat = chat.NewService(c.Client, opts...)
}

// defaultTools declares the page tools forwarded upstream when a request
// does not carry its own set. The handlers run in the browser, so only
// the schemas live here.
func defaultTools() *toolx.Registry {
	registry := toolx.NewRegistry()

	registry.RegisterDeclaration(toolx.Declaration{
		Name:        "navigate_to",
		Description: "Navigate the page to a URL or named route",
		Parameters: toolx.Parameters{
			Properties: map[string]toolx.Property{
				"url": {Type: "string", Description: "Destination path or URL"},
			},
			Required: []string{"url"},
		},
	})

	registry.RegisterDeclaration(toolx.Declaration{
		Name:        "filter_products",
		Description: "Filter the product listing shown on the page",
		Parameters: toolx.Parameters{
			Properties: map[string]toolx.Property{
				"category":  {Type: "string"},
				"max_price": {Type: "number", Description: "Upper price bound"},
				"sort":      {Type: "string", Enum: []string{"price_asc", "price_desc", "newest"}},
			},
		},
	})

	registry.RegisterDeclaration(toolx.Declaration{
		Name:        "open_modal",
		Description: "Open a named modal dialog on the page",
		Parameters: toolx.Parameters{
			Properties: map[string]toolx.Property{
				"name": {Type: "string", Description: "Modal identifier"},
			},
			Required: []string{"name"},
		},
	})

	return registry
}

// Cleanup closes all infrastructure connections
func (c *Container) Cleanup() {
	logx.Info("Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.WithError(err).Error("Error closing database connection")
		} else {
			logx.Info("Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.WithError(err).Error("Error closing Redis connection")
		} else {
			logx.Info("Redis connection closed")
		}
	}
}
