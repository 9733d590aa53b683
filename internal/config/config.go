// Package config provides application configuration management using Viper.
// It supports loading from environment variables, config files, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Assistant AssistantConfig
	Chat      ChatConfig
	Store     StoreConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	RFQ       RFQConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// AssistantConfig holds settings for the upstream chat model used in
// assistant mode.
type AssistantConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	KnowledgePath string
}

// ChatConfig holds dialogue behavior settings.
type ChatConfig struct {
	DefaultLanguage string
	ThinkingDelay   time.Duration
	CompletionDelay time.Duration
	SessionTTL      time.Duration
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string
	Redis   RedisConfig
}

// RedisConfig holds Redis connection settings for the session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds PostgreSQL connection settings for lead archiving.
type DatabaseConfig struct {
	Enabled               bool
	Host                  string
	Port                  int
	User                  string
	Password              string
	Name                  string
	SSLMode               string
	MaxConnections        int
	ConnectionMaxLifetime time.Duration
}

// ConnectionString returns a PostgreSQL connection string.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RFQConfig holds the supplier contact points used for requirement handoff.
type RFQConfig struct {
	WhatsAppNumber string
	Email          string
}

// Load reads configuration from environment variables and config files.
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/buildmart")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Config file is optional; environment variables alone are enough.
	if err := v.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFoundErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			Environment: v.GetString("server.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Assistant: AssistantConfig{
			APIKey:        v.GetString("assistant.api_key"),
			Model:         v.GetString("assistant.model"),
			BaseURL:       v.GetString("assistant.base_url"),
			MaxTokens:     v.GetInt("assistant.max_tokens"),
			Temperature:   v.GetFloat64("assistant.temperature"),
			Timeout:       v.GetDuration("assistant.timeout"),
			KnowledgePath: v.GetString("assistant.knowledge_path"),
		},
		Chat: ChatConfig{
			DefaultLanguage: v.GetString("chat.default_language"),
			ThinkingDelay:   v.GetDuration("chat.thinking_delay"),
			CompletionDelay: v.GetDuration("chat.completion_delay"),
			SessionTTL:      v.GetDuration("chat.session_ttl"),
		},
		Store: StoreConfig{
			Backend: v.GetString("store.backend"),
			Redis: RedisConfig{
				Addr:     v.GetString("store.redis.addr"),
				Password: v.GetString("store.redis.password"),
				DB:       v.GetInt("store.redis.db"),
			},
		},
		Database: DatabaseConfig{
			Enabled:               v.GetBool("database.enabled"),
			Host:                  v.GetString("database.host"),
			Port:                  v.GetInt("database.port"),
			User:                  v.GetString("database.user"),
			Password:              v.GetString("database.password"),
			Name:                  v.GetString("database.name"),
			SSLMode:               v.GetString("database.sslmode"),
			MaxConnections:        v.GetInt("database.max_connections"),
			ConnectionMaxLifetime: v.GetDuration("database.connection_max_lifetime"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
		RFQ: RFQConfig{
			WhatsAppNumber: v.GetString("rfq.whatsapp_number"),
			Email:          v.GetString("rfq.email"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Assistant defaults
	v.SetDefault("assistant.model", "gpt-4o-mini")
	v.SetDefault("assistant.base_url", "https://api.openai.com/v1")
	v.SetDefault("assistant.max_tokens", 512)
	v.SetDefault("assistant.temperature", 0.7)
	v.SetDefault("assistant.timeout", "30s")

	// Chat defaults
	v.SetDefault("chat.default_language", "en")
	v.SetDefault("chat.thinking_delay", "600ms")
	v.SetDefault("chat.completion_delay", "1500ms")
	v.SetDefault("chat.session_ttl", "24h")

	// Store defaults
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "buildmart")
	v.SetDefault("database.name", "buildmart")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.connection_max_lifetime", "5m")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// RFQ defaults
	v.SetDefault("rfq.whatsapp_number", "919876543210")
	v.SetDefault("rfq.email", "sales@buildmart.example")
}

// Validate checks that all required configuration values are present.
func (c *Config) Validate() error {
	var missing []string

	if c.Assistant.APIKey == "" {
		missing = append(missing, "ASSISTANT_API_KEY")
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Addr == "" {
		missing = append(missing, "STORE_REDIS_ADDR")
	}
	if c.Database.Enabled && c.Database.Password == "" {
		missing = append(missing, "DATABASE_PASSWORD")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
