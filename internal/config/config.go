package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the application reads from the environment.
// A .env file is honored when present (local development); real deployments
// set the variables directly.
type Config struct {
	Port     string
	LogLevel string
	BaseURL  string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	RedisAddr string

	AdminAPIKey       string
	UnsubscribeSecret string

	Timezone string

	SMTP SMTPConfig
	News NewsConfig
	LLM  LLMConfig

	// Optional path to an external UPSC digest HTML template. Empty means
	// the built-in template.
	TemplatePath string
}

// SMTPConfig describes the outbound mail account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewsConfig carries the per-provider API credentials. An empty key disables
// that adapter.
type NewsConfig struct {
	NewsAPIKey   string
	NewsAPIAIKey string
	WorldNewsKey string
	NYTKey       string
}

// LLMConfig points at a chat-completions endpoint used for custom-interest
// curation.
type LLMConfig struct {
	URL    string
	Model  string
	APIKey string
}

// Load reads the environment (with .env autoload) and applies defaults.
func Load() Config {
	_ = godotenv.Load()

	smtpPort, err := strconv.Atoi(envOrDefault("SMTP_PORT", "587"))
	if err != nil {
		log.Printf("config: invalid SMTP_PORT, using 587: %v", err)
		smtpPort = 587
	}

	return Config{
		Port:     envOrDefault("PORT", "8080"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),
		BaseURL:  envOrDefault("BASE_URL", "http://localhost:8080"),

		DBHost: envOrDefault("DB_HOST", "localhost"),
		DBPort: envOrDefault("DB_PORT", "5432"),
		DBName: envOrDefault("DB_NAME", "newsdigest"),
		DBUser: envOrDefault("DB_USER", "newsdigest"),
		DBPass: envOrDefault("DB_PASS", ""),

		RedisAddr: envOrDefault("REDIS_ADDR", "localhost:6379"),

		AdminAPIKey:       os.Getenv("ADMIN_API_KEY"),
		UnsubscribeSecret: envOrDefault("UNSUBSCRIBE_SECRET", "change-me"),

		Timezone: envOrDefault("TZ_NAME", "Asia/Kolkata"),

		SMTP: SMTPConfig{
			Host:     envOrDefault("SMTP_SERVER", "smtp.gmail.com"),
			Port:     smtpPort,
			Username: os.Getenv("SENDER_EMAIL"),
			Password: os.Getenv("SENDER_PASSWORD"),
			From:     envOrDefault("SENDER_FROM", os.Getenv("SENDER_EMAIL")),
		},
		News: NewsConfig{
			NewsAPIKey:   os.Getenv("NEWS_API_KEY"),
			NewsAPIAIKey: os.Getenv("NEWSAPI_AI_KEY"),
			WorldNewsKey: os.Getenv("WORLDNEWS_API_KEY"),
			NYTKey:       os.Getenv("NYT_API_KEY"),
		},
		LLM: LLMConfig{
			URL:    envOrDefault("LLM_URL", "https://api.x.ai/v1/chat/completions"),
			Model:  envOrDefault("LLM_MODEL", "grok-3-latest"),
			APIKey: os.Getenv("GROK_API_KEY"),
		},

		TemplatePath: os.Getenv("DIGEST_TEMPLATE_PATH"),
	}
}

// PostgresURL assembles the connection string for lib/pq.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("config: unknown timezone %s, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func envOrDefault(key, d string) string {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	return v
}
