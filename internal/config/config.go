package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	GinMode       string
	DBDriver      string // postgres or sqlite
	DatabaseURL   string
	DBLogLevel    string
	SessionSecret string
	CORSOrigins   []string
	// Redis is optional; when empty notifications are only persisted.
	RedisURL string

	NotifyQueueSize  int
	CommentCacheSize int
	CommentCacheTTL  time.Duration

	SMTP SMTPConfig
}

// SMTPConfig enables email delivery of notifications when every field is set.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != "" && c.Username != "" && c.Password != "" && c.From != ""
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading config from environment")
	}

	return Config{
		Port:             getenv("PORT", "8080"),
		GinMode:          getenv("GIN_MODE", "debug"),
		DBDriver:         strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL:      getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=courtside port=5432 sslmode=disable"),
		DBLogLevel:       getenv("DB_LOG_LEVEL", "warn"),
		SessionSecret:    getenv("SESSION_SECRET", "secret_key_change_me"),
		CORSOrigins:      splitList(getenv("CORS_ORIGINS", "*")),
		RedisURL:         getenv("REDIS_URL", ""),
		NotifyQueueSize:  getenvInt("NOTIFY_QUEUE_SIZE", 1000),
		CommentCacheSize: getenvInt("COMMENT_CACHE_SIZE", 500),
		CommentCacheTTL:  time.Duration(getenvInt("COMMENT_CACHE_TTL_SECONDS", 300)) * time.Second,
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getenv("SMTP_PORT", ""),
			Username: getenv("SMTP_USER", ""),
			Password: getenv("SMTP_PASS", ""),
			From:     getenv("SMTP_FROM", ""),
		},
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
