package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("NOTIFY_QUEUE_SIZE", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 1000, cfg.NotifyQueueSize)
	assert.Equal(t, 300*time.Second, cfg.CommentCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("NOTIFY_QUEUE_SIZE", "not-a-number")
	t.Setenv("COMMENT_CACHE_TTL_SECONDS", "10")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 1000, cfg.NotifyQueueSize)
	assert.Equal(t, 10*time.Second, cfg.CommentCacheTTL)
}

func TestSMTPEnabledNeedsEveryField(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASS", "")
	t.Setenv("SMTP_FROM", "games@example.com")

	assert.False(t, Load().SMTP.Enabled())

	t.Setenv("SMTP_PASS", "hunter2")
	assert.True(t, Load().SMTP.Enabled())
}
