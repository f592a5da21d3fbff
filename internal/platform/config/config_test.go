package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "users.json", cfg.TemplateUsersPath)
	assert.Equal(t, 3*24*time.Hour, cfg.ExpiryThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, 5*time.Minute, cfg.ProposalTTL)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ABSHER_ADDR", ":9090")
	t.Setenv("TEMPLATE_USERS_PATH", "/etc/absher/users.json")
	t.Setenv("EXPIRY_THRESHOLD", "96h")
	t.Setenv("REMINDER_WINDOW", "48h")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REDIS_POOL_SIZE", "25")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/etc/absher/users.json", cfg.TemplateUsersPath)
	assert.Equal(t, 96*time.Hour, cfg.ExpiryThreshold)
	assert.Equal(t, 48*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 25, cfg.Redis.PoolSize)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestFromEnv_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("EXPIRY_THRESHOLD", "three days")
	t.Setenv("REDIS_POOL_SIZE", "lots")

	cfg := FromEnv()
	assert.Equal(t, 3*24*time.Hour, cfg.ExpiryThreshold)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
