package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "prompt_template.json", cfg.Gemini.TemplatePath)
	assert.Equal(t, "postgres", cfg.History.Backend)
	assert.Equal(t, 40, cfg.History.MaxTurns)
	assert.False(t, cfg.History.Unlimited)
	assert.Equal(t, "chat", cfg.History.Scope)
	assert.Zero(t, cfg.Admin.UserID)
	assert.Zero(t, cfg.Channels.Archive)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("HISTORY_BACKEND", "file")
	t.Setenv("HISTORY_DIR", "/tmp/chats")
	t.Setenv("MAX_HISTORY_TURNS", "12")
	t.Setenv("UNLIMITED_HISTORY", "true")
	t.Setenv("HISTORY_SCOPE", "user")
	t.Setenv("ADMIN_USER_ID", "424242")
	t.Setenv("LOG_CHANNEL_ARCHIVE", "-1001234567890")

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "file", cfg.History.Backend)
	assert.Equal(t, "/tmp/chats", cfg.History.Dir)
	assert.Equal(t, 12, cfg.History.MaxTurns)
	assert.True(t, cfg.History.Unlimited)
	assert.Equal(t, "user", cfg.History.Scope)
	assert.EqualValues(t, 424242, cfg.Admin.UserID)
	assert.EqualValues(t, -1001234567890, cfg.Channels.Archive)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_HISTORY_TURNS", "not-a-number")
	t.Setenv("ADMIN_USER_ID", "also-not")

	cfg := Load()

	assert.Equal(t, 40, cfg.History.MaxTurns)
	assert.Zero(t, cfg.Admin.UserID)
}
