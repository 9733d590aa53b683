package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASSISTANT_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "en", cfg.Chat.DefaultLanguage)
	assert.Equal(t, 30*time.Second, cfg.Assistant.Timeout)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFailsWithoutAssistantKey(t *testing.T) {
	t.Setenv("ASSISTANT_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSISTANT_API_KEY")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("ASSISTANT_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CHAT_COMPLETION_DELAY", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Chat.CompletionDelay)
}

func TestValidateRejectsUnknownStoreBackend(t *testing.T) {
	t.Setenv("ASSISTANT_API_KEY", "test-key")
	t.Setenv("STORE_BACKEND", "etcd")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store backend")
}
