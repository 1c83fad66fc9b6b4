package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ModelConfig(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("MODEL_API_KEY", "test-key")
	t.Setenv("MODEL_TIMEOUT", "12s")
	t.Setenv("MODEL_TEMPERATURE", "0.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "test-key", cfg.Model.APIKey)
	assert.Equal(t, 12*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 0.2, cfg.Model.Temperature)
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	t.Setenv("MODEL_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-key", cfg.Model.APIKey)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("MODEL_MAX_RETRIES", "")
	t.Setenv("MODEL_RETRY_BASE_DELAY", "")
	t.Setenv("CARE_DEVICE_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Care.DeviceTimeout)
	assert.Equal(t, 3000, cfg.Model.MaxOutputTokens)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "llama")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.Server.TrustedProxies)
}

func TestConfig_Redacted(t *testing.T) {
	t.Setenv("MODEL_API_KEY", "model-secret")
	t.Setenv("MAPS_API_KEY", "maps-secret")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)

	redacted := cfg.Redacted()
	assert.Equal(t, "REDACTED", redacted.Model.APIKey)
	assert.Equal(t, "REDACTED", redacted.Maps.APIKey)
	assert.Empty(t, redacted.Database.Password)
	assert.Equal(t, "model-secret", cfg.Model.APIKey)
}
