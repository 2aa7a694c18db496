package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(5*1024*1024), cfg.UploadMaxBytes)
	assert.Equal(t, 90*time.Second, cfg.PresenceTTL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/medibook")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("PRESENCE_TTL", "2m")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.medibook.dev, https://staging.medibook.dev")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://localhost/medibook", cfg.DatabaseURL)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, 2*time.Minute, cfg.PresenceTTL)
	assert.Equal(t, int64(1024), cfg.UploadMaxBytes)
	assert.Equal(t, []string{"https://app.medibook.dev", "https://staging.medibook.dev"}, cfg.CORSAllowedOrigins)
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("UPLOAD_MAX_BYTES", "not-a-number")
	cfg := Load()
	assert.Equal(t, int64(5*1024*1024), cfg.UploadMaxBytes)
}
