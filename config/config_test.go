package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GO_ENV", "PORT", "DATABASE_URL", "STORAGE_DRIVER", "JWT_SECRET", "JWT_LIFETIME",
		"EVENT_TOKEN_SECRET", "EVENT_TOKEN_LIFETIME", "REQUEST_TIMEOUT", "REDIS_URL",
		"IDEMPOTENCY_TTL", "CORS_ALLOWED_ORIGINS", "EMAIL_PROVIDER", "EMAIL_FROM_ADDRESS",
		"EMAIL_FROM_NAME", "AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"SES_INSECURE_SKIP_VERIFY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTLifetime)
	assert.Equal(t, 15*time.Minute, cfg.EventTokenLifetime)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.EventTokenSecret)
	assert.NotEqual(t, cfg.JWTSecret, cfg.EventTokenSecret)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_overrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("EVENT_TOKEN_LIFETIME", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("EMAIL_PROVIDER", "SES")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("SES_INSECURE_SKIP_VERIFY", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 5*time.Minute, cfg.EventTokenLifetime)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "ses", cfg.Email.Provider)
	assert.Equal(t, "eu-west-1", cfg.Email.AWSRegion)
	assert.True(t, cfg.Email.SESInsecureSkipVerify)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"JWT_LIFETIME": "forever"}},
		{"negative duration", map[string]string{"REQUEST_TIMEOUT": "-1s"}},
		{"bad bool", map[string]string{"SES_INSECURE_SKIP_VERIFY": "maybe"}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"production without secrets", map[string]string{"GO_ENV": "production", "DATABASE_URL": "postgres://x"}},
		{"production with shared secret", map[string]string{
			"GO_ENV": "production", "DATABASE_URL": "postgres://x", "JWT_SECRET": "s", "EVENT_TOKEN_SECRET": "s",
		}},
		{"production without database", map[string]string{
			"GO_ENV": "production", "JWT_SECRET": "a", "EVENT_TOKEN_SECRET": "b",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_production(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "production")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("EVENT_TOKEN_SECRET", "b")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "a", cfg.JWTSecret)
	assert.Empty(t, cfg.CORSAllowedOrigins, "no development origins in production")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "warn")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	logger.Warn("careful", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "careful", line["msg"])
	assert.Equal(t, "v", line["k"])

	buf.Reset()
	logger = newLogger(&buf, "development", "")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
