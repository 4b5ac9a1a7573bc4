package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) (*Config, error) {
	t.Helper()
	return LoadFrom(viper.New())
}

func TestLoad(t *testing.T) {
	t.Run("loads defaults with only DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")

		cfg, err := load(t)
		require.NoError(t, err)
		require.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		require.Equal(t, EnvDevelopment, cfg.Env)
		require.Equal(t, ":8080", cfg.HTTPAddr)
		require.Equal(t, 8*time.Hour, cfg.TokenTTL)
		require.Equal(t, 24*time.Hour, cfg.EditWindow)
		require.Equal(t, DevJWTSecret, cfg.JWTSecret)
		require.Equal(t, "none", cfg.OTelExporter)
		require.False(t, cfg.DevBypassActive())
	})

	t.Run("reads overrides from env", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("HTTP_ADDR", ":9090")
		t.Setenv("TOKEN_TTL", "2h")
		t.Setenv("EDIT_WINDOW_HOURS", "48")
		t.Setenv("JWT_SECRET", "custom-secret")
		t.Setenv("OTEL_EXPORTER", "STDOUT")

		cfg, err := load(t)
		require.NoError(t, err)
		require.Equal(t, ":9090", cfg.HTTPAddr)
		require.Equal(t, 2*time.Hour, cfg.TokenTTL)
		require.Equal(t, 48*time.Hour, cfg.EditWindow)
		require.Equal(t, "custom-secret", cfg.JWTSecret)
		require.Equal(t, "stdout", cfg.OTelExporter)
	})

	t.Run("parses CORS origins", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test,")

		cfg, err := load(t)
		require.NoError(t, err)
		require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	})

	t.Run("dev bypass is active outside production", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("AUTH_DEV_BYPASS", "true")
		t.Setenv("DEV_USER_ID", "7")

		cfg, err := load(t)
		require.NoError(t, err)
		require.True(t, cfg.DevBypassActive())
		require.Equal(t, 7, cfg.DevUserID)
	})
}

func TestLoad_Validation(t *testing.T) {
	t.Run("requires DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		_, err := load(t)
		require.Error(t, err)
		require.Contains(t, err.Error(), "DATABASE_URL is required")
	})

	t.Run("production requires JWT_SECRET and salt", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")

		_, err := load(t)
		require.Error(t, err)
		require.Contains(t, err.Error(), "JWT_SECRET is required in production")
		require.Contains(t, err.Error(), "LOG_HASH_SALT is required in production")
	})

	t.Run("production rejects dev bypass", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "a-production-secret-of-at-least-32-chars")
		t.Setenv("LOG_HASH_SALT", "a-production-salt-of-at-least-32-chars!!")
		t.Setenv("AUTH_DEV_BYPASS", "true")

		_, err := load(t)
		require.Error(t, err)
		require.Contains(t, err.Error(), "AUTH_DEV_BYPASS cannot be enabled in production")
	})

	t.Run("rejects unknown exporter", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("OTEL_EXPORTER", "zipkin")

		_, err := load(t)
		require.Error(t, err)
		require.Contains(t, err.Error(), "OTEL_EXPORTER")
	})

	t.Run("daily close needs telegram settings", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("DAILY_CLOSE_ENABLED", "true")

		_, err := load(t)
		require.Error(t, err)
		require.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN is required")
		require.Contains(t, err.Error(), "TELEGRAM_CHAT_ID is required")
	})

	t.Run("rejects invalid timezone and hour", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("TIMEZONE", "Mars/Olympus")
		t.Setenv("DAILY_CLOSE_HOUR", "25")

		_, err := load(t)
		require.Error(t, err)
		require.Contains(t, err.Error(), "TIMEZONE")
		require.Contains(t, err.Error(), "DAILY_CLOSE_HOUR")
	})
}
