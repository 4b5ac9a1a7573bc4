// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DevJWTSecret is the signing key used outside production when JWT_SECRET is unset.
const DevJWTSecret = "dev-insecure-secret-change-me-before-deploying"

// Config holds all configuration for the application.
type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	CORSOrigins []string

	JWTSecret  string
	TokenTTL   time.Duration
	EditWindow time.Duration
	DevBypass  bool
	DevUserID  int

	LogLevel    string
	LogFormat   string
	LogHashSalt string

	ServiceName  string
	OTelExporter string
	OTelEndpoint string

	TelegramBotToken  string
	TelegramChatID    int64
	DailyCloseEnabled bool
	DailyCloseHour    int
	Timezone          string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvDevelopment)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("token_ttl", "8h")
	v.SetDefault("edit_window_hours", 24)
	v.SetDefault("auth_dev_bypass", false)
	v.SetDefault("dev_user_id", 1)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("service_name", "caja-gym")
	v.SetDefault("otel_exporter", "none")
	v.SetDefault("daily_close_enabled", false)
	v.SetDefault("daily_close_hour", 21)
	v.SetDefault("timezone", "America/Argentina/Buenos_Aires")
}

// Load reads configuration from .env, environment variables and any flags
// bound on the global viper instance.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Env:         strings.ToLower(strings.TrimSpace(v.GetString("app_env"))),
		HTTPAddr:    v.GetString("http_addr"),
		DatabaseURL: v.GetString("database_url"),
		CORSOrigins: splitList(v.GetString("cors_origins")),

		JWTSecret: v.GetString("jwt_secret"),
		TokenTTL:  v.GetDuration("token_ttl"),
		DevBypass: v.GetBool("auth_dev_bypass"),
		DevUserID: v.GetInt("dev_user_id"),

		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		LogHashSalt: v.GetString("log_hash_salt"),

		ServiceName:  v.GetString("service_name"),
		OTelExporter: strings.ToLower(v.GetString("otel_exporter")),
		OTelEndpoint: v.GetString("otel_endpoint"),

		TelegramBotToken:  v.GetString("telegram_bot_token"),
		TelegramChatID:    v.GetInt64("telegram_chat_id"),
		DailyCloseEnabled: v.GetBool("daily_close_enabled"),
		DailyCloseHour:    v.GetInt("daily_close_hour"),
		Timezone:          v.GetString("timezone"),
	}

	if hours := v.GetInt("edit_window_hours"); hours > 0 {
		cfg.EditWindow = time.Duration(hours) * time.Hour
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DevJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for item := range strings.SplitSeq(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, "APP_ENV must be development or production")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required in production")
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, "TOKEN_TTL must be a positive duration")
	}

	if c.IsProduction() && c.DevBypass {
		errs = append(errs, "AUTH_DEV_BYPASS cannot be enabled in production")
	}

	if c.IsProduction() && c.LogHashSalt == "" {
		errs = append(errs, "LOG_HASH_SALT is required in production")
	}

	switch c.OTelExporter {
	case "none", "stdout", "otlp-grpc", "otlp-http":
	default:
		errs = append(errs, "OTEL_EXPORTER must be one of none, stdout, otlp-grpc, otlp-http")
	}

	if c.DailyCloseHour < 0 || c.DailyCloseHour > 23 {
		errs = append(errs, "DAILY_CLOSE_HOUR must be between 0 and 23")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("TIMEZONE %q is not a valid location", c.Timezone))
	}

	if c.DailyCloseEnabled {
		if c.TelegramBotToken == "" {
			errs = append(errs, "TELEGRAM_BOT_TOKEN is required when DAILY_CLOSE_ENABLED is true")
		}
		if c.TelegramChatID == 0 {
			errs = append(errs, "TELEGRAM_CHAT_ID is required when DAILY_CLOSE_ENABLED is true")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DevBypassActive reports whether missing bearer tokens are replaced by the
// development identity.
func (c *Config) DevBypassActive() bool {
	return c.DevBypass && !c.IsProduction()
}
