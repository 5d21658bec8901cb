// ABOUTME: This file provides the slog-based JSON logger configuration
// ABOUTME: Supports optional OpenTelemetry log export via the otelslog bridge
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// Config represents logger configuration.
type Config struct {
	Level       string `env:"LOG_LEVEL" default:"info"`
	ServiceName string `env:"SERVICE_NAME" default:"article-enricher"`
	OTelEnabled bool   `env:"OTEL_ENABLED" default:"false"`
}

// LoadConfigFromEnv loads logger configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		ServiceName: getEnvOrDefault("SERVICE_NAME", "article-enricher"),
		OTelEnabled: getEnvOrDefault("OTEL_ENABLED", "false") == "true",
	}
}

// New builds the service logger: a JSON handler on stdout, fanned out to
// the OTel log bridge when enabled.
func New(cfg Config) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	var handler slog.Handler = jsonHandler
	if cfg.OTelEnabled {
		handler = NewMultiHandler(jsonHandler, otelslog.NewHandler(
			cfg.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		))
	}

	return slog.New(handler).With("service", cfg.ServiceName)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
