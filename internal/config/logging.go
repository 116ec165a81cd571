package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel maps a log level name to a slog.Level
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log-level: %s", name)
	}
}

// NewLogger creates a text logger writing to w at the configured level
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, _ := ParseLogLevel(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings, serving bool) {
	LogWithLogger(s, serving, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger.
// Serve settings are only logged when serving is true.
func LogWithLogger(s *Settings, serving bool, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: input_root", "value", s.InputRoot)
	logger.InfoContext(ctx, "Config: output_root", "value", s.OutputRoot)
	logger.InfoContext(ctx, "Config: extensions", "value", s.Extensions)
	if len(s.Exclude) > 0 {
		logger.InfoContext(ctx, "Config: exclude", "value", s.Exclude)
	}
	logger.InfoContext(ctx, "Config: workers", "value", s.Workers)
	logger.InfoContext(ctx, "Config: strict_fences", "value", s.StrictFences)

	if !serving {
		return
	}

	logger.InfoContext(ctx, "Config: serve.transport", "value", s.Serve.Transport)
	if s.Serve.Transport == TransportSSE {
		logger.InfoContext(ctx, "Config: serve.host", "value", s.Serve.Host)
		logger.InfoContext(ctx, "Config: serve.port", "value", s.Serve.Port)
	}

	logger.InfoContext(ctx, "Config: serve.auth.type", "value", s.Serve.Auth.Type)
	switch s.Serve.Auth.Type {
	case AuthTypeBasic:
		logger.InfoContext(ctx, "Config: serve.auth.basic.username", "value", s.Serve.Auth.Basic.Username)
		logger.InfoContext(ctx, "Config: serve.auth.basic.password", "value", "****")
	case AuthTypeAPIKey:
		logger.InfoContext(ctx, "Config: serve.auth.api_keys", "count", len(s.Serve.Auth.APIKeys))
	}
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked data
func AuthSettingsLogValue(s AuthSettings) slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = "****"
	}
	password := ""
	if s.Basic.Password != "" {
		password = "****"
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.String("username", s.Basic.Username),
		slog.String("password", password),
		slog.Any("api_keys", keys),
	)
}
