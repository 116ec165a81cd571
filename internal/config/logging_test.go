package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLogLevel(name)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("Warn message should be logged")
	}
}

func TestLog(t *testing.T) {
	// Just verify it doesn't panic
	Log(validSettings(), true)
}

func TestLogWithLogger_Extract(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWithLogger(validSettings(), false, logger)

	output := buf.String()
	if !strings.Contains(output, "input_root") || !strings.Contains(output, "output_root") {
		t.Error("Expected roots in log output")
	}
	if strings.Contains(output, "serve.transport") {
		t.Error("Serve settings should not be logged for extraction")
	}
}

func TestLogWithLogger_ServeSSE(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := validSettings()
	s.Serve.Transport = TransportSSE
	s.Serve.Host = "localhost"
	s.Serve.Port = 8080

	LogWithLogger(s, true, logger)

	output := buf.String()
	for _, key := range []string{"serve.transport", "serve.host", "serve.port"} {
		if !strings.Contains(output, key) {
			t.Errorf("Expected %q in log output", key)
		}
	}
}

func TestLogWithLogger_MasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := validSettings()
	s.Serve.Auth = AuthSettings{Type: AuthTypeBasic, Basic: BasicAuthSettings{Username: "admin", Password: "secret123"}}
	LogWithLogger(s, true, logger)

	output := buf.String()
	if strings.Contains(output, "secret123") {
		t.Error("Password should not appear in log output")
	}
	if !strings.Contains(output, "****") {
		t.Error("Expected masked password in log output")
	}

	buf.Reset()
	s.Serve.Auth = AuthSettings{Type: AuthTypeAPIKey, APIKeys: []string{"k1", "k2"}}
	LogWithLogger(s, true, logger)
	if strings.Contains(buf.String(), "k1") {
		t.Error("API keys should not appear in log output")
	}
}

func TestAuthSettingsLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("auth", "auth", AuthSettingsLogValue(AuthSettings{
		Type:    AuthTypeAPIKey,
		APIKeys: []string{"topsecret"},
	}))

	if strings.Contains(buf.String(), "topsecret") {
		t.Errorf("API key leaked: %s", buf.String())
	}
}
