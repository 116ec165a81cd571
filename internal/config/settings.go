package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// Transport constants
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ServeSettings configuration for the MCP snippet server
type ServeSettings struct {
	Transport      string       `mapstructure:"transport"`
	Host           string       `mapstructure:"host"`
	Port           int          `mapstructure:"port"`
	Auth           AuthSettings `mapstructure:"auth"`
	MaxResults     int          `mapstructure:"max_results"`
	ExtractOnStart bool         `mapstructure:"extract_on_start"`
}

// Settings application settings
type Settings struct {
	InputRoot    string        `mapstructure:"input_root"`
	OutputRoot   string        `mapstructure:"output_root"`
	Extensions   []string      `mapstructure:"extensions"`
	Exclude      []string      `mapstructure:"exclude"`
	Workers      int           `mapstructure:"workers"`
	StrictFences bool          `mapstructure:"strict_fences"`
	MaxFileSize  int64         `mapstructure:"max_file_size"`
	LockTimeout  time.Duration `mapstructure:"lock_timeout"`
	LogLevel     string        `mapstructure:"log_level"`
	Serve        ServeSettings `mapstructure:"serve"`
}

// envPrefix is the prefix for all environment variables
const envPrefix = "DOCSNIP"

// flagBindings maps setting keys to CLI flag names.
var flagBindings = map[string]string{
	"input_root":                "input",
	"output_root":               "output",
	"extensions":                "extensions",
	"exclude":                   "exclude",
	"workers":                   "workers",
	"strict_fences":             "strict",
	"max_file_size":             "max-file-size",
	"lock_timeout":              "lock-timeout",
	"log_level":                 "log-level",
	"serve.transport":           "transport",
	"serve.host":                "host",
	"serve.port":                "port",
	"serve.auth.type":           "auth-type",
	"serve.auth.basic.username": "auth-basic-username",
	"serve.auth.basic.password": "auth-basic-password",
	"serve.auth.api_keys":       "auth-api-keys",
	"serve.max_results":         "max-results",
	"serve.extract_on_start":    "extract-on-start",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("input_root", ".")
	v.SetDefault("output_root", ".")
	v.SetDefault("extensions", []string{".md", ".markdown"})
	v.SetDefault("exclude", []string{})
	v.SetDefault("workers", 1)
	v.SetDefault("strict_fences", false)
	v.SetDefault("max_file_size", int64(4*1024*1024)) // 4MB
	v.SetDefault("lock_timeout", 30*time.Second)
	v.SetDefault("log_level", "info")

	v.SetDefault("serve.transport", TransportStdio)
	v.SetDefault("serve.host", "0.0.0.0")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.auth.type", AuthTypeNone)
	v.SetDefault("serve.max_results", 20)
	v.SetDefault("serve.extract_on_start", false)

	// DOCSNIP_SERVE_AUTH_TYPE etc.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range flagBindings {
		_ = v.BindEnv(key, envName(key))
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Extensions = splitListEnv(envName("extensions"), settings.Extensions)
	settings.Exclude = splitListEnv(envName("exclude"), settings.Exclude)
	settings.Serve.Auth.APIKeys = splitListEnv(envName("serve.auth.api_keys"), settings.Serve.Auth.APIKeys)

	settings.InputRoot = expandHomeDir(settings.InputRoot)
	settings.OutputRoot = expandHomeDir(settings.OutputRoot)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))

	return &settings, nil
}

// envName returns the environment variable bound to a setting key.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// splitListEnv handles comma-separated list values coming from an env var,
// then trims and drops empty entries.
func splitListEnv(env string, values []string) []string {
	if raw := os.Getenv(env); raw != "" {
		if len(values) == 0 || (len(values) == 1 && strings.Contains(values[0], ",")) {
			values = strings.Split(raw, ",")
		}
	}

	var result []string
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ValidateSettings checks for invalid or conflicting configurations.
func ValidateSettings(s *Settings) error {
	if strings.TrimSpace(s.InputRoot) == "" {
		return errors.New("input root cannot be empty")
	}
	if strings.TrimSpace(s.OutputRoot) == "" {
		return errors.New("output root cannot be empty")
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got: %d", s.Workers)
	}
	if s.MaxFileSize < 0 {
		return errors.New("max-file-size cannot be negative")
	}
	if s.LockTimeout <= 0 {
		return errors.New("lock-timeout must be positive")
	}
	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return err
	}

	return validateServeSettings(&s.Serve)
}

// validateServeSettings validates transport and authentication for serve
func validateServeSettings(s *ServeSettings) error {
	switch s.Transport {
	case TransportStdio, TransportSSE:
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	if s.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	return nil
}
