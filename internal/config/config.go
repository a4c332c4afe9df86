// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/purelink/internal/llm"
)

// Backends
const (
	BackendJSONL    = "jsonl"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// Defaults
const (
	DefaultDataDir       = "data"
	DefaultProbeTimeout  = 5 * time.Second
	DefaultMethodTTLDays = 30
	DefaultMaxAttempts   = 3
	DefaultMatchMode     = "permissive"
)

// Environment variables consulted when the file and flags leave a value empty.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvDatabaseURL  = "DATABASE_URL"
)

var validate = validator.New()

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or come from CLI flags.
type Config struct {
	// Oracle
	APIKey string `json:"api_key,omitempty"` // Gemini API key
	Model  string `json:"model,omitempty"`   // Model override for resolution and discovery

	// Storage
	DataDir          string `json:"data_dir,omitempty"`
	Backend          string `json:"backend,omitempty" validate:"omitempty,oneof=jsonl postgres"`
	CandidateBackend string `json:"candidate_backend,omitempty" validate:"omitempty,oneof=jsonl bolt postgres"`
	DatabaseURL      string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Behavior
	MatchMode     string `json:"match_mode,omitempty" validate:"omitempty,oneof=permissive strict"`
	VerifyDocs    *bool  `json:"verify_docs,omitempty"`
	ProbeTimeout  string `json:"probe_timeout,omitempty"` // Go duration, e.g. "5s"
	MethodTTLDays int    `json:"method_ttl_days,omitempty" validate:"gte=0"`
	MaxAttempts   int    `json:"max_attempts,omitempty" validate:"gte=0,lte=3"`
	Verbose       bool   `json:"verbose,omitempty"`
}

// ConfigError reports an unusable configuration.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Field != "" {
		msg += fmt.Sprintf(": '%s'", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	verify := true
	return Config{
		Model:            llm.DefaultModel,
		DataDir:          DefaultDataDir,
		Backend:          BackendJSONL,
		CandidateBackend: BackendJSONL,
		MatchMode:        DefaultMatchMode,
		VerifyDocs:       &verify,
		ProbeTimeout:     DefaultProbeTimeout.String(),
		MethodTTLDays:    DefaultMethodTTLDays,
		MaxAttempts:      DefaultMaxAttempts,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required credentials are checked separately by RequireAPIKey.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigError{
				Field:   jsonName(fe.StructField()),
				Message: fmt.Sprintf("failed '%s' check (got %v)", fe.Tag(), fe.Value()),
			}
		}
		return &ConfigError{Message: "invalid configuration", Cause: err}
	}

	if c.ProbeTimeout != "" {
		d, err := time.ParseDuration(c.ProbeTimeout)
		if err != nil {
			return &ConfigError{Field: "probe_timeout", Message: "not a duration", Cause: err}
		}
		if d <= 0 {
			return &ConfigError{Field: "probe_timeout", Message: "must be positive"}
		}
	}

	usesPostgres := c.Backend == BackendPostgres || c.CandidateBackend == BackendPostgres
	if usesPostgres && c.DatabaseURL == "" {
		return &ConfigError{Field: "database_url", Message: "required by the postgres backend"}
	}

	return nil
}

// RequireAPIKey fails when no oracle credentials are configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ConfigError{
			Field:   "api_key",
			Message: fmt.Sprintf("missing; set %s or %s, or pass --api-key", EnvGoogleAPIKey, EnvGeminiAPIKey),
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer flags over the config file over built-in defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.Backend == "" {
		result.Backend = defaults.Backend
	}
	if result.CandidateBackend == "" {
		result.CandidateBackend = defaults.CandidateBackend
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.MatchMode == "" {
		result.MatchMode = defaults.MatchMode
	}
	if result.ProbeTimeout == "" {
		result.ProbeTimeout = defaults.ProbeTimeout
	}

	// Int fields: use default if zero
	if result.MethodTTLDays == 0 {
		result.MethodTTLDays = defaults.MethodTTLDays
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}

	// Optional bools
	if result.VerifyDocs == nil {
		result.VerifyDocs = defaults.VerifyDocs
	}

	// Verbose cannot distinguish unset from false; either layer enables it
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// ApplyEnv fills credentials left empty from the environment.
// GOOGLE_API_KEY takes precedence over GEMINI_API_KEY.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.APIKey == "" {
		c.APIKey = getenv(EnvGoogleAPIKey)
	}
	if c.APIKey == "" {
		c.APIKey = getenv(EnvGeminiAPIKey)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv(EnvDatabaseURL)
	}
}

// ShouldVerifyDocs reports whether documentation URLs are probed.
func (c *Config) ShouldVerifyDocs() bool {
	return c.VerifyDocs == nil || *c.VerifyDocs
}

// ProbeTimeoutDuration returns the parsed probe timeout, or the default.
func (c *Config) ProbeTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ProbeTimeout)
	if err != nil || d <= 0 {
		return DefaultProbeTimeout
	}
	return d
}

// MethodTTL returns the discovery cache lifetime.
func (c *Config) MethodTTL() time.Duration {
	days := c.MethodTTLDays
	if days <= 0 {
		days = DefaultMethodTTLDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func jsonName(field string) string {
	switch field {
	case "CandidateBackend":
		return "candidate_backend"
	case "MatchMode":
		return "match_mode"
	case "MethodTTLDays":
		return "method_ttl_days"
	case "MaxAttempts":
		return "max_attempts"
	default:
		return strings.ToLower(field)
	}
}
