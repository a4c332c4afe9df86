package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"api_key": "abc",
		"data_dir": "/var/lib/purelink",
		"candidate_backend": "bolt",
		"match_mode": "strict",
		"verify_docs": false,
		"probe_timeout": "2s",
		"max_attempts": 2,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "abc", cfg.APIKey)
	assert.Equal(t, "/var/lib/purelink", cfg.DataDir)
	assert.Equal(t, BackendBolt, cfg.CandidateBackend)
	assert.Equal(t, "strict", cfg.MatchMode)
	assert.False(t, cfg.ShouldVerifyDocs())
	assert.Equal(t, 2*time.Second, cfg.ProbeTimeoutDuration())
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.True(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{name: "defaults", cfg: Defaults()},
		{name: "unknown backend", cfg: Config{Backend: "sqlite"}, field: "backend"},
		{name: "unknown candidate backend", cfg: Config{CandidateBackend: "redis"}, field: "candidate_backend"},
		{name: "unknown match mode", cfg: Config{MatchMode: "fuzzy"}, field: "match_mode"},
		{name: "negative ttl", cfg: Config{MethodTTLDays: -1}, field: "method_ttl_days"},
		{name: "attempt cap", cfg: Config{MaxAttempts: 3}},
		{name: "too many attempts", cfg: Config{MaxAttempts: 4}, field: "max_attempts"},
		{name: "bad timeout", cfg: Config{ProbeTimeout: "soon"}, field: "probe_timeout"},
		{name: "zero timeout", cfg: Config{ProbeTimeout: "0s"}, field: "probe_timeout"},
		{name: "postgres without url", cfg: Config{Backend: BackendPostgres}, field: "database_url"},
		{name: "postgres with url", cfg: Config{CandidateBackend: BackendPostgres, DatabaseURL: "postgres://localhost/purelink"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	err := (&Config{APIKey: "  "}).RequireAPIKey()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), EnvGoogleAPIKey)

	assert.NoError(t, (&Config{APIKey: "k"}).RequireAPIKey())
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		DataDir:   "custom",
		MatchMode: "strict",
	}

	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, "custom", merged.DataDir)
	assert.Equal(t, "strict", merged.MatchMode)
	assert.Equal(t, BackendJSONL, merged.Backend)
	assert.Equal(t, BackendJSONL, merged.CandidateBackend)
	assert.Equal(t, DefaultMaxAttempts, merged.MaxAttempts)
	assert.Equal(t, 30*24*time.Hour, merged.MethodTTL())
	assert.True(t, merged.ShouldVerifyDocs())
	assert.Equal(t, DefaultProbeTimeout, merged.ProbeTimeoutDuration())
}

func TestMergeWithDefaults_ExplicitFalseKept(t *testing.T) {
	off := false
	merged := (&Config{VerifyDocs: &off}).MergeWithDefaults(Defaults())
	assert.False(t, merged.ShouldVerifyDocs())
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{APIKey: "k", Verbose: true}
	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "k", merged.APIKey)
	assert.True(t, merged.Verbose)
	assert.Empty(t, merged.DataDir)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvGeminiAPIKey: "gemini",
		EnvDatabaseURL:  "postgres://db/purelink",
	}
	getenv := func(k string) string { return env[k] }

	cfg := Config{}
	cfg.ApplyEnv(getenv)
	assert.Equal(t, "gemini", cfg.APIKey)
	assert.Equal(t, "postgres://db/purelink", cfg.DatabaseURL)

	env[EnvGoogleAPIKey] = "google"
	cfg = Config{}
	cfg.ApplyEnv(getenv)
	assert.Equal(t, "google", cfg.APIKey)

	cfg = Config{APIKey: "flag"}
	cfg.ApplyEnv(getenv)
	assert.Equal(t, "flag", cfg.APIKey)
}
