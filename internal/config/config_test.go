package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "mock", cfg.AI.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Defaults.Model)
	assert.Equal(t, 8192, cfg.AI.Defaults.MaxOutputTokens)
	assert.Equal(t, 0.7, cfg.Thresholds.Relevance)
	assert.Equal(t, 18890, cfg.Gateway.Port)
	assert.Equal(t, "loopback", cfg.Gateway.Bind)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.PersistDomains())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, 18890, cfg.Gateway.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
ai:
  provider: gemini
  apiKey: test-key
  defaults:
    model: gemini-2.5-pro
    temperature: 0.3
  drafts:
    model: gemini-2.0-flash
thresholds:
  relevance: 0.8
gateway:
  port: 9999
  bind: lan
  auth:
    token: secret123
domains:
  persist: false
logging:
  level: debug
  consoleStyle: json
prompts:
  relevance: "Score this content."
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Defaults.Model)
	require.NotNil(t, cfg.AI.Defaults.Temperature)
	assert.Equal(t, 0.3, *cfg.AI.Defaults.Temperature)
	assert.Equal(t, 0.8, cfg.Thresholds.Relevance)
	assert.Equal(t, 9999, cfg.Gateway.Port)
	assert.Equal(t, "lan", cfg.Gateway.Bind)
	assert.Equal(t, "secret123", cfg.Gateway.Auth.Token)
	assert.False(t, cfg.PersistDomains())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.Equal(t, "Score this content.", cfg.Prompts["relevance"])
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: [not: closed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("KNOWBASE_GATEWAY_PORT", "7001")
	t.Setenv("KNOWBASE_LOG_LEVEL", "DEBUG")
	t.Setenv("KNOWBASE_AI_PROVIDER", "gemini")
	t.Setenv("KNOWBASE_RELEVANCE_THRESHOLD", "0.55")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Gateway.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 0.55, cfg.Thresholds.Relevance)
}

func TestLoadGeminiKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.AI.APIKey)
}

func TestLoadExpandsSensitiveFields(t *testing.T) {
	t.Setenv("MY_TOKEN", "tok-value")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
gateway:
  auth:
    token: ${MY_TOKEN}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-value", cfg.Gateway.Auth.Token)
}

func TestExpandEnvVarsLeavesUnsetAlone(t *testing.T) {
	assert.Equal(t, "${DEFINITELY_UNSET_VAR_42}", expandEnvVars("${DEFINITELY_UNSET_VAR_42}"))
}

func TestModelForMergesOverrides(t *testing.T) {
	temp := 0.2
	ai := AIConfig{
		Defaults: ModelEntry{Model: "gemini-2.0-flash", MaxOutputTokens: 8192},
		Drafts:   ModelEntry{Model: "gemini-2.5-pro", Temperature: &temp},
	}

	drafts := ai.ModelFor("drafts")
	assert.Equal(t, "gemini-2.5-pro", drafts.Model)
	require.NotNil(t, drafts.Temperature)
	assert.Equal(t, 0.2, *drafts.Temperature)
	assert.Equal(t, 8192, drafts.MaxOutputTokens)

	router := ai.ModelFor("router")
	assert.Equal(t, "gemini-2.0-flash", router.Model)
	assert.Nil(t, router.Temperature)
}

func TestSaveAndLoadRawRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	raw := map[string]any{
		"gateway": map[string]any{"port": 7002},
	}
	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)
	val, ok := GetValueAtPath(loaded, []string{"gateway", "port"})
	assert.True(t, ok)
	assert.Equal(t, 7002, val)
}
