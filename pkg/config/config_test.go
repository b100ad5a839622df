package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeSettings(t, `{
		"api_key": "sk-or-file",
		"model": "openai/gpt-4o",
		"fallback_models": ["anthropic/claude-3.5-sonnet"],
		"max_tool_call_depth": 8,
		"timeout_seconds": 30
	}`)

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-file", s.APIKey)
	assert.Equal(t, "openai/gpt-4o", s.Model)
	assert.Equal(t, []string{"anthropic/claude-3.5-sonnet"}, s.FallbackModels)
	assert.Equal(t, 8, s.MaxToolCallDepth)
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Settings{}, s)
}

func TestLoadFileMalformed(t *testing.T) {
	path := writeSettings(t, `{"api_key": `)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse settings")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, " sk-or-env ")
	t.Setenv(EnvModel, "mistralai/mistral-large")
	t.Setenv(EnvFallbackModels, "a/b, c/d ,")
	t.Setenv(EnvMaxToolDepth, "4")
	t.Setenv(EnvRetryMax, "not-a-number")

	s := FromEnv()
	assert.Equal(t, "sk-or-env", s.APIKey)
	assert.Equal(t, "mistralai/mistral-large", s.Model)
	assert.Equal(t, []string{"a/b", "c/d"}, s.FallbackModels)
	assert.Equal(t, 4, s.MaxToolCallDepth)
	assert.Zero(t, s.RetryMax, "unparseable ints fall back to zero")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeSettings(t, `{"api_key": "sk-or-file", "model": "file/model", "retry_max": 3}`)
	t.Setenv(EnvAPIKey, "sk-or-env")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-env", s.APIKey, "env wins over file")
	assert.Equal(t, "file/model", s.Model, "file value survives when env is unset")
	assert.Equal(t, 3, s.RetryMax)
}

func TestMerge(t *testing.T) {
	base := Settings{APIKey: "a", Model: "m1", MaxToolCallDepth: 5}
	merged := base.Merge(Settings{Model: "m2", TimeoutSeconds: 60})

	assert.Equal(t, "a", merged.APIKey)
	assert.Equal(t, "m2", merged.Model)
	assert.Equal(t, 5, merged.MaxToolCallDepth)
	assert.Equal(t, 60, merged.TimeoutSeconds)
}

func TestTransportConfig(t *testing.T) {
	s := Settings{
		APIKey:         "sk-or-test",
		BaseURL:        "http://localhost:9999",
		Referer:        "https://example.com",
		TimeoutSeconds: 45,
		RetryMax:       1,
	}

	tc := s.TransportConfig()
	assert.Equal(t, "sk-or-test", tc.APIKey)
	assert.Equal(t, "http://localhost:9999", tc.BaseURL)
	assert.Equal(t, 45*time.Second, tc.Timeout)
	assert.Equal(t, 1, tc.RetryMax)
}
