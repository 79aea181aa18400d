package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahoffer/cogito/pkg/config"
	"github.com/ahoffer/cogito/pkg/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cogito.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-secret")

	path := writeConfig(t, `
models_dir: ./library
llm:
  base_url: https://api.example.com
  api_key: ${TEST_API_KEY}
  temperature: 0.3
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "./library", cfg.ModelsDir)
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	// Defaults fill whatever the file leaves out.
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/cogito.yaml")

	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "llm: [not a mapping")

	_, err := config.Load(path)

	require.Error(t, err)
}

func TestClientConfig(t *testing.T) {
	path := writeConfig(t, `
llm:
  base_url: https://api.example.com/v1
  api_key: k
  model: gpt-4o
  temperature: 1.5
  timeout: 45s
  retry_delay: 500ms
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	cc, err := cfg.ClientConfig()

	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, cc.Provider)
	assert.Equal(t, 45*time.Second, cc.Timeout)
	assert.Equal(t, 500*time.Millisecond, cc.RetryDelay)
	assert.InDelta(t, 1.5, cc.Temperature, 1e-9)
}

func TestClientConfigRejectsBadBounds(t *testing.T) {
	path := writeConfig(t, `
llm:
  base_url: https://api.example.com
  temperature: 3.5
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = cfg.ClientConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature")
}

func TestClientConfigRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
llm:
  base_url: https://api.example.com
  timeout: thirty seconds
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = cfg.ClientConfig()

	require.Error(t, err)
}

func TestDefaultLevels(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "info", cfg.LogLevel)

	cfg.LogLevel = "debug"
	assert.Equal(t, "DEBUG", cfg.Level().String())

	cfg.LogLevel = "unknown"
	assert.Equal(t, "INFO", cfg.Level().String())
}
