package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "analysis.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, EngineNative, cfg.PDF.Engine)
	assert.Equal(t, 10*time.Minute, cfg.PDF.CacheTTL)
	assert.Equal(t, []string{"claude-sonnet-4-20250514"}, cfg.Generator.Models)
	assert.InDelta(t, 0.2, cfg.Generator.Temperature, 1e-9)
	assert.Equal(t, "analysis-views", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.GenerationEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANALYSIS_SERVER_ADDR", ":9090")
	t.Setenv("ANALYSIS_PDF_ENGINE", "Chromium")
	t.Setenv("ANALYSIS_GENERATOR_MODELS", "model-a, model-b")
	t.Setenv("ANALYSIS_LOG_LEVEL", "DEBUG")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, EngineChromium, cfg.PDF.Engine)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.Generator.Models)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sk-test", cfg.Anthropic.APIKey)
	assert.True(t, cfg.GenerationEnabled())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /tmp/x.db
generator:
  models: [first, second]
  max_tokens: 2000
pdf:
  cache_ttl: 1m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, []string{"first", "second"}, cfg.Generator.Models)
	assert.Equal(t, int64(2000), cfg.Generator.MaxTokens)
	assert.Equal(t, time.Minute, cfg.PDF.CacheTTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("ANALYSIS_PDF_ENGINE", "wkhtml")
	t.Setenv("ANALYSIS_LOG_LEVEL", "loud")
	t.Setenv("ANALYSIS_GENERATOR_TEMPERATURE", "3")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf.engine")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "temperature")
}
