package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default().Service.BaseURL, cfg.Service.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Service.ParseTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Watch.ParseInterval())
	assert.Equal(t, 24*time.Hour, cfg.Watch.ParseMaxAge())
	assert.Equal(t, 8.0, cfg.Alerts.Thresholds.Clickbait)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
service:
  base_url: http://localhost:8000
  timeout: 5s
  clamp: true
watch:
  interval: 1m
  feeds:
    - name: test
      url: http://localhost/rss
alerts:
  thresholds:
    clickbait: 6
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Service.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Service.ParseTimeout())
	assert.True(t, cfg.Service.AdaptOptions().Clamp)
	assert.False(t, cfg.Service.AdaptOptions().UniqueEntities)
	assert.Equal(t, time.Minute, cfg.Watch.ParseInterval())
	assert.Equal(t, []FeedItem{{Name: "test", URL: "http://localhost/rss"}}, cfg.Watch.Feeds)
	assert.Equal(t, 6.0, cfg.Alerts.Thresholds.Clickbait)
	assert.Equal(t, 8.0, cfg.Alerts.Thresholds.Spectrum)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeFile(t, "bad.yaml", "service: [\n"), "")
	assert.ErrorContains(t, err, "parse config")
}

func TestEnvOverrides(t *testing.T) {
	env := writeFile(t, ".env", "LENS_SERVICE_URL=http://dotenv:9000\nSLACK_WEBHOOK_URL=https://hooks.slack.test/x\nPORT=9999\n")
	t.Setenv("PORT", "7070")
	t.Setenv("LENS_WEBHOOK_URL", "https://hook.test")

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:9000", cfg.Service.BaseURL)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Alerts.Slack.Enabled)
	assert.True(t, cfg.Alerts.Webhook.Enabled)
	assert.Equal(t, "https://hook.test", cfg.Alerts.Webhook.URL)

	_, err = Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
