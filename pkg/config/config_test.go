package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govdesk/govdesk/pkg/observability"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GOVDESK_POSTGRES_URL", "postgres://localhost/govdesk_test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "postgres://localhost/govdesk_test", cfg.Storage.PostgresURL)
	assert.Equal(t, 25, cfg.Storage.PostgresMaxConns)
	assert.False(t, cfg.Storage.CacheEnabled)

	assert.Equal(t, 730, cfg.Audit.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.Audit.RetentionSchedule)
	assert.False(t, cfg.Audit.ArchiveEnabled)

	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "govdesk", cfg.Observability.OTelServiceName)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GOVDESK_POSTGRES_URL", "postgres://localhost/govdesk_test")
	t.Setenv("GOVDESK_PORT", "3000")
	t.Setenv("GOVDESK_LOG_LEVEL", "debug")
	t.Setenv("GOVDESK_CACHE_ENABLED", "true")
	t.Setenv("GOVDESK_REDIS_URL", "localhost:6379")
	t.Setenv("GOVDESK_AUDIT_RETENTION_DAYS", "365")
	t.Setenv("GOVDESK_READ_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Storage.CacheEnabled)
	assert.Equal(t, "localhost:6379", cfg.Storage.RedisURL)
	assert.Equal(t, 365, cfg.Audit.RetentionDays)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "govdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8181"
  health_port: "9191"
database:
  url: postgres://filehost/govdesk
  max_conns: 50
cache:
  enabled: true
  l1_size: 2048
audit:
  retention_days: 90
observability:
  log_level: warn
`), 0o644))

	t.Setenv("GOVDESK_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, "9191", cfg.Server.HealthPort)
	assert.Equal(t, "postgres://filehost/govdesk", cfg.Storage.PostgresURL)
	assert.Equal(t, 50, cfg.Storage.PostgresMaxConns)
	assert.True(t, cfg.Storage.CacheEnabled)
	assert.Equal(t, 2048, cfg.Storage.L1CacheSize)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, observability.WarnLevel, cfg.Observability.LogLevel)
}

func TestLoadConfig_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "govdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8181"
database:
  url: postgres://filehost/govdesk
`), 0o644))

	t.Setenv("GOVDESK_CONFIG_FILE", path)
	t.Setenv("GOVDESK_PORT", "4000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "postgres://filehost/govdesk", cfg.Storage.PostgresURL)
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	t.Run("missing postgres URL", func(t *testing.T) {
		os.Unsetenv("GOVDESK_POSTGRES_URL")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("same port for API and health", func(t *testing.T) {
		t.Setenv("GOVDESK_POSTGRES_URL", "postgres://localhost/x")
		t.Setenv("GOVDESK_PORT", "8080")
		t.Setenv("GOVDESK_HEALTH_PORT", "8080")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("archive without bucket", func(t *testing.T) {
		t.Setenv("GOVDESK_POSTGRES_URL", "postgres://localhost/x")
		t.Setenv("GOVDESK_AUDIT_ARCHIVE_ENABLED", "true")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unreadable config file", func(t *testing.T) {
		t.Setenv("GOVDESK_CONFIG_FILE", "/nonexistent/govdesk.yaml")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("malformed config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o644))
		t.Setenv("GOVDESK_CONFIG_FILE", path)
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, observability.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel("info"))
	assert.Equal(t, observability.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, observability.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel("unknown"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel(""))
}
