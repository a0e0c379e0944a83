package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew_RequiredFieldMissing(t *testing.T) {
	t.Setenv("DATABASE_FILE_PATH", "")
	t.Setenv("CONFIG_FILE", "/nonexistent/catalog.yaml")

	cfg, err := New()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required config")
	assert.Contains(t, err.Error(), "DATABASE_FILE_PATH")
	assert.Contains(t, err.Error(), "database_file_path")
}

func TestNew_WithEnvVar(t *testing.T) {
	t.Setenv("DATABASE_FILE_PATH", "/tmp/catalog.db")
	t.Setenv("CONFIG_FILE", "/nonexistent/catalog.yaml")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/catalog.db", cfg.DatabaseFilePath)
}

func TestNew_WithConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
database_file_path: /data/catalog.db
server_port: 8080
database_debug: true
database_busy_timeout: 250ms
rate_limit_per_minute: 100
`))

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/catalog.db", cfg.DatabaseFilePath)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.True(t, cfg.DatabaseDebug)
	assert.Equal(t, 250*time.Millisecond, cfg.DatabaseBusyTimeout)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
}

func TestNew_EnvVarOverridesConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
database_file_path: /data/from-file.db
server_port: 8080
`))
	t.Setenv("DATABASE_FILE_PATH", "/data/from-env.db")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/from-env.db", cfg.DatabaseFilePath)
	assert.Equal(t, 9090, cfg.ServerPort)
}

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DATABASE_FILE_PATH", "/tmp/catalog.db")
	t.Setenv("CONFIG_FILE", "/nonexistent/catalog.yaml")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.DatabaseConnectRetryCount)
	assert.Equal(t, 2*time.Second, cfg.DatabaseConnectRetryDelay)
	assert.Equal(t, 5*time.Second, cfg.DatabaseBusyTimeout)
	assert.Equal(t, 5, cfg.DatabaseMaxRetries)
	assert.False(t, cfg.DatabaseDebug)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 3689, cfg.ServerPort)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestNew_InvalidRateLimit(t *testing.T) {
	t.Setenv("DATABASE_FILE_PATH", "/tmp/catalog.db")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("CONFIG_FILE", "/nonexistent/catalog.yaml")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_PER_MINUTE")
}

func TestNewForTest(t *testing.T) {
	cfg := NewForTest()
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, "127.0.0.1", cfg.ServerHost)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "database_file_path", toSnakeCase("DatabaseFilePath"))
	assert.Equal(t, "server_port", toSnakeCase("ServerPort"))
	assert.Equal(t, "rate_limit_per_minute", toSnakeCase("RateLimitPerMinute"))
}
