package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"
  read_timeout_seconds: 3

tracking:
  base_url: "https://t.example.com/track/pixel"
  pixel_size: "hidden"
  position: "top"

storage:
  type: "redis"
  redis_addr: "redis.internal:6379"
  redis_db: 2

logging:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3, cfg.Server.ReadTimeoutSeconds)

	assert.Equal(t, "https://t.example.com/track/pixel", cfg.Tracking.BaseURL)
	assert.Equal(t, "hidden", cfg.Tracking.PixelSize)
	assert.Equal(t, "top", cfg.Tracking.Position)

	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis.internal:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.ShouldRedactPII())
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: {}\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 5, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, 10, cfg.Server.WriteTimeoutSeconds)
	assert.Equal(t, 120, cfg.Server.IdleTimeoutSeconds)
	assert.Equal(t, "http://localhost:8081/track/pixel", cfg.Tracking.BaseURL)
	assert.Equal(t, "1x1", cfg.Tracking.PixelSize)
	assert.Equal(t, "bottom", cfg.Tracking.Position)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [not a map"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 8081\n"), 0644))

	t.Setenv("PORT", "9999")
	t.Setenv("TRACKING_BASE_URL", "https://t.override.com/p")
	t.Setenv("TRACKING_STORE", "redis")
	t.Setenv("REDIS_ADDR", "override:6379")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "https://t.override.com/p", cfg.Tracking.BaseURL)
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "override:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestDatabaseURLSwitchesStore(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage:\n  type: memory\n"), 0644))

	t.Setenv("DATABASE_URL", "postgres://tracker:secret@db:5432/tracker")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://tracker:secret@db:5432/tracker", cfg.Storage.DatabaseURL)
}
