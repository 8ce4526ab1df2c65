package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-inventory/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 256, cfg.Audit.Buffer)
	assert.Equal(t, 4096, cfg.Employee.CacheSize)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_PATH", "/var/lib/inventory.db")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/inventory.db", cfg.Database.Path)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "70000")
		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.port")
	})

	t.Run("unknown log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")
		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.format")
	})
}
