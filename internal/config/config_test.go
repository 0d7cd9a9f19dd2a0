package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	p := writeConfig(t, "cache:\n  redis:\n    addr: localhost:6379\n")

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "fs", c.Settings.Driver)
	assert.Equal(t, "redis", c.Rate.Backend)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, "storeconnect", c.JWT.Issuer)
	assert.Equal(t, "info", c.Log.Level)
	assert.False(t, c.IsProd())
}

func TestLoadValidation(t *testing.T) {
	t.Run("unknown settings driver", func(t *testing.T) {
		p := writeConfig(t, "settings:\n  driver: etcd\n")
		_, err := Load(p)
		require.Error(t, err)
	})

	t.Run("postgres settings need dsn", func(t *testing.T) {
		p := writeConfig(t, "settings:\n  driver: postgres\nrate:\n  backend: postgres\n")
		_, err := Load(p)
		require.Error(t, err)
	})

	t.Run("redis rate needs addr", func(t *testing.T) {
		p := writeConfig(t, "rate:\n  backend: redis\n")
		_, err := Load(p)
		require.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CACHE_REDIS_ADDR", "redis:6379")

	p := writeConfig(t, "server:\n  addr: :8080\n")
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":9999", c.Server.Addr)
	assert.True(t, c.IsProd())
	assert.Equal(t, "redis:6379", c.Cache.Redis.Addr)
}
