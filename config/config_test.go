package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	secretsDir = t.TempDir()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Pool.Workers)
	assert.Equal(t, 5, cfg.Pacer.CallsPerSecond)
	assert.Equal(t, 128, cfg.Cache.Capacity)
	assert.Equal(t, "127.0.0.1:8090", cfg.Admin.Address)
	assert.Equal(t, 15*time.Second, cfg.Admin.ShutdownTimeout)
	assert.Equal(t, "sputil", cfg.Metrics.Namespace)
	assert.Empty(t, cfg.Admin.AuthSecret)
}

func TestLoadPrecedence(t *testing.T) {
	secretsDir = t.TempDir()

	yaml := `
pool:
  workers: 4
pacer:
  calls_per_second: 10
admin:
  shutdown_timeout: 1d
  read_timeout: 5s
`
	t.Setenv("SPUTIL_PACER_CALLS_PER_SECOND", "20")
	t.Setenv("SPUTIL_ADMIN_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(WithReader(strings.NewReader(yaml)))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Pool.Workers, "file overrides default")
	assert.Equal(t, 20, cfg.Pacer.CallsPerSecond, "env overrides file")
	assert.Equal(t, 24*time.Hour, cfg.Admin.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Admin.ReadTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Admin.AllowedOrigins)
}

func TestLoadFlags(t *testing.T) {
	secretsDir = t.TempDir()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("pool.workers", 1, "")
	fs.Int("cache.capacity", 1, "")
	require.NoError(t, fs.Parse([]string{"--pool.workers=6"}))

	t.Setenv("SPUTIL_POOL_WORKERS", "3")

	cfg, err := Load(WithFlags(fs))
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Pool.Workers, "set flag overrides env")
	assert.Equal(t, 128, cfg.Cache.Capacity, "unset flag does not override the default")
}

func TestLoadFile(t *testing.T) {
	secretsDir = t.TempDir()

	path := filepath.Join(t.TempDir(), "sputil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 16\n"), 0o600))

	cfg, err := Load(WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Cache.Capacity)

	_, err = Load(WithFile(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	secretsDir = t.TempDir()

	t.Setenv("SPUTIL_PACER_CALLS_PER_SECOND", "0")
	t.Setenv("SPUTIL_CACHE_CAPACITY", "0")
	t.Setenv("SPUTIL_LOG_FORMAT", "xml")

	_, err := Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pacer.calls_per_second")
	assert.Contains(t, err.Error(), "cache.capacity")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadAuthSecret(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		secretsDir = t.TempDir()
		t.Setenv(authSecretEnv, "from-env")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Admin.AuthSecret)
	})

	t.Run("file", func(t *testing.T) {
		secretsDir = t.TempDir()

		path := filepath.Join(t.TempDir(), "secret")
		require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
		t.Setenv(authSecretEnv+"_FILE", path)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.Admin.AuthSecret)
	})

	t.Run("secrets dir", func(t *testing.T) {
		secretsDir = t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(secretsDir, authSecretEnv), []byte("mounted"), 0o600))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "mounted", cfg.Admin.AuthSecret)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = LogConfig{Level: "loud"}.NewLogger(&buf)
	require.Error(t, err)
}
