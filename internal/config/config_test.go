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
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "snapmark.db", cfg.DB)
	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.Equal(t, "static", cfg.StaticDir)
	assert.Equal(t, "snapmark-sessions", cfg.Session.Dir)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.SecureCookie)
	assert.Equal(t, "chromedp", cfg.Browser.Driver)
	assert.Empty(t, cfg.Browser.ChromePath)
	assert.Equal(t, 2, cfg.Capture.Workers)
	assert.Equal(t, 30*time.Second, cfg.Capture.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Capture.SettleDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SNAPMARK_PORT", "9090")
	t.Setenv("SNAPMARK_SESSION_TTL", "2h")
	t.Setenv("SNAPMARK_BROWSER_DRIVER", "rod")
	t.Setenv("SNAPMARK_BROWSER_STEALTH", "true")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "rod", cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Stealth)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapmark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: /var/lib/snapmark/snapmark.db
static_dir: /srv/static
capture:
  workers: 4
log:
  level: debug
  format: json
`), 0o644))

	t.Run("file values", func(t *testing.T) {
		cfg, err := Load(New(), path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/snapmark/snapmark.db", cfg.DB)
		assert.Equal(t, "/srv/static", cfg.StaticDir)
		assert.Equal(t, 4, cfg.Capture.Workers)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("SNAPMARK_CAPTURE_WORKERS", "1")
		cfg, err := Load(New(), path)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Capture.Workers)
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load(New(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db", func(c *Config) { c.DB = "" }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"empty static dir", func(c *Config) { c.StaticDir = "" }},
		{"no workers", func(c *Config) { c.Capture.Workers = 0 }},
		{"non-positive ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"no navigation timeout", func(c *Config) { c.Capture.NavigationTimeout = 0 }},
		{"negative settle delay", func(c *Config) { c.Capture.SettleDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "SNAPMARK_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o644))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
