package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libconfig "evmap/backend/libs/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(libconfig.FileEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.HTTPAddress())
	assert.Equal(t, CacheFile, cfg.Cache.Backend)
	assert.Equal(t, []string{"10:00", "22:00"}, cfg.Schedule.Times)
	assert.Equal(t, "Asia/Yerevan", cfg.Schedule.Timezone)
	assert.Equal(t, 30*time.Second, cfg.Vendors.Timeout)
	assert.Equal(t, 1000, cfg.Vendors.PageLimit)
	assert.False(t, cfg.HistoryEnabled())
	assert.False(t, cfg.AdminEnabled())
	assert.False(t, cfg.Vendors.TeamEnergy.Configured())
	assert.Empty(t, cfg.Map.Token)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(libconfig.FileEnv, "")
	t.Setenv("PORT", "8080")
	t.Setenv("TEAM_ENERGY_PHONE", "37400000000")
	t.Setenv("TEAM_ENERGY_PASSWORD", "pw")
	t.Setenv("EVAN_CHARGE_BASEURL", "http://ec.local")
	t.Setenv("VENDOR_TIMEOUT", "5s")
	t.Setenv("SCHEDULE_TIMES", "06:30, 18:30")
	t.Setenv("MAPBOX_TOKEN", "pk.abc")
	t.Setenv("STATIONS_POSTGRES_DSN", "postgres://localhost/evmap")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.True(t, cfg.Vendors.TeamEnergy.Configured())
	assert.Equal(t, "http://ec.local", cfg.Vendors.EvanCharge.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Vendors.Timeout)
	assert.Equal(t, []string{"06:30", "18:30"}, cfg.Schedule.Times)
	assert.Equal(t, "pk.abc", cfg.Map.Token)
	assert.True(t, cfg.HistoryEnabled())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  backend: redis
  redis:
    addr: redis:6379
    ttl: 48h
admin:
  passwordHash: "$2a$10$abcdefghijklmnopqrstuu"
`), 0o600))
	t.Setenv(libconfig.FileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 48*time.Hour, cfg.Cache.Redis.TTL)
	assert.Equal(t, "stations", cfg.Cache.Redis.Prefix)
	assert.True(t, cfg.AdminEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.Redis.Addr = "" }},
		{"file without dir", func(c *Config) { c.DataDir = " " }},
		{"negative timeout", func(c *Config) { c.Vendors.Timeout = -time.Second }},
		{"zero page limit", func(c *Config) { c.Vendors.PageLimit = 0 }},
		{"schedule without times", func(c *Config) { c.Schedule.Times = nil }},
		{"hash without user", func(c *Config) { c.Admin.PasswordHash = "$2a$"; c.Admin.User = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Defaults().Validate())
}
