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
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8787", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Relevance.Interval)
	assert.Equal(t, 7, cfg.Relevance.WindowDays)
	assert.Equal(t, 8, cfg.Relevance.Workers)
	assert.Equal(t, 500, cfg.Feed.MaxCandidates)
	assert.Equal(t, 25.0, cfg.Feed.LocalRadiusKm)
	assert.Equal(t, time.Minute, cfg.Feed.ViewerCacheTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RELEVANCE_INTERVAL", "90s")
	t.Setenv("RELEVANCE_WINDOW_DAYS", "3")
	t.Setenv("FEED_MAX_CANDIDATES", "120")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Relevance.Interval)
	assert.Equal(t, 3, cfg.Relevance.WindowDays)
	assert.Equal(t, 120, cfg.Feed.MaxCandidates)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "petfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feed:
  local_radius_km: 10
relevance:
  workers: 2
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RELEVANCE_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Feed.LocalRadiusKm)
	assert.Equal(t, 4, cfg.Relevance.Workers, "environment wins over the file")
}

func TestDatabaseURLTakesPrecedence(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://u@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u@h/db", c.DSN())
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.Relevance.Interval = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Telemetry.SamplingRate = 2
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Server.Environment = "production"
	bad.Auth.JWTSecret = ""
	assert.Error(t, bad.Validate())
}
