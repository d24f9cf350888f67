package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs Load from an empty directory so a stray config.yaml is not
// picked up.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{"SAFEROUTE_CONFIG", "DATABASE_URL", "ADMIN_USERNAME", "ADMIN_EMAIL", "ADMIN_PASSWORD"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg := Load()
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 14*24*time.Hour, cfg.JWT.SessionExpiry)
	assert.Equal(t, "saferoute_session", cfg.JWT.CookieName)
	assert.Equal(t, "local", cfg.Media.Backend)
	assert.Equal(t, "/media/", cfg.Media.URL)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.OAuth.GoogleClientID)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SAFEROUTE_SERVER_ENV", "production")
	t.Setenv("SAFEROUTE_DATABASE_DRIVER", "mysql")
	t.Setenv("SAFEROUTE_RATELIMIT_RPS", "2.5")
	t.Setenv("SAFEROUTE_JWT_SESSIONEXPIRY", "1h")
	t.Setenv("ADMIN_PASSWORD", "from-deploy")
	cfg := Load()
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, time.Hour, cfg.JWT.SessionExpiry)
	assert.Equal(t, "from-deploy", cfg.Admin.Password)
}

func TestLoadDatabaseURL(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db/saferoute")
	cfg := Load()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@db/saferoute", cfg.Database.DSN)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "saferoute.yaml")
	require.NoError(t, os.WriteFile(path, []byte("media:\n  backend: s3\n  s3bucket: evidence\nserver:\n  timezone: Africa/Nairobi\n"), 0o600))
	t.Setenv("SAFEROUTE_CONFIG", path)
	cfg := Load()
	assert.Equal(t, "s3", cfg.Media.Backend)
	assert.Equal(t, "evidence", cfg.Media.S3Bucket)
	assert.Equal(t, "Africa/Nairobi", cfg.Server.TimeZone)
	assert.Equal(t, time.UTC, ServerConfig{TimeZone: "Not/AZone"}.Location())
}
