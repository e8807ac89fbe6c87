package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"ROSTER_ENV_FILE",
	"ROSTER_HTTP_PORT",
	"ROSTER_STORAGE",
	"ROSTER_SQLITE_DSN",
	"ROSTER_TIMEZONE",
	"ROSTER_ROLLOVER_HOUR",
	"ROSTER_CODE_ROTATION_HOUR",
	"ROSTER_POLL_INTERVAL",
	"ROSTER_SESSION_TTL",
	"ROSTER_SUPERVISOR_PASSWORD_HASH",
	"ROSTER_REDIS_URL",
	"ROSTER_LOG_LEVEL",
	"ROSTER_SUMMARY_CACHE_TTL",
}

// clearEnv unsets every roster variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	// Keep a stray .env in the package directory from leaking in.
	t.Setenv("ROSTER_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, os.WriteFile(os.Getenv("ROSTER_ENV_FILE"), nil, 0o600))
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.HTTPPort)
		assert.Equal(t, ":8080", cfg.Addr())
		assert.Equal(t, StorageSQLite, cfg.Storage)
		assert.Equal(t, "file:roster.db", cfg.SQLiteDSN)
		assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Timezone)
		assert.NotNil(t, cfg.Location)
		assert.Equal(t, 22, cfg.RolloverHour)
		assert.Equal(t, 7, cfg.RotationHour)
		assert.Equal(t, time.Minute, cfg.PollInterval)
		assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
		assert.Equal(t, 30*time.Second, cfg.SummaryCacheTTL)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
		assert.Empty(t, cfg.SupervisorPasswordHash)
		assert.Empty(t, cfg.RedisURL)
	})

	t.Run("parses every field", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROSTER_HTTP_PORT", "9090")
		t.Setenv("ROSTER_STORAGE", "Memory")
		t.Setenv("ROSTER_SQLITE_DSN", "file:/tmp/roster.db")
		t.Setenv("ROSTER_TIMEZONE", "UTC")
		t.Setenv("ROSTER_ROLLOVER_HOUR", "23")
		t.Setenv("ROSTER_CODE_ROTATION_HOUR", "6")
		t.Setenv("ROSTER_POLL_INTERVAL", "30s")
		t.Setenv("ROSTER_SESSION_TTL", "8h")
		t.Setenv("ROSTER_SUPERVISOR_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
		t.Setenv("ROSTER_REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("ROSTER_LOG_LEVEL", "debug")
		t.Setenv("ROSTER_SUMMARY_CACHE_TTL", "1m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.HTTPPort)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, "file:/tmp/roster.db", cfg.SQLiteDSN)
		assert.Equal(t, time.UTC.String(), cfg.Location.String())
		assert.Equal(t, 23, cfg.RolloverHour)
		assert.Equal(t, 6, cfg.RotationHour)
		assert.Equal(t, 30*time.Second, cfg.PollInterval)
		assert.Equal(t, 8*time.Hour, cfg.SessionTTL)
		assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, time.Minute, cfg.SummaryCacheTTL)
	})

	t.Run("reports every invalid value together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROSTER_HTTP_PORT", "http")
		t.Setenv("ROSTER_STORAGE", "postgres")
		t.Setenv("ROSTER_ROLLOVER_HOUR", "24")
		t.Setenv("ROSTER_POLL_INTERVAL", "10ms")
		t.Setenv("ROSTER_SUPERVISOR_PASSWORD_HASH", "plain")

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t,
			"valores de variables de entorno inválidos: ROSTER_HTTP_PORT, ROSTER_STORAGE, ROSTER_ROLLOVER_HOUR, ROSTER_POLL_INTERVAL, ROSTER_SUPERVISOR_PASSWORD_HASH",
			err.Error())
	})

	t.Run("reads values from an env file without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "roster.env")
		require.NoError(t, os.WriteFile(path, []byte("ROSTER_HTTP_PORT=7070\nROSTER_STORAGE=memory\n"), 0o600))
		t.Setenv("ROSTER_ENV_FILE", path)
		t.Setenv("ROSTER_STORAGE", "sqlite")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.HTTPPort)
		assert.Equal(t, StorageSQLite, cfg.Storage)
	})

	t.Run("fails on an explicit missing env file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROSTER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

		_, err := Load()
		assert.Error(t, err)
	})
}
