// Package config loads the service configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/meal-roster/internal/timerules"
)

// Storage backends accepted by ROSTER_STORAGE.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config captures environment driven configuration values for the roster service.
type Config struct {
	HTTPPort               int
	Storage                string
	SQLiteDSN              string
	Timezone               string
	Location               *time.Location
	RolloverHour           int
	RotationHour           int
	PollInterval           time.Duration
	SessionTTL             time.Duration
	SupervisorPasswordHash string
	RedisURL               string
	LogLevel               slog.Level
	SummaryCacheTTL        time.Duration
}

// Load parses configuration values from the current process environment.
//
// Variables from the file named by ROSTER_ENV_FILE (default .env) are applied
// first without overriding the real environment. Every invalid value is
// reported in a single error.
func Load() (Config, error) {
	if err := loadEnvFile(os.Getenv("ROSTER_ENV_FILE")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:        8080,
		Storage:         StorageSQLite,
		SQLiteDSN:       "file:roster.db",
		Timezone:        timerules.DefaultTimezone,
		RolloverHour:    timerules.DefaultRolloverHour,
		RotationHour:    timerules.DefaultRotationHour,
		PollInterval:    time.Minute,
		SessionTTL:      12 * time.Hour,
		LogLevel:        slog.LevelInfo,
		SummaryCacheTTL: 30 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := env("ROSTER_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ROSTER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.ToLower(env("ROSTER_STORAGE")); storage != "" {
		switch storage {
		case StorageSQLite, StorageMemory:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "ROSTER_STORAGE")
		}
	}

	if dsn := env("ROSTER_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tz := env("ROSTER_TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	loc, err := timerules.LoadLocation(cfg.Timezone)
	if err != nil {
		invalid = append(invalid, "ROSTER_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	parseHour("ROSTER_ROLLOVER_HOUR", &cfg.RolloverHour, &invalid)
	parseHour("ROSTER_CODE_ROTATION_HOUR", &cfg.RotationHour, &invalid)
	parseDuration("ROSTER_POLL_INTERVAL", time.Second, &cfg.PollInterval, &invalid)
	parseDuration("ROSTER_SESSION_TTL", time.Minute, &cfg.SessionTTL, &invalid)
	parseDuration("ROSTER_SUMMARY_CACHE_TTL", time.Second, &cfg.SummaryCacheTTL, &invalid)

	if hash := env("ROSTER_SUPERVISOR_PASSWORD_HASH"); hash != "" {
		if !strings.HasPrefix(hash, "$argon2id$") {
			invalid = append(invalid, "ROSTER_SUPERVISOR_PASSWORD_HASH")
		} else {
			cfg.SupervisorPasswordHash = hash
		}
	}

	cfg.RedisURL = env("ROSTER_REDIS_URL")

	if levelValue := env("ROSTER_LOG_LEVEL"); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "ROSTER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores de variables de entorno inválidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTPPort)
}

func loadEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("no se pudo leer el archivo de entorno %s: %w", path, err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseHour(key string, target *int, invalid *[]string) {
	value := env(key)
	if value == "" {
		return
	}
	hour, err := strconv.Atoi(value)
	if err != nil || hour < 0 || hour > 23 {
		*invalid = append(*invalid, key)
		return
	}
	*target = hour
}

func parseDuration(key string, minimum time.Duration, target *time.Duration, invalid *[]string) {
	value := env(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < minimum {
		*invalid = append(*invalid, key)
		return
	}
	*target = d
}
