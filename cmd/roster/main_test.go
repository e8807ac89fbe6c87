package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/config"
	"github.com/example/meal-roster/internal/persistence"
	"github.com/example/meal-roster/internal/persistence/memory"
	"github.com/example/meal-roster/internal/roster"
)

func testConfig(storage string, dsn string) config.Config {
	return config.Config{
		HTTPPort:        8080,
		Storage:         storage,
		SQLiteDSN:       dsn,
		Location:        time.UTC,
		RolloverHour:    22,
		RotationHour:    7,
		PollInterval:    time.Minute,
		SessionTTL:      time.Hour,
		LogLevel:        slog.LevelInfo,
		SummaryCacheTTL: time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown command", func(t *testing.T) {
		err := run(ctx, []string{"migrate"}, io.Discard)
		assert.ErrorContains(t, err, `unknown command "migrate"`)
	})

	t.Run("hash-password prints a verifiable hash", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, []string{"hash-password", "clave-segura"}, &out))

		hash := strings.TrimSpace(out.String())
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
		assert.NoError(t, application.VerifyPassword(hash, "clave-segura"))
	})

	t.Run("hash-password needs exactly one argument", func(t *testing.T) {
		assert.Error(t, run(ctx, []string{"hash-password"}, io.Discard))
		assert.Error(t, run(ctx, []string{"hash-password", "a", "b"}, io.Discard))
	})
}

type client struct {
	t      *testing.T
	server *httptest.Server
}

func (c client) do(method, path, token string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestBuildAppEndToEnd(t *testing.T) {
	hash, err := application.HashPassword("clave-segura")
	require.NoError(t, err)

	for _, storage := range []string{config.StorageMemory, config.StorageSQLite} {
		t.Run(storage, func(t *testing.T) {
			cfg := testConfig(storage, filepath.Join(t.TempDir(), "roster.db"))
			cfg.SupervisorPasswordHash = hash

			a, err := buildApp(context.Background(), cfg, discardLogger())
			require.NoError(t, err)
			t.Cleanup(a.Close)

			srv := httptest.NewServer(a.handler)
			t.Cleanup(srv.Close)
			c := client{t: t, server: srv}

			resp := c.do(http.MethodGet, "/healthz", "", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			resp = c.do(http.MethodGet, "/api/today", "", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			resp = c.do(http.MethodGet, "/api/days/today", "", nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp = c.do(http.MethodPost, "/api/sessions/supervisor", "", map[string]string{"password": "clave-segura"})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			supervisor := decode[map[string]any](t, resp)
			supervisorToken, _ := supervisor["token"].(string)
			require.NotEmpty(t, supervisorToken)

			resp = c.do(http.MethodGet, "/api/access-code", supervisorToken, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			code := decode[map[string]any](t, resp)
			accessCode, _ := code["code"].(string)
			require.Len(t, accessCode, 6)

			resp = c.do(http.MethodPost, "/api/sessions", "", map[string]string{"code": "not-it"})
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp = c.do(http.MethodPost, "/api/sessions", "", map[string]string{"code": accessCode})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			operator := decode[map[string]any](t, resp)
			operatorToken, _ := operator["token"].(string)
			require.NotEmpty(t, operatorToken)

			resp = c.do(http.MethodGet, "/api/access-code", operatorToken, nil)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)

			resp = c.do(http.MethodPost, "/api/days/2025-03-14/entries", operatorToken, map[string]string{
				"selector": "both",
				"name":     "Juan Pérez",
				"category": "residente",
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			resp = c.do(http.MethodGet, "/api/days/2025-03-14", operatorToken, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			day := decode[map[string]any](t, resp)
			stats, _ := day["statistics"].(map[string]any)
			assert.EqualValues(t, 2, stats["rations"])

			resp = c.do(http.MethodGet, "/api/archive/months", operatorToken, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			months := decode[map[string][]map[string]string](t, resp)
			require.Len(t, months["months"], 1)
			assert.Equal(t, "2025-03", months["months"][0]["month"])

			resp = c.do(http.MethodGet, "/api/archive/months/2025-03/days", operatorToken, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, []any{"2025-03-14"}, decode[map[string]any](t, resp)["days"])

			resp = c.do(http.MethodHead, "/api/archive/days/2025-03-14", operatorToken, nil)
			assert.Equal(t, http.StatusNoContent, resp.StatusCode)
			resp = c.do(http.MethodHead, "/api/archive/days/2025-03-15", operatorToken, nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)

			resp = c.do(http.MethodGet, "/metrics", "", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), `roster_entrants_added_total{meal="lunch",source="operator"} 1`)
			assert.Contains(t, string(body), "roster_login_attempts_total")

			resp = c.do(http.MethodDelete, "/api/sessions/current", operatorToken, nil)
			assert.Equal(t, http.StatusNoContent, resp.StatusCode)

			resp = c.do(http.MethodGet, "/api/days/2025-03-14", operatorToken, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestBuildAppRejectsUnreachableRedis(t *testing.T) {
	cfg := testConfig(config.StorageMemory, "")
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := buildApp(ctx, cfg, discardLogger())
	assert.ErrorContains(t, err, "connect redis")
}

func TestDayRecordAdapterTranslatesNotFound(t *testing.T) {
	ctx := context.Background()
	adapter := newDayRecordRepositoryAdapter(memory.New())

	_, err := adapter.GetDayRecord(ctx, "2025-03-14")
	assert.ErrorIs(t, err, application.ErrNotFound)
	assert.NotErrorIs(t, err, persistence.ErrNotFound)

	_, err = adapter.UpdateDayRecord(ctx, "2025-03-14", func(*roster.DayRecord, bool) error {
		return application.ErrNotFound
	})
	assert.ErrorIs(t, err, application.ErrNotFound)

	boom := errors.New("boom")
	_, err = adapter.UpdateDayRecord(ctx, "2025-03-14", func(*roster.DayRecord, bool) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = adapter.UpdateDayRecord(ctx, "2025-03-14", func(*roster.DayRecord, bool) error { return nil })
	require.NoError(t, err)
	_, err = adapter.UpdateDayRecord(ctx, "2025-02-28", func(*roster.DayRecord, bool) error { return nil })
	require.NoError(t, err)
	dates, err := adapter.ListDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-28", "2025-03-14"}, dates)
}

func TestSessionAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := newSessionRepositoryAdapter(memory.New())
	now := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

	created, err := adapter.CreateSession(ctx, application.Session{
		ID:        "s-1",
		Role:      application.RoleSupervisor,
		Token:     "tok",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, application.RoleSupervisor, created.Role)

	_, err = adapter.GetSession(ctx, "other")
	assert.ErrorIs(t, err, application.ErrNotFound)

	revoked, err := adapter.RevokeSession(ctx, "tok", now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
}
