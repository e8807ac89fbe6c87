package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meal-roster/internal/persistence"
	"github.com/example/meal-roster/internal/persistence/memory"
	"github.com/example/meal-roster/internal/roster"
	"github.com/example/meal-roster/internal/testfixtures"
)

var _ persistence.Store = (*memory.Storage)(nil)

func TestDayRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("returned records are copies", func(t *testing.T) {
		store := memory.New()
		record := testfixtures.DayRecord("2025-03-14", testfixtures.Entrants(testfixtures.NewEntrantFixture()), nil)
		require.NoError(t, store.SaveDayRecord(ctx, record))

		got, err := store.GetDayRecord(ctx, "2025-03-14")
		require.NoError(t, err)
		got.LunchEntries[0].Name = "changed"

		again, err := store.GetDayRecord(ctx, "2025-03-14")
		require.NoError(t, err)
		assert.NotEqual(t, "changed", again.LunchEntries[0].Name)
	})

	t.Run("missing and invalid dates", func(t *testing.T) {
		store := memory.New()

		_, err := store.GetDayRecord(ctx, "2025-03-14")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
		assert.ErrorIs(t, store.SaveDayRecord(ctx, roster.DayRecord{}), persistence.ErrConstraintViolation)
		_, err = store.UpdateDayRecord(ctx, "", func(*roster.DayRecord, bool) error { return nil })
		assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
	})

	t.Run("update failure leaves record untouched", func(t *testing.T) {
		store := memory.New()
		boom := errors.New("boom")

		_, err := store.UpdateDayRecord(ctx, "2025-03-14", func(record *roster.DayRecord, exists bool) error {
			assert.False(t, exists)
			record.SetEntries(roster.MealLunch, testfixtures.Entrants(testfixtures.NewEntrantFixture()))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		dates, err := store.ListDates(ctx)
		require.NoError(t, err)
		assert.Empty(t, dates)
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		store := memory.New()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				entrant := testfixtures.NewEntrantFixture().Entrant()
				_, err := store.UpdateDayRecord(ctx, "2025-03-14", func(record *roster.DayRecord, _ bool) error {
					record.SetEntries(roster.MealDinner, append(record.DinnerEntries, entrant))
					record.Recompute()
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := store.GetDayRecord(ctx, "2025-03-14")
		require.NoError(t, err)
		assert.Len(t, got.DinnerEntries, 20)
		assert.Equal(t, 20, got.Statistics.Dinner.Total)
	})

	t.Run("listing is ordered by date", func(t *testing.T) {
		store := testfixtures.NewMemoryStorage(t,
			roster.NewDayRecord("2025-04-01"),
			roster.NewDayRecord("2025-03-31"),
			roster.NewDayRecord("2024-12-31"),
		)

		dates, err := store.ListDates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-12-31", "2025-03-31", "2025-04-01"}, dates)

		records, err := store.ListDayRecords(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "2024-12-31", records[0].Date)
	})
}

func TestSingletons(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := store.GetAccessCode(ctx)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.GetConfiguration(ctx)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	code := testfixtures.NewAccessCodeFixture("555123").Persistence()
	require.NoError(t, store.SaveAccessCode(ctx, code))
	assert.ErrorIs(t, store.SaveAccessCode(ctx, persistence.AccessCode{}), persistence.ErrConstraintViolation)

	gotCode, err := store.GetAccessCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "555123", gotCode.Code)
	assert.Equal(t, time.UTC, gotCode.GeneratedAt.Location())

	cfg := testfixtures.Configuration()
	require.NoError(t, store.SaveConfiguration(ctx, cfg))
	gotCfg, err := store.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.LunchMenu, gotCfg.LunchMenu)
	assert.True(t, gotCfg.PlateCost.Equal(cfg.PlateCost))
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reference := testfixtures.ReferenceTime()

	live := testfixtures.NewSessionFixture(testfixtures.WithSessionExpiresAt(reference.Add(time.Hour))).Persistence()
	expired := testfixtures.NewSessionFixture(testfixtures.WithSessionExpiresAt(reference)).Persistence()
	for _, s := range []persistence.Session{live, expired} {
		_, err := store.CreateSession(ctx, s)
		require.NoError(t, err)
	}

	_, err := store.CreateSession(ctx, live)
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
	_, err = store.CreateSession(ctx, persistence.Session{ID: "x"})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)

	revoked, err := store.RevokeSession(ctx, live.Token, reference)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
	assert.True(t, revoked.RevokedAt.Equal(reference))

	_, err = store.RevokeSession(ctx, "missing", reference)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, store.DeleteExpiredSessions(ctx, reference))
	_, err = store.GetSession(ctx, expired.Token)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	got, err := store.GetSession(ctx, live.Token)
	require.NoError(t, err)
	assert.NotNil(t, got.RevokedAt)
}
