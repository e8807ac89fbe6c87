package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meal-roster/internal/roster"
)

func archiveFixture() *dayRecordRepositoryStub {
	day := func(date string, lunch, dinner int) roster.DayRecord {
		record := roster.NewDayRecord(date)
		for i := 0; i < lunch; i++ {
			record.LunchEntries = append(record.LunchEntries, roster.Entrant{ID: "l", Name: "x", Category: roster.CategoryResident})
		}
		for i := 0; i < dinner; i++ {
			record.DinnerEntries = append(record.DinnerEntries, roster.Entrant{ID: "d", Name: "y", Category: roster.CategoryPayingGuest})
		}
		return record
	}
	return newDayRecordRepositoryStub(
		day("2025-11-30", 4, 1),
		day("2025-12-01", 10, 8),
		day("2025-12-03", 12, 9),
		day("2025-12-02", 0, 0),
		day("2026-01-02", 3, 3),
	)
}

func TestArchiveService_ListActiveMonths(t *testing.T) {
	t.Parallel()

	svc := NewArchiveService(archiveFixture(), nil)
	months, err := svc.ListActiveMonths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []MonthOption{
		{Month: "2026-01", Label: "Enero 2026"},
		{Month: "2025-12", Label: "Diciembre 2025"},
		{Month: "2025-11", Label: "Noviembre 2025"},
	}, months)

	empty, err := NewArchiveService(newDayRecordRepositoryStub(), nil).ListActiveMonths(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestArchiveService_ListingsEnumerateDateKeys(t *testing.T) {
	t.Parallel()

	repo := archiveFixture()
	svc := NewArchiveService(repo, nil)

	_, err := svc.ListActiveMonths(context.Background())
	require.NoError(t, err)
	_, err = svc.ListActiveDays(context.Background(), "2025-12")
	require.NoError(t, err)

	assert.Equal(t, 2, repo.datesCalls)
	assert.Zero(t, repo.listCalls, "listings must not load full records")

	repo.listErr = errors.New("locked")
	_, err = svc.ListActiveMonths(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestArchiveService_ListActiveDays(t *testing.T) {
	t.Parallel()

	svc := NewArchiveService(archiveFixture(), nil)

	days, err := svc.ListActiveDays(context.Background(), "2025-12")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-01", "2025-12-02", "2025-12-03"}, days)

	days, err = svc.ListActiveDays(context.Background(), "2024-02")
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = svc.ListActiveDays(context.Background(), "diciembre")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestArchiveService_SummarizeMonth(t *testing.T) {
	t.Parallel()

	t.Run("aggregates days newest first", func(t *testing.T) {
		t.Parallel()

		svc := NewArchiveService(archiveFixture(), nil)
		summary, err := svc.SummarizeMonth(context.Background(), "2025-12")
		require.NoError(t, err)

		assert.Equal(t, "Diciembre 2025", summary.Label)
		assert.Equal(t, []DaySummary{
			{Date: "2025-12-03", Lunch: 12, Dinner: 9, Total: 21},
			{Date: "2025-12-02", Lunch: 0, Dinner: 0, Total: 0},
			{Date: "2025-12-01", Lunch: 10, Dinner: 8, Total: 18},
		}, summary.Days)
		assert.Equal(t, 22, summary.TotalLunch)
		assert.Equal(t, 17, summary.TotalDinner)
		assert.Equal(t, 39, summary.TotalRations)
	})

	t.Run("memoizes until the roster invalidates the month", func(t *testing.T) {
		t.Parallel()

		repo := archiveFixture()
		cache := NewSummaryCache(time.Hour, 4, nil)
		svc := NewArchiveService(repo, cache)

		_, err := svc.SummarizeMonth(context.Background(), "2025-12")
		require.NoError(t, err)
		_, err = svc.SummarizeMonth(context.Background(), "2025-12")
		require.NoError(t, err)
		assert.Equal(t, 1, repo.listCalls)

		rules, _ := fixedRules(2025, time.December, 3, 9, 0)
		rosterSvc := NewRosterService(repo, rules, sequence("e-new"), WithSummaryCache(cache))
		_, err = rosterSvc.Append(context.Background(), AppendParams{
			Selector: "lunch",
			Entrant:  EntrantInput{Name: "Nuevo", Category: "residente"},
		})
		require.NoError(t, err)

		summary, err := svc.SummarizeMonth(context.Background(), "2025-12")
		require.NoError(t, err)
		assert.Equal(t, 2, repo.listCalls)
		assert.Equal(t, 23, summary.TotalLunch)
	})

	t.Run("a write racing the scan is not hidden by the cache", func(t *testing.T) {
		t.Parallel()

		repo := archiveFixture()
		cache := NewSummaryCache(time.Hour, 4, nil)
		svc := NewArchiveService(repo, cache)
		rules, _ := fixedRules(2025, time.December, 1, 9, 0)
		rosterSvc := NewRosterService(repo, rules, sequence("e-race"), WithSummaryCache(cache))

		repo.afterList = func() {
			_, err := rosterSvc.Append(context.Background(), AppendParams{
				Date:     "2025-12-01",
				Selector: roster.SelectLunch,
				Entrant:  EntrantInput{Name: "Tardío", Category: roster.CategoryResident},
			})
			require.NoError(t, err)
		}

		first, err := svc.SummarizeMonth(context.Background(), "2025-12")
		require.NoError(t, err)
		assert.Equal(t, 22, first.TotalLunch, "first call reflects the snapshot it scanned")

		second, err := svc.SummarizeMonth(context.Background(), "2025-12")
		require.NoError(t, err)
		assert.Equal(t, 23, second.TotalLunch)
		assert.Equal(t, 2, repo.listCalls)
	})

	t.Run("wraps storage failures", func(t *testing.T) {
		t.Parallel()

		repo := archiveFixture()
		repo.listErr = errors.New("locked")
		_, err := NewArchiveService(repo, nil).SummarizeMonth(context.Background(), "2025-12")
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})
}

func TestArchiveService_DayHasActivity(t *testing.T) {
	t.Parallel()

	svc := NewArchiveService(archiveFixture(), nil)

	active, err := svc.DayHasActivity(context.Background(), "2025-12-02")
	require.NoError(t, err)
	assert.True(t, active, "an empty stored record still counts as activity")

	active, err = svc.DayHasActivity(context.Background(), "2025-12-04")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = svc.DayHasActivity(context.Background(), "2025-13-01")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}
