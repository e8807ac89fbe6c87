package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryCacheStoresAndReturnsCopies(t *testing.T) {
	current := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	cache := NewSummaryCache(time.Minute, 4, func() time.Time { return current })

	original := MonthSummary{Month: "2025-12", Days: []DaySummary{{Date: "2025-12-01", Lunch: 2, Total: 2}}}
	cache.Store(original, 0)

	// Mutating the original must not leak into the cache.
	original.Days[0].Lunch = 99

	cached, _, ok := cache.Get("2025-12")
	require.True(t, ok)
	assert.Equal(t, 2, cached.Days[0].Lunch)

	cached.Days[0].Lunch = 42
	again, _, ok := cache.Get("2025-12")
	require.True(t, ok)
	assert.Equal(t, 2, again.Days[0].Lunch)
}

func TestSummaryCacheExpiresEntries(t *testing.T) {
	current := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	cache := NewSummaryCache(time.Second, 4, func() time.Time { return current })

	cache.Store(MonthSummary{Month: "2025-12"}, 0)
	_, _, ok := cache.Get("2025-12")
	require.True(t, ok)

	current = current.Add(2 * time.Second)
	_, _, ok = cache.Get("2025-12")
	assert.False(t, ok)
}

func TestSummaryCacheInvalidateMonth(t *testing.T) {
	cache := NewSummaryCache(time.Minute, 4, time.Now)
	cache.Store(MonthSummary{Month: "2025-11"}, 0)
	cache.Store(MonthSummary{Month: "2025-12"}, 0)

	cache.InvalidateMonth("2025-12")

	_, generation, ok := cache.Get("2025-12")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), generation)
	_, generation, ok = cache.Get("2025-11")
	assert.True(t, ok)
	assert.Zero(t, generation)
}

func TestSummaryCacheDropsStoreFromStaleGeneration(t *testing.T) {
	cache := NewSummaryCache(time.Minute, 4, time.Now)

	_, generation, ok := cache.Get("2025-12")
	require.False(t, ok)

	// A write lands between the miss and the store.
	cache.InvalidateMonth("2025-12")
	cache.Store(MonthSummary{Month: "2025-12", TotalLunch: 0}, generation)

	_, current, ok := cache.Get("2025-12")
	assert.False(t, ok, "summary computed before the write must not be cached")

	cache.Store(MonthSummary{Month: "2025-12", TotalLunch: 1}, current)
	cached, _, ok := cache.Get("2025-12")
	require.True(t, ok)
	assert.Equal(t, 1, cached.TotalLunch)
}

func TestSummaryCacheEvictsWhenFull(t *testing.T) {
	current := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	cache := NewSummaryCache(time.Minute, 2, func() time.Time { return current })

	cache.Store(MonthSummary{Month: "2025-10"}, 0)
	current = current.Add(time.Second)
	cache.Store(MonthSummary{Month: "2025-11"}, 0)
	current = current.Add(time.Second)
	cache.Store(MonthSummary{Month: "2025-12"}, 0)

	_, _, ok := cache.Get("2025-10")
	assert.False(t, ok, "oldest entry should be evicted")
	_, _, ok = cache.Get("2025-12")
	assert.True(t, ok)
}

func TestSummaryCacheNilIsSafe(t *testing.T) {
	var cache *SummaryCache
	cache.Store(MonthSummary{Month: "2025-12"}, 0)
	cache.InvalidateMonth("2025-12")
	_, _, ok := cache.Get("2025-12")
	assert.False(t, ok)
}
