package testfixtures

import (
	"context"
	"testing"

	"github.com/example/meal-roster/internal/persistence/memory"
	"github.com/example/meal-roster/internal/roster"
)

// NewMemoryStorage returns an in-memory store seeded with records.
func NewMemoryStorage(tb testing.TB, records ...roster.DayRecord) *memory.Storage {
	tb.Helper()

	store := memory.New()
	for _, record := range records {
		if err := store.SaveDayRecord(context.Background(), record); err != nil {
			tb.Fatalf("failed to seed day record %s: %v", record.Date, err)
		}
	}
	return store
}
