package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entrant(id, name string, cat Category) Entrant {
	return Entrant{ID: id, Name: name, Category: cat, Rank: RankCabo, RegisteredAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
}

func TestTally(t *testing.T) {
	t.Parallel()

	t.Run("empty list yields zeros", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, MealStats{}, Tally(nil))
	})

	t.Run("counts each bucket and the total", func(t *testing.T) {
		t.Parallel()
		stats := Tally([]Entrant{
			entrant("1", "a", CategoryResident),
			entrant("2", "b", CategoryResident),
			entrant("3", "c", CategoryExternalStaff),
			entrant("4", "d", CategoryPayingGuest),
			entrant("5", "e", "Residente "),
		})
		assert.Equal(t, MealStats{ResidentCount: 3, ExternalStaffCount: 1, PayingGuestCount: 1, Total: 5}, stats)
	})

	t.Run("unknown categories count only toward total", func(t *testing.T) {
		t.Parallel()
		entries := []Entrant{
			entrant("1", "a", CategoryResident),
			entrant("2", "b", "visitor"),
			entrant("3", "c", ""),
		}
		stats := Tally(entries)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 1, stats.ResidentCount)
		assert.Less(t, stats.ResidentCount+stats.ExternalStaffCount+stats.PayingGuestCount, stats.Total)

		unknown := Uncategorized(entries)
		require.Len(t, unknown, 2)
		assert.Equal(t, "2", unknown[0].ID)
		assert.Equal(t, "3", unknown[1].ID)
	})
}

func TestDayRecord_Recompute(t *testing.T) {
	t.Parallel()

	record := NewDayRecord("2025-03-10")
	record.SetEntries(MealLunch, []Entrant{entrant("1", "a", CategoryResident)})
	record.SetEntries(MealDinner, []Entrant{entrant("1", "a", CategoryResident), entrant("2", "b", CategoryPayingGuest)})
	record.Recompute()

	assert.Equal(t, MealStats{ResidentCount: 1, Total: 1}, record.Statistics.Lunch)
	assert.Equal(t, MealStats{ResidentCount: 1, PayingGuestCount: 1, Total: 2}, record.Statistics.Dinner)
	assert.Equal(t, 3, record.Statistics.Rations())

	record.SetEntries(MealDinner, nil)
	record.Recompute()
	assert.Equal(t, MealStats{}, record.Statistics.Dinner)
	assert.NotNil(t, record.DinnerEntries)
	assert.Len(t, record.LunchEntries, 1)
}

func TestDayRecord_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	record := NewDayRecord("2025-03-10")
	record.LunchEntries = append(record.LunchEntries, entrant("1", "a", CategoryResident))

	clone := record.Clone()
	clone.LunchEntries[0].Name = "changed"
	assert.Equal(t, "a", record.LunchEntries[0].Name)
}

func TestMarkDuplicates(t *testing.T) {
	t.Parallel()

	marked := MarkDuplicates([]Entrant{
		entrant("1", "Juan Perez", CategoryResident),
		entrant("2", "  juan perez ", CategoryResident),
		entrant("3", "Ana", CategoryResident),
		entrant("4", "JUAN PEREZ", CategoryPayingGuest),
		entrant("5", "", CategoryResident),
		entrant("6", "   ", CategoryResident),
	})

	got := make([]bool, len(marked))
	for i, m := range marked {
		got[i] = m.IsDuplicate
	}
	assert.Equal(t, []bool{false, true, false, true, false, false}, got)
	assert.Equal(t, "2", marked[1].ID)
}

func TestFindDuplicateNames(t *testing.T) {
	t.Parallel()

	entries := []Entrant{
		entrant("1", "Juan", CategoryResident),
		entrant("2", "ana", CategoryResident),
		entrant("3", " JUAN", CategoryResident),
		entrant("4", "Ana ", CategoryResident),
		entrant("5", "Luis", CategoryResident),
		entrant("6", "", CategoryResident),
		entrant("7", "", CategoryResident),
	}

	assert.Equal(t, []string{"ana", "juan"}, FindDuplicateNames(entries))
	assert.True(t, HasDuplicates(entries))
	assert.False(t, HasDuplicates(entries[4:]))
	assert.Empty(t, FindDuplicateNames(nil))

	assert.True(t, ContainsName(entries, "  luis"))
	assert.False(t, ContainsName(entries, ""))
}

func TestEntrantPatch(t *testing.T) {
	t.Parallel()

	name := " Pedro Gomez "
	cat := Category("PAGO")
	original := entrant("x", "Pedro", CategoryResident)
	entries := []Entrant{entrant("a", "Ana", CategoryResident), original}

	patch := EntrantPatch{Name: &name, Category: &cat}
	require.False(t, patch.IsEmpty())
	require.True(t, patch.ApplyTo(entries, "x"))

	assert.Equal(t, "Pedro Gomez", entries[1].Name)
	assert.Equal(t, CategoryPayingGuest, entries[1].Category)
	assert.Equal(t, original.ID, entries[1].ID)
	assert.True(t, original.RegisteredAt.Equal(entries[1].RegisteredAt))
	assert.Equal(t, RankCabo, entries[1].Rank)
	assert.Equal(t, "Ana", entries[0].Name)

	assert.False(t, patch.ApplyTo(entries, "missing"))
	assert.True(t, EntrantPatch{}.IsEmpty())
}

func TestRemoveByID(t *testing.T) {
	t.Parallel()

	entries := []Entrant{entrant("a", "Ana", CategoryResident), entrant("b", "Luis", CategoryResident)}

	out, removed := RemoveByID(entries, "a")
	assert.True(t, removed)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)

	out, removed = RemoveByID(entries, "zzz")
	assert.False(t, removed)
	assert.Len(t, out, 2)
}

func TestSelectorsAndLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Meal{MealLunch, MealDinner}, SelectBoth.Meals())
	assert.Equal(t, []Meal{MealDinner}, SelectDinner.Meals())
	assert.Nil(t, MealSelector("brunch").Meals())

	assert.Equal(t, SelectBoth, SelectorFor(true, true))
	assert.Equal(t, SelectLunch, SelectorFor(true, false))
	assert.Equal(t, MealSelector(""), SelectorFor(false, false))

	meal, ok := ParseMeal("Cena")
	assert.True(t, ok)
	assert.Equal(t, MealDinner, meal)
	_, ok = ParseMeal("desayuno")
	assert.False(t, ok)

	assert.Equal(t, "Suboficial Auxiliar", RankSuboficialAuxiliar.Label())
	assert.Equal(t, "xx", Rank("xx").Label())
	assert.False(t, Rank("xx").Valid())
	assert.Len(t, Ranks, 7)

	assert.True(t, Category(" COAE").Valid())
	assert.Equal(t, CategoryExternalStaff, Category("externalStaff").Normalize())
	assert.Equal(t, CategoryPayingGuest, Category("payingGuest").Normalize())
	assert.Equal(t, CategoryResident, Category(" Resident").Normalize())
	assert.False(t, Category("visitor").Valid())
	assert.Equal(t, "COAE (Turno Operador)", CategoryExternalStaff.Label())
}

func TestGroupByCategory(t *testing.T) {
	t.Parallel()

	groups := GroupByCategory([]Entrant{
		entrant("1", "a", CategoryPayingGuest),
		entrant("2", "b", CategoryResident),
		entrant("3", "c", "??"),
		entrant("4", "d", CategoryResident),
	})

	require.Len(t, groups[CategoryResident], 2)
	assert.Equal(t, "2", groups[CategoryResident][0].ID)
	assert.Len(t, groups[CategoryPayingGuest], 1)
	assert.Empty(t, groups[CategoryExternalStaff])
}
