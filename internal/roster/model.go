// Package roster holds the day record model: the per-date lunch and dinner
// entrant lists, their category statistics and the duplicate-name rules.
package roster

import (
	"strings"
	"time"
)

// Category classifies an entrant for accounting purposes.
type Category string

const (
	CategoryResident      Category = "residente"
	CategoryExternalStaff Category = "coae"
	CategoryPayingGuest   Category = "pago"
)

// Categories lists the closed category set in presentation order.
var Categories = []Category{CategoryResident, CategoryExternalStaff, CategoryPayingGuest}

var categoryAliases = map[string]Category{
	"resident":       CategoryResident,
	"externalstaff":  CategoryExternalStaff,
	"external_staff": CategoryExternalStaff,
	"payingguest":    CategoryPayingGuest,
	"paying_guest":   CategoryPayingGuest,
}

// Normalize lowercases and trims the category value and folds the English
// identifiers onto the stored keys.
func (c Category) Normalize() Category {
	value := strings.ToLower(strings.TrimSpace(string(c)))
	if alias, ok := categoryAliases[value]; ok {
		return alias
	}
	return Category(value)
}

// Valid reports whether the normalized category belongs to the closed set.
func (c Category) Valid() bool {
	switch c.Normalize() {
	case CategoryResident, CategoryExternalStaff, CategoryPayingGuest:
		return true
	}
	return false
}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	switch c.Normalize() {
	case CategoryResident:
		return "Residente"
	case CategoryExternalStaff:
		return "COAE (Turno Operador)"
	case CategoryPayingGuest:
		return "Abona en el momento"
	}
	return string(c)
}

// Rank is the non-commissioned grade of an entrant.
type Rank string

const (
	RankSuboficialMayor     Rank = "sm"
	RankSuboficialPrincipal Rank = "sp"
	RankSuboficialAyudante  Rank = "sa"
	RankSuboficialAuxiliar  Rank = "saux"
	RankCaboPrincipal       Rank = "cp"
	RankCaboPrimero         Rank = "c1"
	RankCabo                Rank = "cabo"

	// DefaultRank is applied when a registration omits the rank.
	DefaultRank = RankCabo
)

var rankLabels = map[Rank]string{
	RankSuboficialMayor:     "Suboficial Mayor",
	RankSuboficialPrincipal: "Suboficial Principal",
	RankSuboficialAyudante:  "Suboficial Ayudante",
	RankSuboficialAuxiliar:  "Suboficial Auxiliar",
	RankCaboPrincipal:       "Cabo Principal",
	RankCaboPrimero:         "Cabo Primero",
	RankCabo:                "Cabo",
}

// Ranks lists the rank set from highest to lowest.
var Ranks = []Rank{
	RankSuboficialMayor,
	RankSuboficialPrincipal,
	RankSuboficialAyudante,
	RankSuboficialAuxiliar,
	RankCaboPrincipal,
	RankCaboPrimero,
	RankCabo,
}

// Valid reports whether the rank is known.
func (r Rank) Valid() bool {
	_, ok := rankLabels[r]
	return ok
}

// Label returns the full rank name, or the raw value when unknown.
func (r Rank) Label() string {
	if label, ok := rankLabels[r]; ok {
		return label
	}
	return string(r)
}

// Meal identifies one of the two served meals.
type Meal string

const (
	MealLunch  Meal = "lunch"
	MealDinner Meal = "dinner"
)

// Valid reports whether the meal is lunch or dinner.
func (m Meal) Valid() bool {
	return m == MealLunch || m == MealDinner
}

// ParseMeal accepts the English identifiers and their Spanish equivalents.
func ParseMeal(value string) (Meal, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lunch", "almuerzo":
		return MealLunch, true
	case "dinner", "cena":
		return MealDinner, true
	}
	return "", false
}

// MealSelector picks the lists a registration lands in.
type MealSelector string

const (
	SelectLunch  MealSelector = "lunch"
	SelectDinner MealSelector = "dinner"
	SelectBoth   MealSelector = "both"
)

// Meals expands the selector into the affected meals. Unknown selectors expand to nothing.
func (s MealSelector) Meals() []Meal {
	switch s {
	case SelectLunch:
		return []Meal{MealLunch}
	case SelectDinner:
		return []Meal{MealDinner}
	case SelectBoth:
		return []Meal{MealLunch, MealDinner}
	}
	return nil
}

// SelectorFor builds a selector from two meal flags. It returns "" when neither is set.
func SelectorFor(lunch, dinner bool) MealSelector {
	switch {
	case lunch && dinner:
		return SelectBoth
	case lunch:
		return SelectLunch
	case dinner:
		return SelectDinner
	}
	return ""
}

// Entrant is a single registration in one meal list.
type Entrant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ExternalID   string    `json:"externalId,omitempty"`
	Category     Category  `json:"category"`
	Rank         Rank      `json:"rank"`
	Notes        string    `json:"notes,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// DayRecord is the persisted roster of a single calendar date.
type DayRecord struct {
	Date          string     `json:"date"`
	LunchEntries  []Entrant  `json:"lunchEntries"`
	DinnerEntries []Entrant  `json:"dinnerEntries"`
	Statistics    Statistics `json:"statistics"`
}

// NewDayRecord returns an empty record for date with zeroed statistics.
func NewDayRecord(date string) DayRecord {
	return DayRecord{Date: date, LunchEntries: []Entrant{}, DinnerEntries: []Entrant{}}
}

// Entries returns the list backing meal.
func (d *DayRecord) Entries(meal Meal) []Entrant {
	if meal == MealDinner {
		return d.DinnerEntries
	}
	return d.LunchEntries
}

// SetEntries replaces the list backing meal.
func (d *DayRecord) SetEntries(meal Meal, entries []Entrant) {
	if entries == nil {
		entries = []Entrant{}
	}
	if meal == MealDinner {
		d.DinnerEntries = entries
		return
	}
	d.LunchEntries = entries
}

// Recompute rebuilds both statistics sub-objects from the current lists.
func (d *DayRecord) Recompute() {
	d.Statistics = Statistics{
		Lunch:  Tally(d.LunchEntries),
		Dinner: Tally(d.DinnerEntries),
	}
}

// Clone returns a deep copy of the record.
func (d DayRecord) Clone() DayRecord {
	clone := d
	clone.LunchEntries = cloneEntries(d.LunchEntries)
	clone.DinnerEntries = cloneEntries(d.DinnerEntries)
	return clone
}

func cloneEntries(entries []Entrant) []Entrant {
	out := make([]Entrant, len(entries))
	copy(out, entries)
	return out
}
