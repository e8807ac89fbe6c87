package roster

// MealStats are the per-category counts of one meal list.
type MealStats struct {
	ResidentCount      int `json:"residentCount"`
	ExternalStaffCount int `json:"externalStaffCount"`
	PayingGuestCount   int `json:"payingGuestCount"`
	Total              int `json:"total"`
}

// Statistics pairs the lunch and dinner counts of a day.
type Statistics struct {
	Lunch  MealStats `json:"lunch"`
	Dinner MealStats `json:"dinner"`
}

// Rations is the number of plates served across both meals.
func (s Statistics) Rations() int {
	return s.Lunch.Total + s.Dinner.Total
}

// Tally counts entries per category in a single pass. Entries with a missing or
// unknown category count toward Total only.
func Tally(entries []Entrant) MealStats {
	var stats MealStats
	for _, e := range entries {
		switch e.Category.Normalize() {
		case CategoryResident:
			stats.ResidentCount++
		case CategoryExternalStaff:
			stats.ExternalStaffCount++
		case CategoryPayingGuest:
			stats.PayingGuestCount++
		}
		stats.Total++
	}
	return stats
}

// Uncategorized returns the entries Tally could not place in a bucket.
func Uncategorized(entries []Entrant) []Entrant {
	var out []Entrant
	for _, e := range entries {
		if !e.Category.Valid() {
			out = append(out, e)
		}
	}
	return out
}

// GroupByCategory splits entries per known category preserving list order.
// Entries with an unknown category are dropped.
func GroupByCategory(entries []Entrant) map[Category][]Entrant {
	groups := make(map[Category][]Entrant, len(Categories))
	for _, e := range entries {
		cat := e.Category.Normalize()
		if !cat.Valid() {
			continue
		}
		groups[cat] = append(groups[cat], e)
	}
	return groups
}
