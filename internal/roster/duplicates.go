package roster

import (
	"sort"
	"strings"
)

// NormalizeName is the comparison key for duplicate detection.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MarkedEntrant is an entrant annotated for display.
type MarkedEntrant struct {
	Entrant
	IsDuplicate bool `json:"isDuplicate"`
}

// MarkDuplicates flags every repeat of an already seen name. The first
// occurrence stays unflagged. Blank names are never flagged.
func MarkDuplicates(entries []Entrant) []MarkedEntrant {
	out := make([]MarkedEntrant, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		out[i] = MarkedEntrant{Entrant: e}
		key := NormalizeName(e.Name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			out[i].IsDuplicate = true
			continue
		}
		seen[key] = struct{}{}
	}
	return out
}

// FindDuplicateNames returns, sorted, every normalized name occurring at least twice.
func FindDuplicateNames(entries []Entrant) []string {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		if key := NormalizeName(e.Name); key != "" {
			counts[key]++
		}
	}
	var names []string
	for name, n := range counts {
		if n > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// HasDuplicates reports whether any non-blank name repeats.
func HasDuplicates(entries []Entrant) bool {
	return len(FindDuplicateNames(entries)) > 0
}

// ContainsName reports whether entries already hold name after normalization.
func ContainsName(entries []Entrant, name string) bool {
	key := NormalizeName(name)
	if key == "" {
		return false
	}
	for _, e := range entries {
		if NormalizeName(e.Name) == key {
			return true
		}
	}
	return false
}
