package roster

import "strings"

// EntrantPatch carries the fields of a partial update. Nil fields are left untouched.
type EntrantPatch struct {
	Name       *string
	ExternalID *string
	Category   *Category
	Rank       *Rank
	Notes      *string
}

// IsEmpty reports whether the patch changes nothing.
func (p EntrantPatch) IsEmpty() bool {
	return p.Name == nil && p.ExternalID == nil && p.Category == nil && p.Rank == nil && p.Notes == nil
}

// Apply merges the patch into e. ID and RegisteredAt are never changed.
func (p EntrantPatch) Apply(e *Entrant) {
	if e == nil {
		return
	}
	if p.Name != nil {
		e.Name = strings.TrimSpace(*p.Name)
	}
	if p.ExternalID != nil {
		e.ExternalID = strings.TrimSpace(*p.ExternalID)
	}
	if p.Category != nil {
		e.Category = p.Category.Normalize()
	}
	if p.Rank != nil {
		e.Rank = *p.Rank
	}
	if p.Notes != nil {
		e.Notes = strings.TrimSpace(*p.Notes)
	}
}

// ApplyTo patches the entry with id in entries and reports whether it was found.
func (p EntrantPatch) ApplyTo(entries []Entrant, id string) bool {
	for i := range entries {
		if entries[i].ID == id {
			p.Apply(&entries[i])
			return true
		}
	}
	return false
}

// RemoveByID returns entries without the entry carrying id and whether one was removed.
func RemoveByID(entries []Entrant, id string) ([]Entrant, bool) {
	out := make([]Entrant, 0, len(entries))
	removed := false
	for _, e := range entries {
		if e.ID == id {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out, removed
}
