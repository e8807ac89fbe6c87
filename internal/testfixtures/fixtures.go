package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/persistence"
	"github.com/example/meal-roster/internal/roster"
)

var (
	entrantCounter uint64
	sessionCounter uint64
)

// Location is a fixed UTC-3 zone so fixtures do not depend on the tz database.
var Location = time.FixedZone("ART", -3*60*60)

var referenceTime = time.Date(2025, time.March, 14, 9, 30, 0, 0, Location)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a weekday morning, before both default meal cutoffs.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is the calendar date of ReferenceTime.
func ReferenceDate() string {
	return referenceTime.Format("2006-01-02")
}

// ----------------------------- Entrant fixtures -----------------------------

// EntrantFixture is a deterministic entrant that can be materialised as a
// stored roster entry or as service input.
type EntrantFixture struct {
	ID           string
	Name         string
	ExternalID   string
	Category     roster.Category
	Rank         roster.Rank
	Notes        string
	RegisteredAt time.Time
}

// EntrantOption configures the generated entrant fixture.
type EntrantOption func(*EntrantFixture)

// NewEntrantFixture returns a deterministic resident entrant with optional overrides.
func NewEntrantFixture(opts ...EntrantOption) EntrantFixture {
	idx := atomic.AddUint64(&entrantCounter, 1)
	fixture := EntrantFixture{
		ID:           fmt.Sprintf("entrant-%03d", idx),
		Name:         fmt.Sprintf("Entrant %03d", idx),
		Category:     roster.CategoryResident,
		Rank:         roster.DefaultRank,
		RegisteredAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntrantID overrides the generated entrant ID.
func WithEntrantID(id string) EntrantOption {
	return func(f *EntrantFixture) {
		f.ID = id
	}
}

// WithEntrantName overrides the generated name.
func WithEntrantName(name string) EntrantOption {
	return func(f *EntrantFixture) {
		f.Name = name
	}
}

// WithEntrantCategory overrides the category. An empty value leaves the entrant uncategorized.
func WithEntrantCategory(category roster.Category) EntrantOption {
	return func(f *EntrantFixture) {
		f.Category = category
	}
}

// WithEntrantRank overrides the rank.
func WithEntrantRank(rank roster.Rank) EntrantOption {
	return func(f *EntrantFixture) {
		f.Rank = rank
	}
}

// WithEntrantExternalID sets the external identifier.
func WithEntrantExternalID(externalID string) EntrantOption {
	return func(f *EntrantFixture) {
		f.ExternalID = externalID
	}
}

// WithEntrantNotes sets the free text notes.
func WithEntrantNotes(notes string) EntrantOption {
	return func(f *EntrantFixture) {
		f.Notes = notes
	}
}

// WithEntrantRegisteredAt sets the registration timestamp.
func WithEntrantRegisteredAt(t time.Time) EntrantOption {
	return func(f *EntrantFixture) {
		f.RegisteredAt = t
	}
}

// Entrant returns the fixture as a stored roster entry.
func (f EntrantFixture) Entrant() roster.Entrant {
	return roster.Entrant{
		ID:           f.ID,
		Name:         f.Name,
		ExternalID:   f.ExternalID,
		Category:     f.Category,
		Rank:         f.Rank,
		Notes:        f.Notes,
		RegisteredAt: f.RegisteredAt,
	}
}

// Input returns the caller supplied part of the fixture.
func (f EntrantFixture) Input() application.EntrantInput {
	return application.EntrantInput{
		Name:       f.Name,
		ExternalID: f.ExternalID,
		Category:   f.Category,
		Rank:       f.Rank,
		Notes:      f.Notes,
	}
}

// Registration returns the fixture as one person of a public registration batch.
func (f EntrantFixture) Registration(lunch, dinner bool) application.RegistrationInput {
	return application.RegistrationInput{EntrantInput: f.Input(), Lunch: lunch, Dinner: dinner}
}

// Entrants materialises several fixtures at once.
func Entrants(fixtures ...EntrantFixture) []roster.Entrant {
	out := make([]roster.Entrant, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, f.Entrant())
	}
	return out
}

// ---------------------------- Day record fixtures ----------------------------

// DayRecord builds a record for date with recomputed statistics.
func DayRecord(date string, lunch, dinner []roster.Entrant) roster.DayRecord {
	record := roster.NewDayRecord(date)
	record.SetEntries(roster.MealLunch, append([]roster.Entrant(nil), lunch...))
	record.SetEntries(roster.MealDinner, append([]roster.Entrant(nil), dinner...))
	record.Recompute()
	return record
}

// ---------------------------- Access code fixtures ----------------------------

// AccessCodeFixture is a deterministic daily access code.
type AccessCodeFixture struct {
	Code        string
	GeneratedAt time.Time
	GeneratedBy application.CodeSource
}

// NewAccessCodeFixture returns a system generated code issued at ReferenceTime.
func NewAccessCodeFixture(code string) AccessCodeFixture {
	if code == "" {
		code = "123456"
	}
	return AccessCodeFixture{Code: code, GeneratedAt: referenceTime, GeneratedBy: application.CodeSourceSystem}
}

// Application returns the fixture as an application.AccessCode value.
func (f AccessCodeFixture) Application() application.AccessCode {
	return application.AccessCode{Code: f.Code, GeneratedAt: f.GeneratedAt, GeneratedBy: f.GeneratedBy}
}

// Persistence returns the fixture as a persistence.AccessCode value.
func (f AccessCodeFixture) Persistence() persistence.AccessCode {
	return persistence.AccessCode{Code: f.Code, GeneratedAt: f.GeneratedAt, GeneratedBy: string(f.GeneratedBy)}
}

// --------------------------- Configuration fixtures ---------------------------

// Configuration returns the default facility configuration stamped at ReferenceTime.
func Configuration() persistence.Configuration {
	defaults := application.DefaultConfiguration()
	return persistence.Configuration{
		LunchMenu:    defaults.LunchMenu,
		DinnerMenu:   defaults.DinnerMenu,
		PlateCost:    defaults.PlateCost,
		LunchCutoff:  defaults.LunchCutoff,
		DinnerCutoff: defaults.DinnerCutoff,
		UpdatedAt:    referenceTime,
	}
}

// ------------------------------ Session fixtures ------------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID          string
	Role        application.Role
	Token       string
	Fingerprint string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns an operator session valid for twelve hours from ReferenceTime.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:          fmt.Sprintf("session-%03d", idx),
		Role:        application.RoleOperator,
		Token:       fmt.Sprintf("token-%03d", idx),
		Fingerprint: "fixture-agent",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
		ExpiresAt:   referenceTime.Add(12 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionRole overrides the session role.
func WithSessionRole(role application.Role) SessionOption {
	return func(f *SessionFixture) {
		f.Role = role
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt overrides the expiry.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt marks the session as revoked at t.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &t
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		Role:        f.Role,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		ExpiresAt:   f.ExpiresAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		Role:        string(f.Role),
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		ExpiresAt:   f.ExpiresAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

func copyTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
