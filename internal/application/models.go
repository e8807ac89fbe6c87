package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/meal-roster/internal/roster"
	"github.com/example/meal-roster/internal/timerules"
)

// Role distinguishes the two kinds of authenticated principal.
type Role string

const (
	// RoleOperator is granted by logging in with the daily access code.
	RoleOperator Role = "operator"
	// RoleSupervisor is granted by the supervisor password and may manage the access code.
	RoleSupervisor Role = "supervisor"
)

// Principal represents the authenticated operator invoking a service method.
type Principal struct {
	SessionID string
	Role      Role
}

// IsSupervisor reports whether the principal holds supervisor rights.
func (p Principal) IsSupervisor() bool {
	return p.Role == RoleSupervisor
}

// Session represents an issued authentication session.
type Session struct {
	ID          string
	Role        Role
	Token       string
	Fingerprint string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}

// CodeSource records who produced the current access code.
type CodeSource string

const (
	CodeSourceSystem CodeSource = "system"
	CodeSourceManual CodeSource = "manual"
)

// AccessCode is the daily six digit code.
type AccessCode struct {
	Code        string
	GeneratedAt time.Time
	GeneratedBy CodeSource
}

// AccessCodeInfo is the display form of the current code.
type AccessCodeInfo struct {
	AccessCode
	// IsNew is true when the code was generated since today's rotation boundary.
	IsNew bool
}

// Configuration is the facility configuration shown on the public page.
type Configuration struct {
	LunchMenu    string
	DinnerMenu   string
	PlateCost    decimal.Decimal
	LunchCutoff  string
	DinnerCutoff string
	UpdatedAt    time.Time
}

// ConfigurationPatch carries a partial configuration update. Nil fields are left untouched.
type ConfigurationPatch struct {
	LunchMenu    *string
	DinnerMenu   *string
	PlateCost    *decimal.Decimal
	LunchCutoff  *string
	DinnerCutoff *string
}

// TodayInfo is what the public registration page needs to render.
type TodayInfo struct {
	Date          string
	Configuration Configuration
	Windows       timerules.Windows
}

// EntrantInput captures caller provided entrant fields.
type EntrantInput struct {
	Name       string
	ExternalID string
	Category   roster.Category
	Rank       roster.Rank
	Notes      string
}

// AppendParams wraps the data required to add one entrant to a day.
type AppendParams struct {
	// Date defaults to the effective registration date when empty.
	Date     string
	Selector roster.MealSelector
	Entrant  EntrantInput
}

// AppendResult reports the stored entrant and the record after the append.
type AppendResult struct {
	Date    string
	Entrant roster.Entrant
	Record  roster.DayRecord
}

// RegistrationInput is one person of the public multi-person form.
type RegistrationInput struct {
	EntrantInput
	Lunch  bool
	Dinner bool
}

// RegisterParams wraps a batch of public registrations.
type RegisterParams struct {
	People []RegistrationInput
}

// RegisterResult reports the outcome of a batch registration.
type RegisterResult struct {
	Date     string
	Entrants []roster.Entrant
	// AlreadyListed holds the normalized names that were present before this batch.
	AlreadyListed []string
}

// UpdateParams wraps a partial entrant update.
type UpdateParams struct {
	Date      string
	EntrantID string
	Meal      roster.Meal
	Patch     roster.EntrantPatch
}

// RemoveParams identifies the entry to remove from one meal list.
type RemoveParams struct {
	Date      string
	EntrantID string
	Meal      roster.Meal
}

// DayView is a day record prepared for display.
type DayView struct {
	Date             string
	Exists           bool
	Lunch            []roster.MarkedEntrant
	Dinner           []roster.MarkedEntrant
	Statistics       roster.Statistics
	LunchDuplicates  []string
	DinnerDuplicates []string
}

// HasDuplicates reports whether either list repeats a name.
func (v DayView) HasDuplicates() bool {
	return len(v.LunchDuplicates) > 0 || len(v.DinnerDuplicates) > 0
}

// MonthOption is an archive month with its display label.
type MonthOption struct {
	Month string
	Label string
}

// DaySummary is the per-day tuple of a month summary.
type DaySummary struct {
	Date   string
	Lunch  int
	Dinner int
	Total  int
}

// MonthSummary aggregates the totals of every day in a month.
type MonthSummary struct {
	Month        string
	Label        string
	Days         []DaySummary
	TotalLunch   int
	TotalDinner  int
	TotalRations int
}

// LoginParams carries an operator login attempt with the daily code.
type LoginParams struct {
	Code        string
	Fingerprint string
}

// SupervisorLoginParams carries a supervisor login attempt.
type SupervisorLoginParams struct {
	Password    string
	Fingerprint string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Session   Session
	Principal Principal
}
