// Package timerules derives calendar dates and time-of-day predicates from an
// injected clock in the facility's local timezone.
package timerules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical calendar date key.
	DateLayout = "2006-01-02"
	// MonthLayout is the canonical month prefix of a date key.
	MonthLayout = "2006-01"

	DefaultTimezone     = "America/Argentina/Buenos_Aires"
	DefaultRolloverHour = 22
	DefaultRotationHour = 7
)

// Rules answers date and cutoff questions relative to the current local time.
type Rules struct {
	now          func() time.Time
	location     *time.Location
	rolloverHour int
	rotationHour int
}

// Option customises a Rules instance.
type Option func(*Rules)

// WithLocation sets the local timezone. A nil location is ignored.
func WithLocation(loc *time.Location) Option {
	return func(r *Rules) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithRolloverHour sets the hour from which registrations target the next day.
func WithRolloverHour(hour int) Option {
	return func(r *Rules) {
		if hour >= 0 && hour <= 23 {
			r.rolloverHour = hour
		}
	}
}

// WithRotationHour sets the daily hour at which the access code expires.
func WithRotationHour(hour int) Option {
	return func(r *Rules) {
		if hour >= 0 && hour <= 23 {
			r.rotationHour = hour
		}
	}
}

// New constructs Rules around the provided clock. A nil clock falls back to time.Now.
func New(now func() time.Time, opts ...Option) *Rules {
	if now == nil {
		now = time.Now
	}
	r := &Rules{
		now:          now,
		location:     time.Local,
		rolloverHour: DefaultRolloverHour,
		rotationHour: DefaultRotationHour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadLocation resolves an IANA timezone name, defaulting to DefaultTimezone when empty.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTimezone
	}
	return time.LoadLocation(name)
}

// Location returns the configured timezone.
func (r *Rules) Location() *time.Location {
	return r.location
}

// RolloverHour returns the late-night threshold hour.
func (r *Rules) RolloverHour() int {
	return r.rolloverHour
}

// RotationHour returns the daily access code rotation hour.
func (r *Rules) RotationHour() int {
	return r.rotationHour
}

// Now returns the current instant in the local timezone.
func (r *Rules) Now() time.Time {
	return r.now().In(r.location)
}

// Today returns the local calendar date.
func (r *Rules) Today() string {
	return r.Now().Format(DateLayout)
}

// Tomorrow returns the local calendar date following Today.
func (r *Rules) Tomorrow() string {
	return r.Now().AddDate(0, 0, 1).Format(DateLayout)
}

// IsLateNightWindow reports whether the local hour is at or past the rollover hour.
func (r *Rules) IsLateNightWindow() bool {
	return r.Now().Hour() >= r.rolloverHour
}

// EffectiveRegistrationDate is the date new registrations are filed under.
func (r *Rules) EffectiveRegistrationDate() string {
	if r.IsLateNightWindow() {
		return r.Tomorrow()
	}
	return r.Today()
}

// IsBefore reports whether the local HH:MM is strictly earlier than cutoff.
// Comparison happens at minute granularity; a malformed cutoff is never open.
func (r *Rules) IsBefore(cutoff string) bool {
	limit, err := minutesOfDay(cutoff)
	if err != nil {
		return false
	}
	now := r.Now()
	return now.Hour()*60+now.Minute() < limit
}

// RotationBoundary returns today's rotation instant in the local timezone.
func (r *Rules) RotationBoundary() time.Time {
	now := r.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), r.rotationHour, 0, 0, 0, r.location)
}

// Windows describes which meals currently accept public registrations.
type Windows struct {
	LunchOpen  bool
	DinnerOpen bool
	LateNight  bool
}

// MealWindows evaluates both cutoffs. During the late-night window registrations
// target the next day, so both meals are open.
func (r *Rules) MealWindows(lunchCutoff, dinnerCutoff string) Windows {
	if r.IsLateNightWindow() {
		return Windows{LunchOpen: true, DinnerOpen: true, LateNight: true}
	}
	return Windows{
		LunchOpen:  r.IsBefore(lunchCutoff),
		DinnerOpen: r.IsBefore(dinnerCutoff),
	}
}

// ValidCutoff reports whether value is a zero-padded 24h HH:MM string.
func ValidCutoff(value string) bool {
	_, err := minutesOfDay(value)
	return err == nil
}

func minutesOfDay(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("timerules: invalid cutoff %q", value)
	}
	hour, err := strconv.Atoi(value[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("timerules: invalid cutoff hour %q", value)
	}
	minute, err := strconv.Atoi(value[3:])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("timerules: invalid cutoff minute %q", value)
	}
	return hour*60 + minute, nil
}

// ParseDate validates a YYYY-MM-DD key.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("timerules: invalid date %q: %w", value, err)
	}
	return t, nil
}

// ParseMonth validates a YYYY-MM prefix.
func ParseMonth(value string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("timerules: invalid month %q: %w", value, err)
	}
	return t, nil
}

// MonthOf returns the YYYY-MM prefix of a date key, or "" when the key is too short.
func MonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}
