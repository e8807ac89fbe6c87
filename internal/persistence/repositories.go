package persistence

import (
	"context"
	"time"

	"github.com/example/meal-roster/internal/roster"
)

// DayRecordRepository stores one roster per calendar date.
type DayRecordRepository interface {
	GetDayRecord(ctx context.Context, date string) (roster.DayRecord, error)
	SaveDayRecord(ctx context.Context, record roster.DayRecord) error
	// UpdateDayRecord runs fn against the current record for date and persists the
	// result atomically. exists is false when no record was stored yet. An error
	// returned by fn aborts the update and is returned unchanged.
	UpdateDayRecord(ctx context.Context, date string, fn func(record *roster.DayRecord, exists bool) error) (roster.DayRecord, error)
	// ListDates returns every stored date key in ascending order.
	ListDates(ctx context.Context) ([]string, error)
	// ListDayRecords returns every stored record ordered by date ascending.
	ListDayRecords(ctx context.Context) ([]roster.DayRecord, error)
}

// AccessCodeRepository stores the singleton access code.
type AccessCodeRepository interface {
	GetAccessCode(ctx context.Context) (AccessCode, error)
	SaveAccessCode(ctx context.Context, code AccessCode) error
}

// ConfigurationRepository stores the singleton facility configuration.
type ConfigurationRepository interface {
	GetConfiguration(ctx context.Context) (Configuration, error)
	SaveConfiguration(ctx context.Context, cfg Configuration) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Store aggregates every repository a backend provides.
type Store interface {
	DayRecordRepository
	AccessCodeRepository
	ConfigurationRepository
	SessionRepository
	Close() error
}
