// Package memory provides a process-local persistence backend used for
// development runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/meal-roster/internal/persistence"
	"github.com/example/meal-roster/internal/roster"
)

// Storage keeps every record in maps guarded by a single RWMutex.
type Storage struct {
	mu            sync.RWMutex
	days          map[string]roster.DayRecord
	accessCode    *persistence.AccessCode
	configuration *persistence.Configuration
	sessions      map[string]persistence.Session
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		days:     make(map[string]roster.DayRecord),
		sessions: make(map[string]persistence.Session),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

// --- DayRecordRepository implementation ---

// GetDayRecord returns the record stored for date.
func (s *Storage) GetDayRecord(ctx context.Context, date string) (roster.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.days[date]
	if !ok {
		return roster.DayRecord{}, persistence.ErrNotFound
	}
	return record.Clone(), nil
}

// SaveDayRecord replaces the record stored for record.Date.
func (s *Storage) SaveDayRecord(ctx context.Context, record roster.DayRecord) error {
	if strings.TrimSpace(record.Date) == "" {
		return persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.days[record.Date] = record.Clone()
	return nil
}

// UpdateDayRecord applies fn under the write lock.
func (s *Storage) UpdateDayRecord(ctx context.Context, date string, fn func(record *roster.DayRecord, exists bool) error) (roster.DayRecord, error) {
	if strings.TrimSpace(date) == "" {
		return roster.DayRecord{}, persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.days[date]
	working := roster.NewDayRecord(date)
	if exists {
		working = current.Clone()
	}
	if err := fn(&working, exists); err != nil {
		return roster.DayRecord{}, err
	}
	working.Date = date
	s.days[date] = working.Clone()
	return working, nil
}

// ListDates returns the stored date keys ascending.
func (s *Storage) ListDates(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.days))
	for date := range s.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// ListDayRecords returns every record ordered by date.
func (s *Storage) ListDayRecords(ctx context.Context) ([]roster.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]roster.DayRecord, 0, len(s.days))
	for _, record := range s.days {
		records = append(records, record.Clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
	return records, nil
}

// --- AccessCodeRepository implementation ---

// GetAccessCode returns the stored access code.
func (s *Storage) GetAccessCode(ctx context.Context) (persistence.AccessCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accessCode == nil {
		return persistence.AccessCode{}, persistence.ErrNotFound
	}
	return *s.accessCode, nil
}

// SaveAccessCode overwrites the stored access code.
func (s *Storage) SaveAccessCode(ctx context.Context, code persistence.AccessCode) error {
	if strings.TrimSpace(code.Code) == "" {
		return persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := code
	stored.GeneratedAt = code.GeneratedAt.UTC()
	s.accessCode = &stored
	return nil
}

// --- ConfigurationRepository implementation ---

// GetConfiguration returns the stored configuration.
func (s *Storage) GetConfiguration(ctx context.Context) (persistence.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.configuration == nil {
		return persistence.Configuration{}, persistence.ErrNotFound
	}
	return *s.configuration, nil
}

// SaveConfiguration overwrites the stored configuration.
func (s *Storage) SaveConfiguration(ctx context.Context, cfg persistence.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cfg
	stored.UpdatedAt = cfg.UpdatedAt.UTC()
	s.configuration = &stored
	return nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session keyed by its token.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	token := strings.TrimSpace(session.Token)
	if session.ID == "" || token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	session.Token = token
	s.sessions[token] = cloneSession(session)
	return cloneSession(session), nil
}

// GetSession retrieves a session by its token value.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[strings.TrimSpace(token)]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// RevokeSession marks a session as revoked.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(token)
	session, ok := s.sessions[key]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	session.UpdatedAt = revoked
	s.sessions[key] = session
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions that expired on or before reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func cloneSession(session persistence.Session) persistence.Session {
	clone := session
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		clone.RevokedAt = &revoked
	}
	return clone
}
