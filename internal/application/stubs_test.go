package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/meal-roster/internal/roster"
	"github.com/example/meal-roster/internal/timerules"
)

var testZone = time.FixedZone("ART", -3*60*60)

// fixedRules returns rules frozen at the given local wall clock time.
func fixedRules(year int, month time.Month, day, hour, minute int) (*timerules.Rules, *time.Time) {
	now := time.Date(year, month, day, hour, minute, 0, 0, testZone)
	rules := timerules.New(func() time.Time { return now }, timerules.WithLocation(testZone))
	return rules, &now
}

// dayRecordRepositoryStub is an in-memory DayRecordRepository for tests.
type dayRecordRepositoryStub struct {
	mu      sync.Mutex
	records map[string]roster.DayRecord

	getErr    error
	updateErr error
	listErr   error

	listCalls  int
	datesCalls int

	// afterList runs once ListDayRecords has taken its snapshot, outside the lock.
	afterList func()
}

func newDayRecordRepositoryStub(records ...roster.DayRecord) *dayRecordRepositoryStub {
	stub := &dayRecordRepositoryStub{records: make(map[string]roster.DayRecord)}
	for _, record := range records {
		record.Recompute()
		stub.records[record.Date] = record.Clone()
	}
	return stub
}

func (s *dayRecordRepositoryStub) GetDayRecord(_ context.Context, date string) (roster.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return roster.DayRecord{}, s.getErr
	}
	record, ok := s.records[date]
	if !ok {
		return roster.DayRecord{}, ErrNotFound
	}
	return record.Clone(), nil
}

func (s *dayRecordRepositoryStub) UpdateDayRecord(_ context.Context, date string, fn func(record *roster.DayRecord, exists bool) error) (roster.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return roster.DayRecord{}, s.updateErr
	}
	current, exists := s.records[date]
	working := current.Clone()
	if err := fn(&working, exists); err != nil {
		return roster.DayRecord{}, err
	}
	s.records[date] = working.Clone()
	return working, nil
}

func (s *dayRecordRepositoryStub) ListDayRecords(context.Context) ([]roster.DayRecord, error) {
	s.mu.Lock()
	s.listCalls++
	if s.listErr != nil {
		s.mu.Unlock()
		return nil, s.listErr
	}
	out := make([]roster.DayRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record.Clone())
	}
	hook := s.afterList
	s.afterList = nil
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if hook != nil {
		hook()
	}
	return out, nil
}

func (s *dayRecordRepositoryStub) ListDates(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datesCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	dates := make([]string, 0, len(s.records))
	for date := range s.records {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *dayRecordRepositoryStub) record(date string) (roster.DayRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[date]
	return record, ok
}

// accessCodeRepositoryStub holds the singleton code in memory.
type accessCodeRepositoryStub struct {
	mu      sync.Mutex
	code    *AccessCode
	saves   int
	getErr  error
	saveErr error
}

func (s *accessCodeRepositoryStub) GetAccessCode(context.Context) (AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return AccessCode{}, s.getErr
	}
	if s.code == nil {
		return AccessCode{}, ErrNotFound
	}
	return *s.code, nil
}

func (s *accessCodeRepositoryStub) SaveAccessCode(_ context.Context, code AccessCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.code = &code
	return nil
}

// configurationRepositoryStub holds the singleton configuration in memory.
type configurationRepositoryStub struct {
	cfg     *Configuration
	saves   int
	getErr  error
	saveErr error
}

func (s *configurationRepositoryStub) GetConfiguration(context.Context) (Configuration, error) {
	if s.getErr != nil {
		return Configuration{}, s.getErr
	}
	if s.cfg == nil {
		return Configuration{}, ErrNotFound
	}
	return *s.cfg, nil
}

func (s *configurationRepositoryStub) SaveConfiguration(_ context.Context, cfg Configuration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.cfg = &cfg
	return nil
}

// sessionRepositoryStub provides an in-memory SessionRepository for tests.
type sessionRepositoryStub struct {
	mu       sync.Mutex
	sessions map[string]Session

	createErr error
	getErr    error
	revokeErr error
	deleteErr error

	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]Session)}
}

func (s *sessionRepositoryStub) seed(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
}

func (s *sessionRepositoryStub) CreateSession(_ context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(_ context.Context, token string, revokedAt time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

// metricsSpy counts recorded events.
type metricsSpy struct {
	mu        sync.Mutex
	added     map[string]int
	removed   int
	updated   int
	generated []CodeSource
	logins    []string
}

func newMetricsSpy() *metricsSpy {
	return &metricsSpy{added: make(map[string]int)}
}

func (m *metricsSpy) EntrantsAdded(source string, meal roster.Meal, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added[source+"/"+string(meal)] += count
}

func (m *metricsSpy) EntrantRemoved(roster.Meal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed++
}

func (m *metricsSpy) EntrantUpdated(roster.Meal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated++
}

func (m *metricsSpy) AccessCodeGenerated(source CodeSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated = append(m.generated, source)
}

func (m *metricsSpy) LoginAttempt(role Role, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, string(role)+":"+outcome)
}

// sequence returns a generator yielding the given ids in order, then "id-overflow".
func sequence(ids ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return "id-overflow"
		}
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

// staticWindows is a MealWindowProvider with fixed flags.
type staticWindows timerules.Windows

func (w staticWindows) MealWindows(context.Context) (timerules.Windows, error) {
	return timerules.Windows(w), nil
}
