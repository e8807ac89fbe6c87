package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/timerules"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    Location,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = Location
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation overrides the facility timezone.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// Rules returns time rules driven by the factory clock with the default rollover
// and rotation hours.
func (f *ServiceFactory) Rules() *timerules.Rules {
	return timerules.New(f.Clock.NowFunc(), timerules.WithLocation(f.Location))
}

// RosterServiceDeps captures dependencies for constructing a roster service.
type RosterServiceDeps struct {
	Records     application.DayRecordRepository
	Rules       *timerules.Rules
	IDGenerator func() string
	Logger      *slog.Logger
	Options     []application.RosterOption
}

// NewRosterService builds a roster service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewRosterService(deps RosterServiceDeps) *application.RosterService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	rules := deps.Rules
	if rules == nil {
		rules = f.Rules()
	}
	return application.NewRosterServiceWithLogger(deps.Records, rules, idGen, deps.Logger, deps.Options...)
}

// AccessCodeServiceDeps captures dependencies for constructing an access code service.
type AccessCodeServiceDeps struct {
	Codes  application.AccessCodeRepository
	Rules  *timerules.Rules
	Random io.Reader
	Logger *slog.Logger
}

// NewAccessCodeService builds an access code service using the supplied dependencies.
func (f *ServiceFactory) NewAccessCodeService(deps AccessCodeServiceDeps) *application.AccessCodeService {
	rules := deps.Rules
	if rules == nil {
		rules = f.Rules()
	}
	return application.NewAccessCodeServiceWithLogger(deps.Codes, rules, deps.Random, deps.Logger)
}

// ConfigurationServiceDeps captures dependencies for constructing a configuration service.
type ConfigurationServiceDeps struct {
	Configs application.ConfigurationRepository
	Rules   *timerules.Rules
	Logger  *slog.Logger
}

// NewConfigurationService builds a configuration service using the supplied dependencies.
func (f *ServiceFactory) NewConfigurationService(deps ConfigurationServiceDeps) *application.ConfigurationService {
	rules := deps.Rules
	if rules == nil {
		rules = f.Rules()
	}
	return application.NewConfigurationServiceWithLogger(deps.Configs, rules, deps.Logger)
}

// ArchiveServiceDeps captures dependencies for constructing an archive service.
type ArchiveServiceDeps struct {
	Records   application.DayRecordRepository
	Summaries *application.SummaryCache
	Logger    *slog.Logger
}

// NewArchiveService builds an archive service. A nil cache is replaced with one
// driven by the factory clock.
func (f *ServiceFactory) NewArchiveService(deps ArchiveServiceDeps) *application.ArchiveService {
	summaries := deps.Summaries
	if summaries == nil {
		summaries = application.NewSummaryCache(time.Minute, 0, f.Clock.NowFunc())
	}
	return application.NewArchiveServiceWithLogger(deps.Records, summaries, deps.Logger)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Codes          application.CodeChecker
	Sessions       application.SessionRepository
	SupervisorHash string
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	svc := application.NewAuthServiceWithLogger(
		deps.Codes,
		deps.Sessions,
		deps.SupervisorHash,
		token,
		now,
		deps.SessionTTL,
		deps.Logger,
	)
	svc.UsePasswordVerifier(deps.PasswordVerify)
	return svc
}
