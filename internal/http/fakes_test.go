package http

import (
	"context"
	"sync"
	"time"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/roster"
)

type fakeSessionValidator struct {
	principals map[string]application.Principal
	err        error
}

func (f fakeSessionValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	if f.err != nil {
		return application.Principal{}, f.err
	}
	principal, ok := f.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthorized
	}
	return principal, nil
}

type fakeAuth struct {
	loginResult application.LoginResult
	loginErr    error
	logoutErr   error

	lastLogin      application.LoginParams
	lastSupervisor application.SupervisorLoginParams
	loggedOut      []string
}

func (f *fakeAuth) Login(_ context.Context, params application.LoginParams) (application.LoginResult, error) {
	f.lastLogin = params
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) SupervisorLogin(_ context.Context, params application.SupervisorLoginParams) (application.LoginResult, error) {
	f.lastSupervisor = params
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return f.logoutErr
}

type fakeRoster struct {
	view      application.DayView
	viewErr   error
	appended  application.AppendResult
	record    roster.DayRecord
	mutateErr error
	register  application.RegisterResult

	lastDate     string
	lastAppend   application.AppendParams
	lastUpdate   application.UpdateParams
	lastRemove   application.RemoveParams
	lastRegister application.RegisterParams
}

func (f *fakeRoster) Day(_ context.Context, date string) (application.DayView, error) {
	f.lastDate = date
	return f.view, f.viewErr
}

func (f *fakeRoster) Append(_ context.Context, params application.AppendParams) (application.AppendResult, error) {
	f.lastAppend = params
	return f.appended, f.mutateErr
}

func (f *fakeRoster) Update(_ context.Context, params application.UpdateParams) (roster.DayRecord, error) {
	f.lastUpdate = params
	return f.record, f.mutateErr
}

func (f *fakeRoster) Remove(_ context.Context, params application.RemoveParams) (roster.DayRecord, error) {
	f.lastRemove = params
	return f.record, f.mutateErr
}

func (f *fakeRoster) Register(_ context.Context, params application.RegisterParams) (application.RegisterResult, error) {
	f.lastRegister = params
	return f.register, f.mutateErr
}

type fakeToday struct {
	info application.TodayInfo
	err  error
}

func (f fakeToday) Today(context.Context) (application.TodayInfo, error) {
	return f.info, f.err
}

type fakeArchive struct {
	months  []application.MonthOption
	days    []string
	summary application.MonthSummary
	active  map[string]bool
	err     error
}

func (f fakeArchive) ListActiveMonths(context.Context) ([]application.MonthOption, error) {
	return f.months, f.err
}

func (f fakeArchive) ListActiveDays(context.Context, string) ([]string, error) {
	return f.days, f.err
}

func (f fakeArchive) DayHasActivity(_ context.Context, date string) (bool, error) {
	return f.active[date], f.err
}

func (f fakeArchive) SummarizeMonth(_ context.Context, month string) (application.MonthSummary, error) {
	if f.err != nil {
		return application.MonthSummary{}, f.err
	}
	summary := f.summary
	summary.Month = month
	return summary, nil
}

type fakeConfiguration struct {
	cfg       application.Configuration
	err       error
	lastPatch application.ConfigurationPatch
}

func (f *fakeConfiguration) Get(context.Context) (application.Configuration, error) {
	return f.cfg, f.err
}

func (f *fakeConfiguration) Update(_ context.Context, patch application.ConfigurationPatch) (application.Configuration, error) {
	f.lastPatch = patch
	return f.cfg, f.err
}

type fakeAccessCode struct {
	info application.AccessCodeInfo
	err  error
}

func (f fakeAccessCode) Info(context.Context) (application.AccessCodeInfo, error) {
	return f.info, f.err
}

func (f fakeAccessCode) Regenerate(context.Context) (application.AccessCode, error) {
	return f.info.AccessCode, f.err
}

type fakeHealth struct{ err error }

func (f fakeHealth) Ping(context.Context) error { return f.err }

type observation struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	mu           sync.Mutex
	observations []observation
}

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observations = append(f.observations, observation{method: method, route: route, status: status})
}

func (f *fakeObserver) all() []observation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]observation(nil), f.observations...)
}
