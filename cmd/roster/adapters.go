package main

import (
	"context"
	"errors"
	"time"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/persistence"
	"github.com/example/meal-roster/internal/roster"
)

// translateError maps persistence sentinels onto the application ones. Errors
// returned by update callbacks are application errors already and pass through.
func translateError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return application.ErrNotFound
	}
	return err
}

type dayRecordRepositoryAdapter struct {
	repo persistence.DayRecordRepository
}

func newDayRecordRepositoryAdapter(repo persistence.DayRecordRepository) *dayRecordRepositoryAdapter {
	return &dayRecordRepositoryAdapter{repo: repo}
}

func (a *dayRecordRepositoryAdapter) GetDayRecord(ctx context.Context, date string) (roster.DayRecord, error) {
	record, err := a.repo.GetDayRecord(ctx, date)
	if err != nil {
		return roster.DayRecord{}, translateError(err)
	}
	return record, nil
}

func (a *dayRecordRepositoryAdapter) UpdateDayRecord(ctx context.Context, date string, fn func(record *roster.DayRecord, exists bool) error) (roster.DayRecord, error) {
	record, err := a.repo.UpdateDayRecord(ctx, date, fn)
	if err != nil {
		return roster.DayRecord{}, translateError(err)
	}
	return record, nil
}

func (a *dayRecordRepositoryAdapter) ListDayRecords(ctx context.Context) ([]roster.DayRecord, error) {
	records, err := a.repo.ListDayRecords(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return records, nil
}

func (a *dayRecordRepositoryAdapter) ListDates(ctx context.Context) ([]string, error) {
	dates, err := a.repo.ListDates(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return dates, nil
}

type accessCodeRepositoryAdapter struct {
	repo persistence.AccessCodeRepository
}

func newAccessCodeRepositoryAdapter(repo persistence.AccessCodeRepository) *accessCodeRepositoryAdapter {
	return &accessCodeRepositoryAdapter{repo: repo}
}

func (a *accessCodeRepositoryAdapter) GetAccessCode(ctx context.Context) (application.AccessCode, error) {
	stored, err := a.repo.GetAccessCode(ctx)
	if err != nil {
		return application.AccessCode{}, translateError(err)
	}
	return application.AccessCode{
		Code:        stored.Code,
		GeneratedAt: stored.GeneratedAt,
		GeneratedBy: application.CodeSource(stored.GeneratedBy),
	}, nil
}

func (a *accessCodeRepositoryAdapter) SaveAccessCode(ctx context.Context, code application.AccessCode) error {
	return translateError(a.repo.SaveAccessCode(ctx, persistence.AccessCode{
		Code:        code.Code,
		GeneratedAt: code.GeneratedAt,
		GeneratedBy: string(code.GeneratedBy),
	}))
}

type configurationRepositoryAdapter struct {
	repo persistence.ConfigurationRepository
}

func newConfigurationRepositoryAdapter(repo persistence.ConfigurationRepository) *configurationRepositoryAdapter {
	return &configurationRepositoryAdapter{repo: repo}
}

func (a *configurationRepositoryAdapter) GetConfiguration(ctx context.Context) (application.Configuration, error) {
	stored, err := a.repo.GetConfiguration(ctx)
	if err != nil {
		return application.Configuration{}, translateError(err)
	}
	return application.Configuration{
		LunchMenu:    stored.LunchMenu,
		DinnerMenu:   stored.DinnerMenu,
		PlateCost:    stored.PlateCost,
		LunchCutoff:  stored.LunchCutoff,
		DinnerCutoff: stored.DinnerCutoff,
		UpdatedAt:    stored.UpdatedAt,
	}, nil
}

func (a *configurationRepositoryAdapter) SaveConfiguration(ctx context.Context, cfg application.Configuration) error {
	return translateError(a.repo.SaveConfiguration(ctx, persistence.Configuration{
		LunchMenu:    cfg.LunchMenu,
		DinnerMenu:   cfg.DinnerMenu,
		PlateCost:    cfg.PlateCost,
		LunchCutoff:  cfg.LunchCutoff,
		DinnerCutoff: cfg.DinnerCutoff,
		UpdatedAt:    cfg.UpdatedAt,
	}))
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, translateError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return translateError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		Role:        application.Role(model.Role),
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		Role:        string(session.Role),
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
