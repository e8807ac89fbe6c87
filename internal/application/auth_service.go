package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// CodeChecker is the part of the access code lifecycle the login flow depends on.
type CodeChecker interface {
	Validate(ctx context.Context, candidate string) (bool, error)
	GetOrCreate(ctx context.Context) (AccessCode, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService issues sessions for the daily access code and the supervisor password.
type AuthService struct {
	codes          CodeChecker
	sessions       SessionRepository
	supervisorHash string
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	metrics        MetricsRecorder
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies. An empty
// supervisorHash disables supervisor logins.
func NewAuthService(codes CodeChecker, sessions SessionRepository, supervisorHash string, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(codes, sessions, supervisorHash, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(codes CodeChecker, sessions SessionRepository, supervisorHash string, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenGenerator == nil {
		tokenGenerator = NewSessionToken
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AuthService{
		codes:          codes,
		sessions:       sessions,
		supervisorHash: strings.TrimSpace(supervisorHash),
		verifyPassword: VerifyPassword,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		metrics:        noopMetrics{},
		logger:         defaultLogger(logger),
	}
}

// UseMetrics records login attempts on recorder.
func (s *AuthService) UseMetrics(recorder MetricsRecorder) {
	if s != nil && recorder != nil {
		s.metrics = recorder
	}
}

// UsePasswordVerifier replaces the argon2id verifier.
func (s *AuthService) UsePasswordVerifier(verify PasswordVerifier) {
	if s != nil && verify != nil {
		s.verifyPassword = verify
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Login exchanges the daily access code for an operator session. An expired code
// triggers regeneration so the supervisor display picks up the fresh one, but the
// attempt itself still fails.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.codes == nil {
		err = fmt.Errorf("access code service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Login")
	defer func() {
		s.metrics.LoginAttempt(RoleOperator, loginOutcome(err))
		logOutcome(ctx, logger, err, "login failed", "login succeeded", "session_id", result.Session.ID)
	}()

	code := strings.TrimSpace(params.Code)
	if code == "" {
		vErr := &ValidationError{}
		vErr.add("code", "code is required")
		err = vErr
		return
	}

	var ok bool
	ok, err = s.codes.Validate(ctx, code)
	switch {
	case errors.Is(err, ErrAccessCodeExpired), errors.Is(err, ErrNoCodeConfigured):
		if _, genErr := s.codes.GetOrCreate(ctx); genErr != nil {
			logger.ErrorContext(ctx, "failed to refresh access code", "error", genErr, "error_kind", ErrorKind(genErr))
		}
		return
	case err != nil:
		return
	case !ok:
		err = ErrAccessCodeMismatch
		return
	}

	result, err = s.issueSession(ctx, RoleOperator, params.Fingerprint)
	return
}

// SupervisorLogin exchanges the supervisor password for a supervisor session.
func (s *AuthService) SupervisorLogin(ctx context.Context, params SupervisorLoginParams) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SupervisorLogin")
	defer func() {
		s.metrics.LoginAttempt(RoleSupervisor, loginOutcome(err))
		logOutcome(ctx, logger, err, "supervisor login failed", "supervisor login succeeded", "session_id", result.Session.ID)
	}()

	if s.supervisorHash == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}
	if verifyErr := s.verifyPassword(s.supervisorHash, params.Password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	result, err = s.issueSession(ctx, RoleSupervisor, params.Fingerprint)
	return
}

// Logout revokes the session identified by token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "Logout")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		err = storageError(err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that token belongs to a live session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
			return
		}
		err = storageError(err)
		return
	}

	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()) {
		err = ErrSessionExpired
		return
	}

	principal = Principal{SessionID: session.ID, Role: session.Role}
	return
}

func (s *AuthService) issueSession(ctx context.Context, role Role, fingerprint string) (LoginResult, error) {
	if s.sessions == nil {
		return LoginResult{}, fmt.Errorf("session repository not configured")
	}

	now := s.now()
	id := s.tokenGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	session := Session{
		ID:          id,
		Role:        role,
		Token:       token,
		Fingerprint: strings.TrimSpace(fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return LoginResult{}, storageError(err)
	}
	persisted, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return LoginResult{}, storageError(err)
	}

	return LoginResult{
		Session:   persisted,
		Principal: Principal{SessionID: persisted.ID, Role: persisted.Role},
	}, nil
}

// NewSessionToken returns 32 random bytes encoded for use in cookies and headers.
func NewSessionToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("application: read random token: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func loginOutcome(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorKind(err)
}
