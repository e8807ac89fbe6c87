package application

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/example/meal-roster/internal/timerules"
)

const (
	accessCodeSpace   = 1_000_000
	accessCodeLockKey = "access-code"
)

// AccessCodeRepository captures the persistence operations for the singleton access code.
type AccessCodeRepository interface {
	GetAccessCode(ctx context.Context) (AccessCode, error)
	SaveAccessCode(ctx context.Context, code AccessCode) error
}

// AccessCodeService owns the daily six digit code that unlocks the operator views.
// A code expires at the first rotation boundary after it was generated.
type AccessCodeService struct {
	codes   AccessCodeRepository
	rules   *timerules.Rules
	random  io.Reader
	metrics MetricsRecorder
	logger  *slog.Logger

	// mu serializes check-then-generate so concurrent callers observe one code.
	// locker extends that across processes when set.
	mu     sync.Mutex
	locker DateLocker
}

// NewAccessCodeService constructs an access code service. A nil random source falls back to crypto/rand.
func NewAccessCodeService(codes AccessCodeRepository, rules *timerules.Rules, random io.Reader) *AccessCodeService {
	return NewAccessCodeServiceWithLogger(codes, rules, random, nil)
}

// NewAccessCodeServiceWithLogger constructs an access code service with a specified logger.
func NewAccessCodeServiceWithLogger(codes AccessCodeRepository, rules *timerules.Rules, random io.Reader, logger *slog.Logger) *AccessCodeService {
	if rules == nil {
		rules = timerules.New(nil)
	}
	if random == nil {
		random = rand.Reader
	}
	return &AccessCodeService{
		codes:   codes,
		rules:   rules,
		random:  random,
		metrics: noopMetrics{},
		logger:  defaultLogger(logger),
	}
}

// UseMetrics records generated codes on recorder.
func (s *AccessCodeService) UseMetrics(recorder MetricsRecorder) {
	if s != nil && recorder != nil {
		s.metrics = recorder
	}
}

// UseLocker serializes code generation on locker in addition to the in-process mutex.
func (s *AccessCodeService) UseLocker(locker DateLocker) {
	if s != nil {
		s.locker = locker
	}
}

func (s *AccessCodeService) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()
	if s.locker == nil {
		return s.mu.Unlock, nil
	}
	unlock, err := s.locker.Lock(ctx, accessCodeLockKey)
	if err != nil {
		s.mu.Unlock()
		return nil, storageError(err)
	}
	return func() {
		unlock()
		s.mu.Unlock()
	}, nil
}

func (s *AccessCodeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccessCodeService", operation, attrs...)
}

// GetOrCreate returns the current code, generating a fresh one when none exists
// or the stored one has expired.
func (s *AccessCodeService) GetOrCreate(ctx context.Context) (code AccessCode, err error) {
	if s == nil {
		err = fmt.Errorf("AccessCodeService is nil")
		return
	}
	if s.codes == nil {
		err = fmt.Errorf("access code repository not configured")
		return
	}

	release, err := s.acquire(ctx)
	if err != nil {
		s.loggerWith(ctx, "GetOrCreate").ErrorContext(ctx, "failed to lock access code", "error", err, "error_kind", ErrorKind(err))
		return AccessCode{}, err
	}
	defer release()

	code, err = s.codes.GetAccessCode(ctx)
	switch {
	case err == nil && !s.expired(code):
		return code, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		err = storageError(err)
		s.loggerWith(ctx, "GetOrCreate").ErrorContext(ctx, "failed to load access code", "error", err, "error_kind", ErrorKind(err))
		return AccessCode{}, err
	}

	return s.generateLocked(ctx, "GetOrCreate", CodeSourceSystem)
}

// Validate compares candidate with the stored code exactly. It never generates a new code.
func (s *AccessCodeService) Validate(ctx context.Context, candidate string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("AccessCodeService is nil")
	}
	if s.codes == nil {
		return false, fmt.Errorf("access code repository not configured")
	}

	code, err := s.codes.GetAccessCode(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, ErrNoCodeConfigured
		}
		return false, storageError(err)
	}
	if s.expired(code) {
		return false, ErrAccessCodeExpired
	}

	return subtle.ConstantTimeCompare([]byte(candidate), []byte(code.Code)) == 1, nil
}

// Regenerate replaces the current code unconditionally.
func (s *AccessCodeService) Regenerate(ctx context.Context) (AccessCode, error) {
	if s == nil {
		return AccessCode{}, fmt.Errorf("AccessCodeService is nil")
	}
	if s.codes == nil {
		return AccessCode{}, fmt.Errorf("access code repository not configured")
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return AccessCode{}, err
	}
	defer release()
	return s.generateLocked(ctx, "Regenerate", CodeSourceManual)
}

// Info returns the current code with its display flags, generating one when needed.
func (s *AccessCodeService) Info(ctx context.Context) (AccessCodeInfo, error) {
	code, err := s.GetOrCreate(ctx)
	if err != nil {
		return AccessCodeInfo{}, err
	}
	return AccessCodeInfo{
		AccessCode: code,
		IsNew:      !code.GeneratedAt.Before(s.rules.RotationBoundary()),
	}, nil
}

// expired reports whether code was generated before a rotation boundary that has already passed.
func (s *AccessCodeService) expired(code AccessCode) bool {
	boundary := s.rules.RotationBoundary()
	return !s.rules.Now().Before(boundary) && code.GeneratedAt.Before(boundary)
}

func (s *AccessCodeService) generateLocked(ctx context.Context, operation string, source CodeSource) (code AccessCode, err error) {
	logger := s.loggerWith(ctx, operation, "source", source)
	defer func() {
		logOutcome(ctx, logger, err, "failed to generate access code", "access code generated",
			"generated_at", code.GeneratedAt.Format(time.RFC3339))
	}()

	var value string
	value, err = generateCode(s.random)
	if err != nil {
		return AccessCode{}, err
	}

	code = AccessCode{Code: value, GeneratedAt: s.rules.Now(), GeneratedBy: source}
	if err = s.codes.SaveAccessCode(ctx, code); err != nil {
		err = storageError(err)
		return AccessCode{}, err
	}
	s.metrics.AccessCodeGenerated(source)
	return code, nil
}

// generateCode draws a uniformly distributed zero-padded six digit code.
func generateCode(random io.Reader) (string, error) {
	n, err := rand.Int(random, big.NewInt(accessCodeSpace))
	if err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
