package application

import (
	"context"
	"log/slog"
	"time"
)

// AccessCodeRotator polls GetOrCreate on a fixed interval so an expired code is
// replaced within one interval of the rotation boundary.
type AccessCodeRotator struct {
	codes    *AccessCodeService
	interval time.Duration
	logger   *slog.Logger
}

// NewAccessCodeRotator constructs a rotator. Intervals below one second default to one minute.
func NewAccessCodeRotator(codes *AccessCodeService, interval time.Duration, logger *slog.Logger) *AccessCodeRotator {
	if interval < time.Second {
		interval = time.Minute
	}
	return &AccessCodeRotator{codes: codes, interval: interval, logger: defaultLogger(logger)}
}

// Run checks the code immediately and then on every tick until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (r *AccessCodeRotator) Run(ctx context.Context) error {
	logger := serviceLogger(ctx, r.logger, "AccessCodeRotator", "Run", "interval", r.interval.String())
	logger.InfoContext(ctx, "access code rotation started")

	r.tick(ctx, logger)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "access code rotation stopped")
			return nil
		case <-ticker.C:
			r.tick(ctx, logger)
		}
	}
}

func (r *AccessCodeRotator) tick(ctx context.Context, logger *slog.Logger) {
	if _, err := r.codes.GetOrCreate(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorContext(ctx, "access code check failed", "error", err, "error_kind", ErrorKind(err))
	}
}
