package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/logging"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger attaches the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// dateParam reads the {date} path segment. "today" maps to the empty string so
// the service applies its own default.
func dateParam(ctx context.Context) string {
	value := strings.TrimSpace(chi.URLParamFromCtx(ctx, "date"))
	if strings.EqualFold(value, "today") {
		return ""
	}
	return value
}
