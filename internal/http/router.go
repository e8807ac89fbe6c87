package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Public        *PublicHandler
	Auth          *AuthHandler
	Days          *DayHandler
	Archive       *ArchiveHandler
	Configuration *ConfigurationHandler
	AccessCode    *AccessCodeHandler

	Sessions SessionValidator
	Health   HealthChecker
	Metrics  http.Handler
	Observer RequestObserver
	Logger   *slog.Logger
	// RequestTimeout bounds each request. Zero disables the limit.
	RequestTimeout time.Duration
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(Observe(cfg.Observer))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", healthHandler(cfg.Health, logger))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Public != nil {
			r.Get("/today", cfg.Public.Today)
			r.Post("/registrations", cfg.Public.Register)
		}
		if cfg.Auth != nil {
			r.Post("/sessions", cfg.Auth.CreateSession)
			r.Post("/sessions/supervisor", cfg.Auth.CreateSupervisorSession)
			r.Delete("/sessions/current", cfg.Auth.DeleteCurrentSession)
		}

		if cfg.Sessions == nil {
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(cfg.Sessions, logger))

			if cfg.Days != nil {
				r.Route("/days/{date}", func(r chi.Router) {
					r.Get("/", cfg.Days.Get)
					r.Post("/entries", cfg.Days.Append)
					r.Get("/export", cfg.Days.Export)
					r.Get("/statistics/export", cfg.Days.ExportStatistics)
					r.Patch("/{meal}/entries/{id}", cfg.Days.Update)
					r.Delete("/{meal}/entries/{id}", cfg.Days.Remove)
				})
			}

			if cfg.Archive != nil {
				r.Route("/archive/months", func(r chi.Router) {
					r.Get("/", cfg.Archive.Months)
					r.Get("/{month}", cfg.Archive.Summary)
					r.Get("/{month}/days", cfg.Archive.Days)
					r.Get("/{month}/export", cfg.Archive.Export)
				})
				r.Head("/archive/days/{date}", cfg.Archive.DayActivity)
			}

			if cfg.Configuration != nil {
				r.Get("/configuration", cfg.Configuration.Get)
				r.Put("/configuration", cfg.Configuration.Update)
			}

			if cfg.AccessCode != nil {
				r.Group(func(r chi.Router) {
					r.Use(RequireSupervisor(logger))
					r.Get("/access-code", cfg.AccessCode.Get)
					r.Post("/access-code/regenerate", cfg.AccessCode.Regenerate)
				})
			}
		})
	})

	return r
}

func healthHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	responder := newResponder(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Ping(r.Context()); err != nil {
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "health check failed", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}
