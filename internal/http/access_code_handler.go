package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meal-roster/internal/application"
)

type accessCodeService interface {
	Info(ctx context.Context) (application.AccessCodeInfo, error)
	Regenerate(ctx context.Context) (application.AccessCode, error)
}

// AccessCodeHandler exposes the daily code to supervisors.
type AccessCodeHandler struct {
	service   accessCodeService
	responder responder
	logger    *slog.Logger
}

func NewAccessCodeHandler(service accessCodeService, logger *slog.Logger) *AccessCodeHandler {
	base := defaultLogger(logger)
	return &AccessCodeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AccessCodeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AccessCodeHandler", operation, attrs...)
}

func (h *AccessCodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	info, err := h.service.Info(r.Context())
	if err != nil {
		h.log(r.Context(), "Get").ErrorContext(r.Context(), "access code lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAccessCodeDTO(info))
}

func (h *AccessCodeHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Regenerate", "session_id", principal.SessionID)

	code, err := h.service.Regenerate(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "access code regeneration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "access code regenerated")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAccessCodeDTO(application.AccessCodeInfo{AccessCode: code, IsNew: true}))
}

type accessCodeDTO struct {
	Code        string `json:"code"`
	GeneratedAt string `json:"generatedAt"`
	GeneratedBy string `json:"generatedBy"`
	IsNew       bool   `json:"isNew"`
}

func toAccessCodeDTO(info application.AccessCodeInfo) accessCodeDTO {
	return accessCodeDTO{
		Code:        info.Code,
		GeneratedAt: info.GeneratedAt.UTC().Format(time.RFC3339Nano),
		GeneratedBy: string(info.GeneratedBy),
		IsNew:       info.IsNew,
	}
}
