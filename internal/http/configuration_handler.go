package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/meal-roster/internal/application"
)

type configurationService interface {
	Get(ctx context.Context) (application.Configuration, error)
	Update(ctx context.Context, patch application.ConfigurationPatch) (application.Configuration, error)
}

type ConfigurationHandler struct {
	service   configurationService
	responder responder
	logger    *slog.Logger
}

func NewConfigurationHandler(service configurationService, logger *slog.Logger) *ConfigurationHandler {
	base := defaultLogger(logger)
	return &ConfigurationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ConfigurationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ConfigurationHandler", operation, attrs...)
}

func (h *ConfigurationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	cfg, err := h.service.Get(r.Context())
	if err != nil {
		h.log(r.Context(), "Get").ErrorContext(r.Context(), "configuration lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConfigurationDTO(cfg))
}

func (h *ConfigurationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req configurationRequest
	details, err := decodeJSON(r, &req)
	if err != nil {
		h.log(r.Context(), "Update", "session_id", principal.SessionID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode configuration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if details != nil {
		h.responder.writeValidation(r.Context(), w, details)
		return
	}

	logger := h.log(r.Context(), "Update", "session_id", principal.SessionID)

	cfg, err := h.service.Update(r.Context(), application.ConfigurationPatch{
		LunchMenu:    req.LunchMenu,
		DinnerMenu:   req.DinnerMenu,
		PlateCost:    req.PlateCost,
		LunchCutoff:  req.LunchCutoff,
		DinnerCutoff: req.DinnerCutoff,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "configuration update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "configuration updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConfigurationDTO(cfg))
}

type configurationRequest struct {
	LunchMenu    *string          `json:"lunchMenu" validate:"omitempty,max=500"`
	DinnerMenu   *string          `json:"dinnerMenu" validate:"omitempty,max=500"`
	PlateCost    *decimal.Decimal `json:"plateCost"`
	LunchCutoff  *string          `json:"lunchCutoff" validate:"omitempty,max=5"`
	DinnerCutoff *string          `json:"dinnerCutoff" validate:"omitempty,max=5"`
}

type configurationDTO struct {
	LunchMenu    string `json:"lunchMenu"`
	DinnerMenu   string `json:"dinnerMenu"`
	PlateCost    string `json:"plateCost"`
	LunchCutoff  string `json:"lunchCutoff"`
	DinnerCutoff string `json:"dinnerCutoff"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

func toConfigurationDTO(cfg application.Configuration) configurationDTO {
	dto := configurationDTO{
		LunchMenu:    cfg.LunchMenu,
		DinnerMenu:   cfg.DinnerMenu,
		PlateCost:    cfg.PlateCost.StringFixed(2),
		LunchCutoff:  cfg.LunchCutoff,
		DinnerCutoff: cfg.DinnerCutoff,
	}
	if !cfg.UpdatedAt.IsZero() {
		dto.UpdatedAt = cfg.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}
