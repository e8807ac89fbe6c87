package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/meal-roster/internal/application"
)

var (
	errBadRequestBody      = errors.New("Formato de solicitud inválido.")
	errMissingSessionToken = errors.New("Debe iniciar sesión para continuar.")
	errSupervisorRequired  = errors.New("Esta acción requiere una sesión de encargado.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) writeValidation(ctx context.Context, w http.ResponseWriter, details map[string]string) {
	r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		ErrorCode: "VALIDATION_FAILED",
		Message:   localizedStatusMessage(http.StatusUnprocessableEntity),
		Errors:    details,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrAccessCodeMismatch):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_CODE_MISMATCH",
			Message:   "El código de acceso es incorrecto.",
		})
	case errors.Is(err, application.ErrAccessCodeExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_CODE_EXPIRED",
			Message:   "El código de acceso expiró. Solicite el código nuevo al encargado.",
		})
	case errors.Is(err, application.ErrNoCodeConfigured):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_NO_CODE",
			Message:   "Todavía no hay un código de acceso generado. Intente nuevamente en unos minutos.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "Credenciales incorrectas.",
		})
	case errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked),
		errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "La sesión no es válida. Inicie sesión nuevamente.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrStorageUnavailable):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "STORAGE_UNAVAILABLE",
			Message:   localizedStatusMessage(http.StatusServiceUnavailable),
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeValidation(ctx, w, localizeValidationErrors(vErr))
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "La solicitud no es válida."
	case http.StatusUnauthorized:
		return "Debe iniciar sesión para continuar."
	case http.StatusForbidden:
		return "No tiene permiso para realizar esta acción."
	case http.StatusNotFound:
		return "No se encontró el recurso solicitado."
	case http.StatusUnprocessableEntity:
		return "Los datos ingresados no son válidos."
	case http.StatusServiceUnavailable:
		return "El almacenamiento no está disponible. Intente nuevamente."
	default:
		return "Ocurrió un error interno en el servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "date must be YYYY-MM-DD":
		return "La fecha debe tener el formato AAAA-MM-DD."
	case "month must be YYYY-MM":
		return "El mes debe tener el formato AAAA-MM."
	case "meal selector is invalid":
		return "Seleccione almuerzo, cena o ambos."
	case "meal is invalid":
		return "La comida no es válida."
	case "entrant id is required":
		return "Indique el comensal a modificar."
	case "name is required":
		return "El nombre es obligatorio."
	case "name must be at least 3 characters":
		return "El nombre debe tener al menos 3 caracteres."
	case "rank is required":
		return "El grado es obligatorio."
	case "rank is invalid":
		return "El grado no es válido."
	case "category is required":
		return "La categoría es obligatoria."
	case "category is invalid":
		return "La categoría no es válida."
	case "at least one meal is required":
		return "Seleccione al menos una comida."
	case "lunch registration is closed":
		return "La inscripción para el almuerzo está cerrada."
	case "dinner registration is closed":
		return "La inscripción para la cena está cerrada."
	case "at least one person is required":
		return "Agregue al menos una persona."
	case "code is required":
		return "Ingrese el código de acceso."
	case "menu is required":
		return "El menú es obligatorio."
	case "plate cost must not be negative":
		return "El costo del plato no puede ser negativo."
	case "cutoff must be HH:MM":
		return "El horario límite debe tener el formato HH:MM."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"errorCode,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
