package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/export"
)

type archiveService interface {
	ListActiveMonths(ctx context.Context) ([]application.MonthOption, error)
	ListActiveDays(ctx context.Context, month string) ([]string, error)
	SummarizeMonth(ctx context.Context, month string) (application.MonthSummary, error)
	DayHasActivity(ctx context.Context, date string) (bool, error)
}

// ArchiveHandler serves the historical month views.
type ArchiveHandler struct {
	service   archiveService
	responder responder
	logger    *slog.Logger
}

func NewArchiveHandler(service archiveService, logger *slog.Logger) *ArchiveHandler {
	base := defaultLogger(logger)
	return &ArchiveHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ArchiveHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ArchiveHandler", operation, attrs...)
}

func (h *ArchiveHandler) Months(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	months, err := h.service.ListActiveMonths(r.Context())
	if err != nil {
		h.log(r.Context(), "Months").ErrorContext(r.Context(), "month listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]monthDTO, 0, len(months))
	for _, m := range months {
		out = append(out, monthDTO{Month: m.Month, Label: m.Label})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthsResponse{Months: out})
}

func (h *ArchiveHandler) Days(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	month := chi.URLParam(r, "month")
	days, err := h.service.ListActiveDays(r.Context(), month)
	if err != nil {
		h.log(r.Context(), "Days", "month", month).WarnContext(r.Context(), "day listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, daysResponse{Month: month, Days: nonNil(days)})
}

func (h *ArchiveHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	month := chi.URLParam(r, "month")
	summary, err := h.service.SummarizeMonth(r.Context(), month)
	if err != nil {
		h.log(r.Context(), "Summary", "month", month).WarnContext(r.Context(), "month summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthSummaryDTO(summary))
}

// DayActivity answers HEAD requests: 204 when a record is stored for the date,
// even an empty one, and 404 otherwise.
func (h *ArchiveHandler) DayActivity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := chi.URLParam(r, "date")
	active, err := h.service.DayHasActivity(r.Context(), date)
	if err != nil {
		h.log(r.Context(), "DayActivity", "date", date).WarnContext(r.Context(), "day activity check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !active {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export downloads the month summary as a workbook.
func (h *ArchiveHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	month := chi.URLParam(r, "month")
	logger := h.log(r.Context(), "Export", "month", month)

	summary, err := h.service.SummarizeMonth(r.Context(), month)
	if err != nil {
		logger.WarnContext(r.Context(), "month summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	days := make([]export.DayTotals, 0, len(summary.Days))
	for _, d := range summary.Days {
		days = append(days, export.DayTotals{Date: d.Date, Lunch: d.Lunch, Dinner: d.Dinner, Total: d.Total})
	}
	wb, err := export.MonthWorkbook(summary.Month, days)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, fmt.Errorf("render workbook: %w", err))
		return
	}
	writeWorkbook(r.Context(), w, logger, wb)
}

type monthDTO struct {
	Month string `json:"month"`
	Label string `json:"label"`
}

type monthsResponse struct {
	Months []monthDTO `json:"months"`
}

type daysResponse struct {
	Month string   `json:"month"`
	Days  []string `json:"days"`
}

type daySummaryDTO struct {
	Date   string `json:"date"`
	Lunch  int    `json:"lunch"`
	Dinner int    `json:"dinner"`
	Total  int    `json:"total"`
}

type monthSummaryDTO struct {
	Month        string          `json:"month"`
	Label        string          `json:"label"`
	Days         []daySummaryDTO `json:"days"`
	TotalLunch   int             `json:"totalLunch"`
	TotalDinner  int             `json:"totalDinner"`
	TotalRations int             `json:"totalRations"`
}

func toMonthSummaryDTO(summary application.MonthSummary) monthSummaryDTO {
	days := make([]daySummaryDTO, 0, len(summary.Days))
	for _, d := range summary.Days {
		days = append(days, daySummaryDTO{Date: d.Date, Lunch: d.Lunch, Dinner: d.Dinner, Total: d.Total})
	}
	return monthSummaryDTO{
		Month:        summary.Month,
		Label:        summary.Label,
		Days:         days,
		TotalLunch:   summary.TotalLunch,
		TotalDinner:  summary.TotalDinner,
		TotalRations: summary.TotalRations,
	}
}
