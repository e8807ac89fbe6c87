package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/export"
	"github.com/example/meal-roster/internal/roster"
	"github.com/example/meal-roster/internal/timerules"
)

type rosterService interface {
	Day(ctx context.Context, date string) (application.DayView, error)
	Append(ctx context.Context, params application.AppendParams) (application.AppendResult, error)
	Update(ctx context.Context, params application.UpdateParams) (roster.DayRecord, error)
	Remove(ctx context.Context, params application.RemoveParams) (roster.DayRecord, error)
}

// DayHandler serves the operator view of a single day and its exports.
type DayHandler struct {
	service   rosterService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewDayHandler builds the handler. Registration times in exports are shown in loc.
func NewDayHandler(service rosterService, loc *time.Location, logger *slog.Logger) *DayHandler {
	base := defaultLogger(logger)
	return &DayHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *DayHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DayHandler", operation, attrs...)
}

func (h *DayHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view, err := h.service.Day(r.Context(), dateParam(r.Context()))
	if err != nil {
		h.log(r.Context(), "Get").WarnContext(r.Context(), "day lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayDTO(view))
}

func (h *DayHandler) Append(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req appendRequest
	details, err := decodeJSON(r, &req)
	if err != nil {
		h.log(r.Context(), "Append", "session_id", principal.SessionID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode entrant", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if details != nil {
		h.responder.writeValidation(r.Context(), w, details)
		return
	}

	logger := h.log(r.Context(), "Append", "session_id", principal.SessionID)

	result, err := h.service.Append(r.Context(), application.AppendParams{
		Date:     dateParam(r.Context()),
		Selector: roster.MealSelector(strings.ToLower(strings.TrimSpace(req.Selector))),
		Entrant: application.EntrantInput{
			Name:       req.Name,
			ExternalID: req.ExternalID,
			Category:   roster.Category(req.Category),
			Rank:       roster.Rank(req.Rank),
			Notes:      req.Notes,
		},
	})
	if err != nil {
		logger.WarnContext(r.Context(), "append failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("date", result.Date, "entrant_id", result.Entrant.ID).InfoContext(r.Context(), "entrant appended")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, appendResponse{
		Date:       result.Date,
		Entrant:    toEntrantDTO(roster.MarkedEntrant{Entrant: result.Entrant}),
		Statistics: toStatisticsDTO(result.Record.Statistics),
	})
}

func (h *DayHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entrantID := chi.URLParam(r, "id")
	meal := mealParam(r)

	var req patchRequest
	details, err := decodeJSON(r, &req)
	if err != nil {
		h.log(r.Context(), "Update", "entrant_id", entrantID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode entrant patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if details != nil {
		h.responder.writeValidation(r.Context(), w, details)
		return
	}

	logger := h.log(r.Context(), "Update", "entrant_id", entrantID, "meal", meal)

	record, err := h.service.Update(r.Context(), application.UpdateParams{
		Date:      dateParam(r.Context()),
		EntrantID: entrantID,
		Meal:      meal,
		Patch:     req.toPatch(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entrant updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRecordDTO(record))
}

func (h *DayHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entrantID := chi.URLParam(r, "id")
	meal := mealParam(r)
	logger := h.log(r.Context(), "Remove", "entrant_id", entrantID, "meal", meal)

	record, err := h.service.Remove(r.Context(), application.RemoveParams{
		Date:      dateParam(r.Context()),
		EntrantID: entrantID,
		Meal:      meal,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "remove failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entrant removed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRecordDTO(record))
}

// Export downloads the day's lists grouped by category.
func (h *DayHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "Export", func(view application.DayView) (*export.Workbook, error) {
		return export.DayWorkbook(view.Date, unmark(view.Lunch), unmark(view.Dinner), h.location)
	})
}

// ExportStatistics downloads the day's category counts.
func (h *DayHandler) ExportStatistics(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "ExportStatistics", func(view application.DayView) (*export.Workbook, error) {
		return export.StatisticsWorkbook(view.Date, view.Statistics)
	})
}

func (h *DayHandler) export(w http.ResponseWriter, r *http.Request, operation string, render func(application.DayView) (*export.Workbook, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), operation)

	view, err := h.service.Day(r.Context(), dateParam(r.Context()))
	if err != nil {
		logger.WarnContext(r.Context(), "day lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	wb, err := render(view)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, fmt.Errorf("render workbook: %w", err))
		return
	}
	writeWorkbook(r.Context(), w, logger, wb)
}

func writeWorkbook(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, wb *export.Workbook) {
	defer func() {
		if err := wb.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close workbook", "error", err)
		}
	}()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", wb.Filename))
	w.WriteHeader(http.StatusOK)
	if err := wb.Write(w); err != nil {
		logger.ErrorContext(ctx, "failed to stream workbook", "error", err, "filename", wb.Filename)
		return
	}
	logger.InfoContext(ctx, "workbook exported", "filename", wb.Filename)
}

func mealParam(r *http.Request) roster.Meal {
	raw := chi.URLParam(r, "meal")
	if meal, ok := roster.ParseMeal(raw); ok {
		return meal
	}
	return roster.Meal(raw)
}

func unmark(entries []roster.MarkedEntrant) []roster.Entrant {
	out := make([]roster.Entrant, len(entries))
	for i, e := range entries {
		out[i] = e.Entrant
	}
	return out
}

type appendRequest struct {
	Selector   string `json:"selector" validate:"required,oneof=lunch dinner both"`
	Name       string `json:"name" validate:"max=120"`
	ExternalID string `json:"externalId" validate:"max=40"`
	Category   string `json:"category" validate:"max=40"`
	Rank       string `json:"rank" validate:"max=10"`
	Notes      string `json:"notes" validate:"max=500"`
}

type patchRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=120"`
	ExternalID *string `json:"externalId" validate:"omitempty,max=40"`
	Category   *string `json:"category" validate:"omitempty,max=40"`
	Rank       *string `json:"rank" validate:"omitempty,max=10"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

func (p patchRequest) toPatch() roster.EntrantPatch {
	patch := roster.EntrantPatch{
		Name:       p.Name,
		ExternalID: p.ExternalID,
		Notes:      p.Notes,
	}
	if p.Category != nil {
		category := roster.Category(*p.Category)
		patch.Category = &category
	}
	if p.Rank != nil {
		rank := roster.Rank(strings.ToLower(strings.TrimSpace(*p.Rank)))
		patch.Rank = &rank
	}
	return patch
}

type appendResponse struct {
	Date       string        `json:"date"`
	Entrant    entrantDTO    `json:"entrant"`
	Statistics statisticsDTO `json:"statistics"`
}

type entrantDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ExternalID    string `json:"externalId,omitempty"`
	Category      string `json:"category"`
	CategoryLabel string `json:"categoryLabel"`
	Rank          string `json:"rank"`
	RankLabel     string `json:"rankLabel"`
	Notes         string `json:"notes,omitempty"`
	RegisteredAt  string `json:"registeredAt"`
	IsDuplicate   bool   `json:"isDuplicate"`
}

func toEntrantDTO(e roster.MarkedEntrant) entrantDTO {
	return entrantDTO{
		ID:            e.ID,
		Name:          e.Name,
		ExternalID:    e.ExternalID,
		Category:      string(e.Category),
		CategoryLabel: e.Category.Label(),
		Rank:          string(e.Rank),
		RankLabel:     e.Rank.Label(),
		Notes:         e.Notes,
		RegisteredAt:  e.RegisteredAt.UTC().Format(time.RFC3339Nano),
		IsDuplicate:   e.IsDuplicate,
	}
}

func toEntrantDTOs(entries []roster.Entrant) []entrantDTO {
	out := make([]entrantDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntrantDTO(roster.MarkedEntrant{Entrant: e}))
	}
	return out
}

func toMarkedDTOs(entries []roster.MarkedEntrant) []entrantDTO {
	out := make([]entrantDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntrantDTO(e))
	}
	return out
}

type mealStatsDTO struct {
	Resident      int `json:"resident"`
	ExternalStaff int `json:"externalStaff"`
	PayingGuest   int `json:"payingGuest"`
	Total         int `json:"total"`
}

type statisticsDTO struct {
	Lunch   mealStatsDTO `json:"lunch"`
	Dinner  mealStatsDTO `json:"dinner"`
	Rations int          `json:"rations"`
}

func toStatisticsDTO(stats roster.Statistics) statisticsDTO {
	conv := func(m roster.MealStats) mealStatsDTO {
		return mealStatsDTO{
			Resident:      m.ResidentCount,
			ExternalStaff: m.ExternalStaffCount,
			PayingGuest:   m.PayingGuestCount,
			Total:         m.Total,
		}
	}
	return statisticsDTO{Lunch: conv(stats.Lunch), Dinner: conv(stats.Dinner), Rations: stats.Rations()}
}

type duplicatesDTO struct {
	Lunch  []string `json:"lunch"`
	Dinner []string `json:"dinner"`
}

type dayDTO struct {
	Date          string        `json:"date"`
	LongDate      string        `json:"longDate"`
	Exists        bool          `json:"exists"`
	Lunch         []entrantDTO  `json:"lunch"`
	Dinner        []entrantDTO  `json:"dinner"`
	Statistics    statisticsDTO `json:"statistics"`
	Duplicates    duplicatesDTO `json:"duplicates"`
	HasDuplicates bool          `json:"hasDuplicates"`
}

func toDayDTO(view application.DayView) dayDTO {
	return dayDTO{
		Date:       view.Date,
		LongDate:   timerules.LongDate(view.Date),
		Exists:     view.Exists,
		Lunch:      toMarkedDTOs(view.Lunch),
		Dinner:     toMarkedDTOs(view.Dinner),
		Statistics: toStatisticsDTO(view.Statistics),
		Duplicates: duplicatesDTO{
			Lunch:  nonNil(view.LunchDuplicates),
			Dinner: nonNil(view.DinnerDuplicates),
		},
		HasDuplicates: view.HasDuplicates(),
	}
}

type recordDTO struct {
	Date       string        `json:"date"`
	Lunch      []entrantDTO  `json:"lunch"`
	Dinner     []entrantDTO  `json:"dinner"`
	Statistics statisticsDTO `json:"statistics"`
}

func toRecordDTO(record roster.DayRecord) recordDTO {
	return recordDTO{
		Date:       record.Date,
		Lunch:      toMarkedDTOs(roster.MarkDuplicates(record.LunchEntries)),
		Dinner:     toMarkedDTOs(roster.MarkDuplicates(record.DinnerEntries)),
		Statistics: toStatisticsDTO(record.Statistics),
	}
}
