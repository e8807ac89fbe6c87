package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/roster"
	"github.com/example/meal-roster/internal/timerules"
)

type todayService interface {
	Today(ctx context.Context) (application.TodayInfo, error)
}

type registrationService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.RegisterResult, error)
}

// PublicHandler serves the unauthenticated registration page endpoints.
type PublicHandler struct {
	today     todayService
	roster    registrationService
	responder responder
	logger    *slog.Logger
}

func NewPublicHandler(today todayService, roster registrationService, logger *slog.Logger) *PublicHandler {
	base := defaultLogger(logger)
	return &PublicHandler{today: today, roster: roster, responder: newResponder(base), logger: base}
}

func (h *PublicHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PublicHandler", operation, attrs...)
}

func (h *PublicHandler) Today(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.today == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	info, err := h.today.Today(r.Context())
	if err != nil {
		h.log(r.Context(), "Today").ErrorContext(r.Context(), "failed to load today", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTodayDTO(info))
}

func (h *PublicHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.roster == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	details, err := decodeJSON(r, &req)
	if err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode registration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if details != nil {
		h.responder.writeValidation(r.Context(), w, details)
		return
	}

	logger := h.log(r.Context(), "Register", "people", len(req.People))

	result, err := h.roster.Register(r.Context(), req.toParams())
	if err != nil {
		logger.WarnContext(r.Context(), "registration rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("date", result.Date, "entrants", len(result.Entrants)).InfoContext(r.Context(), "registration accepted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, registerResponse{
		Date:          result.Date,
		LongDate:      timerules.LongDate(result.Date),
		Entrants:      toEntrantDTOs(result.Entrants),
		AlreadyListed: nonNil(result.AlreadyListed),
	})
}

type personRequest struct {
	Name       string `json:"name" validate:"max=120"`
	ExternalID string `json:"externalId" validate:"max=40"`
	Category   string `json:"category" validate:"max=40"`
	Rank       string `json:"rank" validate:"max=10"`
	Notes      string `json:"notes" validate:"max=500"`
	Lunch      bool   `json:"lunch"`
	Dinner     bool   `json:"dinner"`
}

type registerRequest struct {
	People []personRequest `json:"people" validate:"max=50,dive"`
}

func (r registerRequest) toParams() application.RegisterParams {
	people := make([]application.RegistrationInput, 0, len(r.People))
	for _, p := range r.People {
		people = append(people, application.RegistrationInput{
			EntrantInput: application.EntrantInput{
				Name:       p.Name,
				ExternalID: p.ExternalID,
				Category:   roster.Category(p.Category),
				Rank:       roster.Rank(p.Rank),
				Notes:      p.Notes,
			},
			Lunch:  p.Lunch,
			Dinner: p.Dinner,
		})
	}
	return application.RegisterParams{People: people}
}

type registerResponse struct {
	Date          string       `json:"date"`
	LongDate      string       `json:"longDate"`
	Entrants      []entrantDTO `json:"entrants"`
	AlreadyListed []string     `json:"alreadyListed"`
}

type todayDTO struct {
	Date         string `json:"date"`
	LongDate     string `json:"longDate"`
	LunchMenu    string `json:"lunchMenu"`
	DinnerMenu   string `json:"dinnerMenu"`
	PlateCost    string `json:"plateCost"`
	LunchCutoff  string `json:"lunchCutoff"`
	DinnerCutoff string `json:"dinnerCutoff"`
	LunchOpen    bool   `json:"lunchOpen"`
	DinnerOpen   bool   `json:"dinnerOpen"`
	LateNight    bool   `json:"lateNight"`
}

func toTodayDTO(info application.TodayInfo) todayDTO {
	return todayDTO{
		Date:         info.Date,
		LongDate:     timerules.LongDate(info.Date),
		LunchMenu:    info.Configuration.LunchMenu,
		DinnerMenu:   info.Configuration.DinnerMenu,
		PlateCost:    info.Configuration.PlateCost.StringFixed(2),
		LunchCutoff:  info.Configuration.LunchCutoff,
		DinnerCutoff: info.Configuration.DinnerCutoff,
		LunchOpen:    info.Windows.LunchOpen,
		DinnerOpen:   info.Windows.DinnerOpen,
		LateNight:    info.Windows.LateNight,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
