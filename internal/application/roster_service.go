package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/example/meal-roster/internal/locking"
	"github.com/example/meal-roster/internal/roster"
	"github.com/example/meal-roster/internal/timerules"
)

const minRegistrationNameLength = 3

// DayRecordRepository captures the persistence operations needed by the roster and archive services.
type DayRecordRepository interface {
	GetDayRecord(ctx context.Context, date string) (roster.DayRecord, error)
	UpdateDayRecord(ctx context.Context, date string, fn func(record *roster.DayRecord, exists bool) error) (roster.DayRecord, error)
	ListDayRecords(ctx context.Context) ([]roster.DayRecord, error)
	// ListDates returns every stored date key in ascending order.
	ListDates(ctx context.Context) ([]string, error)
}

// DateLocker serializes read-modify-write cycles on a single key.
type DateLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MealWindowProvider reports which meals accept public registrations right now.
type MealWindowProvider interface {
	MealWindows(ctx context.Context) (timerules.Windows, error)
}

// RosterOption customises a RosterService.
type RosterOption func(*RosterService)

// WithDateLocker replaces the in-process per-date lock.
func WithDateLocker(locker DateLocker) RosterOption {
	return func(s *RosterService) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithSummaryCache lets the roster invalidate memoized month summaries on change.
func WithSummaryCache(cache *SummaryCache) RosterOption {
	return func(s *RosterService) {
		s.summaries = cache
	}
}

// WithMetrics records roster mutations.
func WithMetrics(recorder MetricsRecorder) RosterOption {
	return func(s *RosterService) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithMealWindows sets the source of the public registration cutoffs.
func WithMealWindows(provider MealWindowProvider) RosterOption {
	return func(s *RosterService) {
		if provider != nil {
			s.windows = provider
		}
	}
}

// RosterService keeps the per-date lunch and dinner lists and their statistics.
type RosterService struct {
	records     DayRecordRepository
	rules       *timerules.Rules
	idGenerator func() string
	locker      DateLocker
	summaries   *SummaryCache
	metrics     MetricsRecorder
	windows     MealWindowProvider
	logger      *slog.Logger
}

// NewRosterService constructs a roster service with the provided dependencies.
func NewRosterService(records DayRecordRepository, rules *timerules.Rules, idGenerator func() string, opts ...RosterOption) *RosterService {
	return NewRosterServiceWithLogger(records, rules, idGenerator, nil, opts...)
}

// NewRosterServiceWithLogger constructs a roster service with a specified logger.
func NewRosterServiceWithLogger(records DayRecordRepository, rules *timerules.Rules, idGenerator func() string, logger *slog.Logger, opts ...RosterOption) *RosterService {
	if rules == nil {
		rules = timerules.New(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	s := &RosterService{
		records:     records,
		rules:       rules,
		idGenerator: idGenerator,
		locker:      locking.NewKeyedMutex(),
		metrics:     noopMetrics{},
		logger:      defaultLogger(logger),
	}
	s.windows = defaultWindows{rules: rules}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RosterService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RosterService", operation, attrs...)
}

// Get returns the stored record for date. A missing record is reported with exists=false and no error.
func (s *RosterService) Get(ctx context.Context, date string) (record roster.DayRecord, exists bool, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("day record repository not configured")
		return
	}

	date, err = s.resolveDate(date, s.rules.Today)
	if err != nil {
		return
	}

	record, err = s.records.GetDayRecord(ctx, date)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return roster.DayRecord{}, false, nil
		}
		err = storageError(err)
		s.loggerWith(ctx, "Get", "date", date).ErrorContext(ctx, "failed to load day record", "error", err, "error_kind", ErrorKind(err))
		return
	}
	return record, true, nil
}

// Day returns the record for date prepared for display, with duplicate names flagged.
func (s *RosterService) Day(ctx context.Context, date string) (view DayView, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}

	date, err = s.resolveDate(date, s.rules.Today)
	if err != nil {
		return
	}

	record, exists, err := s.Get(ctx, date)
	if err != nil {
		return DayView{}, err
	}
	if !exists {
		record = roster.NewDayRecord(date)
	}

	view = DayView{
		Date:             date,
		Exists:           exists,
		Lunch:            roster.MarkDuplicates(record.LunchEntries),
		Dinner:           roster.MarkDuplicates(record.DinnerEntries),
		Statistics:       record.Statistics,
		LunchDuplicates:  roster.FindDuplicateNames(record.LunchEntries),
		DinnerDuplicates: roster.FindDuplicateNames(record.DinnerEntries),
	}
	return view, nil
}

// Append adds one entrant to the lists named by the selector. With SelectBoth the
// same id lands in both lists. The record is created when absent.
func (s *RosterService) Append(ctx context.Context, params AppendParams) (result AppendResult, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("day record repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Append",
		"date", params.Date,
		"selector", params.Selector,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to append entrant", "entrant appended",
			"effective_date", result.Date, "entrant_id", result.Entrant.ID)
	}()

	date, err := s.resolveDate(params.Date, s.rules.EffectiveRegistrationDate)
	if err != nil {
		return
	}

	vErr := &ValidationError{}
	meals := params.Selector.Meals()
	if len(meals) == 0 {
		vErr.add("selector", "meal selector is invalid")
	}
	if strings.TrimSpace(params.Entrant.Name) == "" {
		vErr.add("name", "name is required")
	}
	if params.Entrant.Rank != "" && !params.Entrant.Rank.Valid() {
		vErr.add("rank", "rank is invalid")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	// Generated outside the update callback, which the repository may retry.
	entrant := s.newEntrant(params.Entrant)

	record, err := s.mutate(ctx, date, func(record *roster.DayRecord, _ bool) error {
		for _, meal := range meals {
			record.SetEntries(meal, append(record.Entries(meal), entrant))
		}
		return nil
	})
	if err != nil {
		return
	}

	for _, meal := range meals {
		s.metrics.EntrantsAdded("operator", meal, 1)
	}
	result = AppendResult{Date: date, Entrant: entrant, Record: record}
	return
}

// Register files a batch of public registrations under the effective registration
// date. Every person is validated before anything is written.
func (s *RosterService) Register(ctx context.Context, params RegisterParams) (result RegisterResult, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("day record repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Register", "people", len(params.People))
	defer func() {
		logOutcome(ctx, logger, err, "failed to register people", "people registered",
			"date", result.Date, "entrants", len(result.Entrants))
	}()

	var windows timerules.Windows
	windows, err = s.windows.MealWindows(ctx)
	if err != nil {
		return
	}

	vErr := validateRegistrations(params.People, windows)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	date := s.rules.EffectiveRegistrationDate()

	type pending struct {
		entrant roster.Entrant
		meals   []roster.Meal
	}
	batch := make([]pending, 0, len(params.People))
	for _, person := range params.People {
		input := person.EntrantInput
		input.Category = input.Category.Normalize()
		batch = append(batch, pending{
			entrant: s.newEntrant(input),
			meals:   roster.SelectorFor(person.Lunch, person.Dinner).Meals(),
		})
	}

	var already []string
	_, err = s.mutate(ctx, date, func(record *roster.DayRecord, _ bool) error {
		already = already[:0]
		seen := make(map[string]struct{})
		for _, p := range batch {
			for _, meal := range p.meals {
				if roster.ContainsName(record.Entries(meal), p.entrant.Name) {
					key := roster.NormalizeName(p.entrant.Name)
					if _, ok := seen[key]; !ok {
						seen[key] = struct{}{}
						already = append(already, key)
					}
				}
			}
		}
		for _, p := range batch {
			for _, meal := range p.meals {
				record.SetEntries(meal, append(record.Entries(meal), p.entrant))
			}
		}
		return nil
	})
	if err != nil {
		return
	}

	result = RegisterResult{Date: date, AlreadyListed: already}
	for _, p := range batch {
		result.Entrants = append(result.Entrants, p.entrant)
		for _, meal := range p.meals {
			s.metrics.EntrantsAdded("public", meal, 1)
		}
	}
	return
}

// Remove deletes the entrant from one meal list. A missing record is ErrNotFound;
// a missing id leaves the record unchanged.
func (s *RosterService) Remove(ctx context.Context, params RemoveParams) (record roster.DayRecord, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("day record repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Remove",
		"date", params.Date,
		"meal", params.Meal,
		"entrant_id", params.EntrantID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to remove entrant", "entrant removed")
	}()

	date, err := s.resolveDate(params.Date, s.rules.Today)
	if err != nil {
		return
	}
	if vErr := validateEntryRef(params.Meal, params.EntrantID); vErr.HasErrors() {
		err = vErr
		return
	}

	removed := false
	record, err = s.mutate(ctx, date, func(record *roster.DayRecord, exists bool) error {
		if !exists {
			return ErrNotFound
		}
		var entries []roster.Entrant
		entries, removed = roster.RemoveByID(record.Entries(params.Meal), params.EntrantID)
		record.SetEntries(params.Meal, entries)
		return nil
	})
	if err != nil {
		return
	}
	if removed {
		s.metrics.EntrantRemoved(params.Meal)
	}
	return
}

// Update merges a partial patch into the matching entry of one meal list. The
// same id in the sibling list is left as is.
func (s *RosterService) Update(ctx context.Context, params UpdateParams) (record roster.DayRecord, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.records == nil {
		err = fmt.Errorf("day record repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update",
		"date", params.Date,
		"meal", params.Meal,
		"entrant_id", params.EntrantID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update entrant", "entrant updated")
	}()

	date, err := s.resolveDate(params.Date, s.rules.Today)
	if err != nil {
		return
	}
	vErr := validateEntryRef(params.Meal, params.EntrantID)
	if params.Patch.Name != nil && strings.TrimSpace(*params.Patch.Name) == "" {
		vErr.add("name", "name is required")
	}
	if params.Patch.Rank != nil && !params.Patch.Rank.Valid() {
		vErr.add("rank", "rank is invalid")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	// Nothing to change: report the stored record without a write.
	if params.Patch.IsEmpty() {
		record, err = s.records.GetDayRecord(ctx, date)
		if err != nil && !errors.Is(err, ErrNotFound) {
			err = storageError(err)
		}
		return
	}

	updated := false
	record, err = s.mutate(ctx, date, func(record *roster.DayRecord, exists bool) error {
		if !exists {
			return ErrNotFound
		}
		entries := record.Entries(params.Meal)
		updated = params.Patch.ApplyTo(entries, params.EntrantID)
		record.SetEntries(params.Meal, entries)
		return nil
	})
	if err != nil {
		return
	}
	if updated {
		s.metrics.EntrantUpdated(params.Meal)
	}
	return
}

// mutate runs fn under the per-date lock, recomputes statistics and persists.
func (s *RosterService) mutate(ctx context.Context, date string, fn func(record *roster.DayRecord, exists bool) error) (roster.DayRecord, error) {
	unlock, err := s.locker.Lock(ctx, "day:"+date)
	if err != nil {
		return roster.DayRecord{}, storageError(err)
	}
	defer unlock()

	record, err := s.records.UpdateDayRecord(ctx, date, func(record *roster.DayRecord, exists bool) error {
		if !exists {
			*record = roster.NewDayRecord(date)
		}
		if err := fn(record, exists); err != nil {
			return err
		}
		record.Date = date
		record.Recompute()
		return nil
	})
	if err != nil {
		return roster.DayRecord{}, mapRosterError(err)
	}

	s.summaries.InvalidateMonth(timerules.MonthOf(date))
	s.warnUncategorized(ctx, record)
	return record, nil
}

func (s *RosterService) warnUncategorized(ctx context.Context, record roster.DayRecord) {
	for _, meal := range []roster.Meal{roster.MealLunch, roster.MealDinner} {
		for _, e := range roster.Uncategorized(record.Entries(meal)) {
			s.loggerWith(ctx, "Recompute").WarnContext(ctx, "entrant has unknown category",
				"date", record.Date,
				"meal", meal,
				"entrant_id", e.ID,
				"category", e.Category,
			)
		}
	}
}

func (s *RosterService) newEntrant(input EntrantInput) roster.Entrant {
	rank := input.Rank
	if rank == "" {
		rank = roster.DefaultRank
	}
	return roster.Entrant{
		ID:           s.idGenerator(),
		Name:         strings.TrimSpace(input.Name),
		ExternalID:   strings.TrimSpace(input.ExternalID),
		Category:     input.Category.Normalize(),
		Rank:         rank,
		Notes:        strings.TrimSpace(input.Notes),
		RegisteredAt: s.rules.Now(),
	}
}

// resolveDate validates date, falling back to the provided default when empty.
func (s *RosterService) resolveDate(date string, fallback func() string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return fallback(), nil
	}
	if _, err := timerules.ParseDate(date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be YYYY-MM-DD")
		return "", vErr
	}
	return date, nil
}

func validateEntryRef(meal roster.Meal, entrantID string) *ValidationError {
	vErr := &ValidationError{}
	if !meal.Valid() {
		vErr.add("meal", "meal is invalid")
	}
	if strings.TrimSpace(entrantID) == "" {
		vErr.add("entrantId", "entrant id is required")
	}
	return vErr
}

func validateRegistrations(people []RegistrationInput, windows timerules.Windows) *ValidationError {
	vErr := &ValidationError{}
	if len(people) == 0 {
		vErr.add("people", "at least one person is required")
		return vErr
	}
	for i, person := range people {
		vErr.merge(fmt.Sprintf("people[%d].", i), validateRegistration(person, windows))
	}
	return vErr
}

func validateRegistration(person RegistrationInput, windows timerules.Windows) *ValidationError {
	vErr := &ValidationError{}

	name := strings.TrimSpace(person.Name)
	switch {
	case name == "":
		vErr.add("name", "name is required")
	case utf8.RuneCountInString(name) < minRegistrationNameLength:
		vErr.add("name", "name must be at least 3 characters")
	}

	switch {
	case person.Rank == "":
		vErr.add("rank", "rank is required")
	case !person.Rank.Valid():
		vErr.add("rank", "rank is invalid")
	}

	switch {
	case person.Category.Normalize() == "":
		vErr.add("category", "category is required")
	case !person.Category.Valid():
		vErr.add("category", "category is invalid")
	}

	if !person.Lunch && !person.Dinner {
		vErr.add("meals", "at least one meal is required")
	}
	if person.Lunch && !windows.LunchOpen {
		vErr.add("lunch", "lunch registration is closed")
	}
	if person.Dinner && !windows.DinnerOpen {
		vErr.add("dinner", "dinner registration is closed")
	}
	return vErr
}

func mapRosterError(err error) error {
	var vErr *ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrStorageUnavailable), errors.As(err, &vErr):
		return err
	}
	return storageError(err)
}

func storageError(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// defaultWindows applies the stock cutoffs when no configuration source is wired.
type defaultWindows struct {
	rules *timerules.Rules
}

func (d defaultWindows) MealWindows(context.Context) (timerules.Windows, error) {
	return d.rules.MealWindows(DefaultLunchCutoff, DefaultDinnerCutoff), nil
}
