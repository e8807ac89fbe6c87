package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/meal-roster/internal/roster"
	"github.com/example/meal-roster/internal/timerules"
)

// ArchiveService answers historical questions over every stored day record.
// There is no month index; month and day listings enumerate the stored date keys
// and summaries scan the full records.
type ArchiveService struct {
	records   DayRecordRepository
	summaries *SummaryCache
	logger    *slog.Logger
}

// NewArchiveService constructs an archive service. A nil cache disables memoization.
func NewArchiveService(records DayRecordRepository, summaries *SummaryCache) *ArchiveService {
	return NewArchiveServiceWithLogger(records, summaries, nil)
}

// NewArchiveServiceWithLogger constructs an archive service with a specified logger.
func NewArchiveServiceWithLogger(records DayRecordRepository, summaries *SummaryCache, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{records: records, summaries: summaries, logger: defaultLogger(logger)}
}

func (s *ArchiveService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ArchiveService", operation, attrs...)
}

// ListActiveMonths returns every month holding at least one record, newest first.
func (s *ArchiveService) ListActiveMonths(ctx context.Context) (months []MonthOption, err error) {
	if s == nil {
		err = fmt.Errorf("ArchiveService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListActiveMonths")
	defer func() {
		logOutcome(ctx, logger, err, "failed to list active months", "active months listed", "months", len(months))
	}()

	dates, err := s.dates(ctx)
	if err != nil {
		return
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, date := range dates {
		month := timerules.MonthOf(date)
		if month == "" {
			continue
		}
		if _, ok := seen[month]; ok {
			continue
		}
		seen[month] = struct{}{}
		keys = append(keys, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	months = make([]MonthOption, 0, len(keys))
	for _, month := range keys {
		months = append(months, MonthOption{Month: month, Label: timerules.MonthLabel(month)})
	}
	return months, nil
}

// ListActiveDays returns the dates of month that hold a record, oldest first.
func (s *ArchiveService) ListActiveDays(ctx context.Context, month string) (days []string, err error) {
	if s == nil {
		err = fmt.Errorf("ArchiveService is nil")
		return
	}

	month, err = validateMonth(month)
	if err != nil {
		return
	}

	dates, err := s.dates(ctx)
	if err != nil {
		return
	}

	days = []string{}
	for _, date := range dates {
		if timerules.MonthOf(date) == month {
			days = append(days, date)
		}
	}
	sort.Strings(days)
	return days, nil
}

// SummarizeMonth aggregates the lunch and dinner totals of every day in month.
// Days are ordered newest first.
func (s *ArchiveService) SummarizeMonth(ctx context.Context, month string) (summary MonthSummary, err error) {
	if s == nil {
		err = fmt.Errorf("ArchiveService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SummarizeMonth", "month", month)
	defer func() {
		logOutcome(ctx, logger, err, "failed to summarize month", "month summarized",
			"days", len(summary.Days), "rations", summary.TotalRations)
	}()

	month, err = validateMonth(month)
	if err != nil {
		return
	}

	cached, generation, ok := s.summaries.Get(month)
	if ok {
		return cached, nil
	}

	records, err := s.scan(ctx)
	if err != nil {
		return
	}

	summary = MonthSummary{Month: month, Label: timerules.MonthLabel(month), Days: []DaySummary{}}
	for _, record := range records {
		if timerules.MonthOf(record.Date) != month {
			continue
		}
		day := summarizeDay(record)
		summary.Days = append(summary.Days, day)
		summary.TotalLunch += day.Lunch
		summary.TotalDinner += day.Dinner
	}
	summary.TotalRations = summary.TotalLunch + summary.TotalDinner
	sort.Slice(summary.Days, func(i, j int) bool {
		return summary.Days[i].Date > summary.Days[j].Date
	})

	s.summaries.Store(summary, generation)
	return summary, nil
}

// DayHasActivity reports whether a record is stored for date, even an empty one.
func (s *ArchiveService) DayHasActivity(ctx context.Context, date string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("ArchiveService is nil")
	}
	if s.records == nil {
		return false, fmt.Errorf("day record repository not configured")
	}
	if _, err := timerules.ParseDate(date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be YYYY-MM-DD")
		return false, vErr
	}

	_, err := s.records.GetDayRecord(ctx, strings.TrimSpace(date))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	}
	return false, storageError(err)
}

func (s *ArchiveService) dates(ctx context.Context) ([]string, error) {
	if s.records == nil {
		return nil, fmt.Errorf("day record repository not configured")
	}
	dates, err := s.records.ListDates(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return dates, nil
}

func (s *ArchiveService) scan(ctx context.Context) ([]roster.DayRecord, error) {
	if s.records == nil {
		return nil, fmt.Errorf("day record repository not configured")
	}
	records, err := s.records.ListDayRecords(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return records, nil
}

func summarizeDay(record roster.DayRecord) DaySummary {
	lunch := record.Statistics.Lunch.Total
	dinner := record.Statistics.Dinner.Total
	return DaySummary{Date: record.Date, Lunch: lunch, Dinner: dinner, Total: lunch + dinner}
}

func validateMonth(month string) (string, error) {
	month = strings.TrimSpace(month)
	if _, err := timerules.ParseMonth(month); err != nil {
		vErr := &ValidationError{}
		vErr.add("month", "month must be YYYY-MM")
		return "", vErr
	}
	return month, nil
}
