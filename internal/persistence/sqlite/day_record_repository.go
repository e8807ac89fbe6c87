package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/meal-roster/internal/persistence"
	"github.com/example/meal-roster/internal/roster"
)

// DayRecordRepository implements persistence.DayRecordRepository using SQLite.
// Entrant lists and statistics are stored as JSON columns.
type DayRecordRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

// NewDayRecordRepository creates a new SQLite day record repository
func NewDayRecordRepository(pool *ConnectionPool) *DayRecordRepository {
	return &DayRecordRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
		now:    time.Now,
	}
}

const selectDayRecord = `
	SELECT date, lunch_entries, dinner_entries, statistics
	FROM day_records
`

// GetDayRecord returns the record stored for date.
func (r *DayRecordRepository) GetDayRecord(ctx context.Context, date string) (roster.DayRecord, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return roster.DayRecord{}, persistence.ErrNotFound
	}
	record, err := scanDayRecord(r.helper.QueryRow(ctx, selectDayRecord+" WHERE date = ?", date))
	if err != nil {
		return roster.DayRecord{}, r.mapper.MapError(err)
	}
	return record, nil
}

// SaveDayRecord inserts or replaces the record stored for record.Date.
func (r *DayRecordRepository) SaveDayRecord(ctx context.Context, record roster.DayRecord) error {
	if strings.TrimSpace(record.Date) == "" {
		return persistence.ErrConstraintViolation
	}
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return r.upsertTx(ctx, tx, record)
		})
	})
}

// UpdateDayRecord reads, mutates and writes the record for date in one transaction.
func (r *DayRecordRepository) UpdateDayRecord(ctx context.Context, date string, fn func(record *roster.DayRecord, exists bool) error) (roster.DayRecord, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return roster.DayRecord{}, persistence.ErrConstraintViolation
	}

	var result roster.DayRecord
	err := r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			working, err := scanDayRecord(r.helper.QueryRowTx(ctx, tx, selectDayRecord+" WHERE date = ?", date))
			exists := true
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return r.mapper.MapError(err)
				}
				exists = false
				working = roster.NewDayRecord(date)
			}

			if err := fn(&working, exists); err != nil {
				return err
			}
			working.Date = date

			if err := r.upsertTx(ctx, tx, working); err != nil {
				return err
			}
			result = working
			return nil
		})
	})
	if err != nil {
		return roster.DayRecord{}, err
	}
	return result, nil
}

// ListDates returns every stored date key ascending.
func (r *DayRecordRepository) ListDates(ctx context.Context) ([]string, error) {
	rows, err := r.helper.Query(ctx, `SELECT date FROM day_records ORDER BY date ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, r.mapper.MapError(err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return dates, nil
}

// ListDayRecords returns every stored record ordered by date.
func (r *DayRecordRepository) ListDayRecords(ctx context.Context) ([]roster.DayRecord, error) {
	rows, err := r.helper.Query(ctx, selectDayRecord+" ORDER BY date ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []roster.DayRecord
	for rows.Next() {
		record, err := scanDayRecord(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

func (r *DayRecordRepository) upsertTx(ctx context.Context, tx *sql.Tx, record roster.DayRecord) error {
	lunch, err := json.Marshal(nonNilEntries(record.LunchEntries))
	if err != nil {
		return fmt.Errorf("failed to encode lunch entries: %w", err)
	}
	dinner, err := json.Marshal(nonNilEntries(record.DinnerEntries))
	if err != nil {
		return fmt.Errorf("failed to encode dinner entries: %w", err)
	}
	stats, err := json.Marshal(record.Statistics)
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}

	_, err = r.helper.ExecTx(ctx, tx, `
		INSERT INTO day_records (date, lunch_entries, dinner_entries, statistics, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			lunch_entries = excluded.lunch_entries,
			dinner_entries = excluded.dinner_entries,
			statistics = excluded.statistics,
			updated_at = excluded.updated_at
	`, record.Date, string(lunch), string(dinner), string(stats), formatTime(r.now()))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDayRecord(row rowScanner) (roster.DayRecord, error) {
	var (
		record                     roster.DayRecord
		lunch, dinner, statsColumn string
	)
	if err := row.Scan(&record.Date, &lunch, &dinner, &statsColumn); err != nil {
		return roster.DayRecord{}, err
	}
	if err := json.Unmarshal([]byte(lunch), &record.LunchEntries); err != nil {
		return roster.DayRecord{}, fmt.Errorf("failed to decode lunch entries for %s: %w", record.Date, err)
	}
	if err := json.Unmarshal([]byte(dinner), &record.DinnerEntries); err != nil {
		return roster.DayRecord{}, fmt.Errorf("failed to decode dinner entries for %s: %w", record.Date, err)
	}
	if err := json.Unmarshal([]byte(statsColumn), &record.Statistics); err != nil {
		return roster.DayRecord{}, fmt.Errorf("failed to decode statistics for %s: %w", record.Date, err)
	}
	record.LunchEntries = nonNilEntries(record.LunchEntries)
	record.DinnerEntries = nonNilEntries(record.DinnerEntries)
	return record, nil
}

func nonNilEntries(entries []roster.Entrant) []roster.Entrant {
	if entries == nil {
		return []roster.Entrant{}
	}
	return entries
}
