package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/meal-roster/internal/persistence"
)

// AccessCodeRepository implements persistence.AccessCodeRepository using a
// single-row table.
type AccessCodeRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAccessCodeRepository creates a new SQLite access code repository
func NewAccessCodeRepository(pool *ConnectionPool) *AccessCodeRepository {
	return &AccessCodeRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetAccessCode returns the stored access code.
func (r *AccessCodeRepository) GetAccessCode(ctx context.Context) (persistence.AccessCode, error) {
	var (
		code           persistence.AccessCode
		generatedAtStr string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT code, generated_at, generated_by
		FROM access_codes
		WHERE id = 1
	`).Scan(&code.Code, &generatedAtStr, &code.GeneratedBy)
	if err != nil {
		return persistence.AccessCode{}, r.mapper.MapError(err)
	}
	if code.GeneratedAt, err = parseTime(generatedAtStr); err != nil {
		return persistence.AccessCode{}, fmt.Errorf("failed to parse generated_at: %w", err)
	}
	return code, nil
}

// SaveAccessCode overwrites the stored access code.
func (r *AccessCodeRepository) SaveAccessCode(ctx context.Context, code persistence.AccessCode) error {
	if strings.TrimSpace(code.Code) == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO access_codes (id, code, generated_at, generated_by)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			generated_at = excluded.generated_at,
			generated_by = excluded.generated_by
	`, code.Code, formatTime(code.GeneratedAt), code.GeneratedBy)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}
