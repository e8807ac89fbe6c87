package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/meal-roster/internal/persistence"
)

// ConfigurationRepository implements persistence.ConfigurationRepository using
// a single-row table.
type ConfigurationRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewConfigurationRepository creates a new SQLite configuration repository
func NewConfigurationRepository(pool *ConnectionPool) *ConfigurationRepository {
	return &ConfigurationRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetConfiguration returns the stored configuration.
func (r *ConfigurationRepository) GetConfiguration(ctx context.Context) (persistence.Configuration, error) {
	var (
		cfg                      persistence.Configuration
		plateCost, updatedAtStr string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT lunch_menu, dinner_menu, plate_cost, lunch_cutoff, dinner_cutoff, updated_at
		FROM configuration
		WHERE id = 1
	`).Scan(&cfg.LunchMenu, &cfg.DinnerMenu, &plateCost, &cfg.LunchCutoff, &cfg.DinnerCutoff, &updatedAtStr)
	if err != nil {
		return persistence.Configuration{}, r.mapper.MapError(err)
	}
	if cfg.PlateCost, err = decimal.NewFromString(plateCost); err != nil {
		return persistence.Configuration{}, fmt.Errorf("failed to parse plate_cost: %w", err)
	}
	if cfg.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Configuration{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return cfg, nil
}

// SaveConfiguration overwrites the stored configuration.
func (r *ConfigurationRepository) SaveConfiguration(ctx context.Context, cfg persistence.Configuration) error {
	_, err := r.helper.Exec(ctx, `
		INSERT INTO configuration (id, lunch_menu, dinner_menu, plate_cost, lunch_cutoff, dinner_cutoff, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lunch_menu = excluded.lunch_menu,
			dinner_menu = excluded.dinner_menu,
			plate_cost = excluded.plate_cost,
			lunch_cutoff = excluded.lunch_cutoff,
			dinner_cutoff = excluded.dinner_cutoff,
			updated_at = excluded.updated_at
	`, cfg.LunchMenu, cfg.DinnerMenu, cfg.PlateCost.String(), cfg.LunchCutoff, cfg.DinnerCutoff, formatTime(cfg.UpdatedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}
