package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/meal-roster/internal/timerules"
)

const (
	DefaultLunchMenu    = "Milanesas con puré | Ensalada mixta | Fruta"
	DefaultDinnerMenu   = "Guiso de lentejas | Pan | Postre"
	DefaultLunchCutoff  = "10:00"
	DefaultDinnerCutoff = "16:00"
)

// DefaultPlateCost is the price per plate used until an operator sets one.
var DefaultPlateCost = decimal.NewFromInt(2500)

// ConfigurationRepository captures the persistence operations for the singleton configuration.
type ConfigurationRepository interface {
	GetConfiguration(ctx context.Context) (Configuration, error)
	SaveConfiguration(ctx context.Context, cfg Configuration) error
}

// ConfigurationService manages the menus, plate cost and registration cutoffs.
// Concurrent updates resolve as last write wins.
type ConfigurationService struct {
	configs ConfigurationRepository
	rules   *timerules.Rules
	logger  *slog.Logger
}

// NewConfigurationService constructs a configuration service.
func NewConfigurationService(configs ConfigurationRepository, rules *timerules.Rules) *ConfigurationService {
	return NewConfigurationServiceWithLogger(configs, rules, nil)
}

// NewConfigurationServiceWithLogger constructs a configuration service with a specified logger.
func NewConfigurationServiceWithLogger(configs ConfigurationRepository, rules *timerules.Rules, logger *slog.Logger) *ConfigurationService {
	if rules == nil {
		rules = timerules.New(nil)
	}
	return &ConfigurationService{configs: configs, rules: rules, logger: defaultLogger(logger)}
}

func (s *ConfigurationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConfigurationService", operation, attrs...)
}

// DefaultConfiguration returns the configuration stored on first read.
func DefaultConfiguration() Configuration {
	return Configuration{
		LunchMenu:    DefaultLunchMenu,
		DinnerMenu:   DefaultDinnerMenu,
		PlateCost:    DefaultPlateCost,
		LunchCutoff:  DefaultLunchCutoff,
		DinnerCutoff: DefaultDinnerCutoff,
	}
}

// Get returns the stored configuration, persisting the defaults when none exists yet.
func (s *ConfigurationService) Get(ctx context.Context) (cfg Configuration, err error) {
	if s == nil {
		err = fmt.Errorf("ConfigurationService is nil")
		return
	}
	if s.configs == nil {
		err = fmt.Errorf("configuration repository not configured")
		return
	}

	cfg, err = s.configs.GetConfiguration(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Configuration{}, storageError(err)
	}

	cfg = DefaultConfiguration()
	cfg.UpdatedAt = s.rules.Now()
	if err = s.configs.SaveConfiguration(ctx, cfg); err != nil {
		return Configuration{}, storageError(err)
	}
	s.loggerWith(ctx, "Get").InfoContext(ctx, "default configuration stored")
	return cfg, nil
}

// Update applies the non-nil fields of patch.
func (s *ConfigurationService) Update(ctx context.Context, patch ConfigurationPatch) (cfg Configuration, err error) {
	if s == nil {
		err = fmt.Errorf("ConfigurationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update")
	defer func() {
		logOutcome(ctx, logger, err, "failed to update configuration", "configuration updated",
			"lunch_cutoff", cfg.LunchCutoff, "dinner_cutoff", cfg.DinnerCutoff)
	}()

	if vErr := validateConfigurationPatch(patch); vErr.HasErrors() {
		err = vErr
		return
	}

	cfg, err = s.Get(ctx)
	if err != nil {
		return
	}

	if patch.LunchMenu != nil {
		cfg.LunchMenu = strings.TrimSpace(*patch.LunchMenu)
	}
	if patch.DinnerMenu != nil {
		cfg.DinnerMenu = strings.TrimSpace(*patch.DinnerMenu)
	}
	if patch.PlateCost != nil {
		cfg.PlateCost = *patch.PlateCost
	}
	if patch.LunchCutoff != nil {
		cfg.LunchCutoff = strings.TrimSpace(*patch.LunchCutoff)
	}
	if patch.DinnerCutoff != nil {
		cfg.DinnerCutoff = strings.TrimSpace(*patch.DinnerCutoff)
	}
	cfg.UpdatedAt = s.rules.Now()

	if err = s.configs.SaveConfiguration(ctx, cfg); err != nil {
		err = storageError(err)
		return Configuration{}, err
	}
	return cfg, nil
}

// MealWindows evaluates the configured cutoffs against the current time.
func (s *ConfigurationService) MealWindows(ctx context.Context) (timerules.Windows, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return timerules.Windows{}, err
	}
	return s.rules.MealWindows(cfg.LunchCutoff, cfg.DinnerCutoff), nil
}

// Today returns what the public registration page shows right now.
func (s *ConfigurationService) Today(ctx context.Context) (TodayInfo, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return TodayInfo{}, err
	}
	return TodayInfo{
		Date:          s.rules.EffectiveRegistrationDate(),
		Configuration: cfg,
		Windows:       s.rules.MealWindows(cfg.LunchCutoff, cfg.DinnerCutoff),
	}, nil
}

func validateConfigurationPatch(patch ConfigurationPatch) *ValidationError {
	vErr := &ValidationError{}
	if patch.LunchMenu != nil && strings.TrimSpace(*patch.LunchMenu) == "" {
		vErr.add("lunchMenu", "menu is required")
	}
	if patch.DinnerMenu != nil && strings.TrimSpace(*patch.DinnerMenu) == "" {
		vErr.add("dinnerMenu", "menu is required")
	}
	if patch.PlateCost != nil && patch.PlateCost.IsNegative() {
		vErr.add("plateCost", "plate cost must not be negative")
	}
	if patch.LunchCutoff != nil && !timerules.ValidCutoff(strings.TrimSpace(*patch.LunchCutoff)) {
		vErr.add("lunchCutoff", "cutoff must be HH:MM")
	}
	if patch.DinnerCutoff != nil && !timerules.ValidCutoff(strings.TrimSpace(*patch.DinnerCutoff)) {
		vErr.add("dinnerCutoff", "cutoff must be HH:MM")
	}
	return vErr
}
