// Package sqlite implements the persistence repositories on top of the
// pure-Go modernc.org/sqlite driver, with schema managed by goose.
package sqlite

import (
	"context"
	"log/slog"
)

// Storage bundles every SQLite repository behind one connection pool.
type Storage struct {
	*DayRecordRepository
	*AccessCodeRepository
	*ConfigurationRepository
	*SessionRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects to the database described by cfg. Call Migrate before use.
func Open(cfg Config, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{
		DayRecordRepository:     NewDayRecordRepository(pool),
		AccessCodeRepository:    NewAccessCodeRepository(pool),
		ConfigurationRepository: NewConfigurationRepository(pool),
		SessionRepository:       NewSessionRepository(pool),
		pool:                    pool,
		logger:                  defaultLogger(logger),
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool.DB(), s.logger)
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
