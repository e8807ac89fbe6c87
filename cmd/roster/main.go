package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/meal-roster/internal/application"
	"github.com/example/meal-roster/internal/config"
	httptransport "github.com/example/meal-roster/internal/http"
	"github.com/example/meal-roster/internal/locking"
	"github.com/example/meal-roster/internal/logging"
	"github.com/example/meal-roster/internal/metrics"
	"github.com/example/meal-roster/internal/persistence"
	"github.com/example/meal-roster/internal/persistence/memory"
	"github.com/example/meal-roster/internal/persistence/sqlite"
	"github.com/example/meal-roster/internal/timerules"
)

const usage = "usage: roster [serve | hash-password <password>]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return serve(ctx)
	case "hash-password":
		return hashPassword(args, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func hashPassword(args []string, stdout io.Writer) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New(usage)
	}
	hash, err := application.HashPassword(args[0])
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, os.Stdout)

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise service", "error", err)
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("meal roster API listening", "addr", server.Addr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return app.rotator.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server encountered error", "error", err)
		return err
	}
	logger.Info("meal roster API stopped")
	return nil
}

// storage is what every backend offers to the wiring below.
type storage interface {
	persistence.Store
	Ping(ctx context.Context) error
}

type app struct {
	handler http.Handler
	rotator *application.AccessCodeRotator
	closers []func() error
	logger  *slog.Logger
}

// Close releases the store and any Redis client, in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", "error", err)
		}
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	default:
		store, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN), logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return store, nil
	}
}

func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	rules := timerules.New(time.Now,
		timerules.WithLocation(cfg.Location),
		timerules.WithRolloverHour(cfg.RolloverHour),
		timerules.WithRotationHour(cfg.RotationHour),
	)
	m := metrics.New()

	// Writes from other processes cannot invalidate a local summary cache, so
	// summaries are only memoized when this process is the sole writer.
	var (
		summaries   *application.SummaryCache
		redisLocker *locking.RedisLocker
	)
	if cfg.RedisURL != "" {
		client, err := locking.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		redisLocker = locking.NewRedisLocker(client, locking.RedisOptions{}, logger)
		logger.Info("using redis locks; month summary cache disabled")
	} else {
		summaries = application.NewSummaryCache(cfg.SummaryCacheTTL, 0, time.Now)
	}

	dayRecords := newDayRecordRepositoryAdapter(store)
	configurationService := application.NewConfigurationServiceWithLogger(newConfigurationRepositoryAdapter(store), rules, logger)

	rosterOptions := []application.RosterOption{
		application.WithSummaryCache(summaries),
		application.WithMetrics(m),
		application.WithMealWindows(configurationService),
	}
	if redisLocker != nil {
		rosterOptions = append(rosterOptions, application.WithDateLocker(redisLocker))
	}

	rosterService := application.NewRosterServiceWithLogger(dayRecords, rules, uuid.NewString, logger, rosterOptions...)
	archiveService := application.NewArchiveServiceWithLogger(dayRecords, summaries, logger)

	accessCodeService := application.NewAccessCodeServiceWithLogger(newAccessCodeRepositoryAdapter(store), rules, nil, logger)
	accessCodeService.UseMetrics(m)
	if redisLocker != nil {
		accessCodeService.UseLocker(redisLocker)
	}
	a.rotator = application.NewAccessCodeRotator(accessCodeService, cfg.PollInterval, logger)

	if cfg.SupervisorPasswordHash == "" {
		logger.Warn("supervisor password hash not configured; supervisor login is disabled")
	}
	authService := application.NewAuthServiceWithLogger(
		accessCodeService,
		newSessionRepositoryAdapter(store),
		cfg.SupervisorPasswordHash,
		nil,
		time.Now,
		cfg.SessionTTL,
		logger,
	)
	authService.UseMetrics(m)

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Public:         httptransport.NewPublicHandler(configurationService, rosterService, logger),
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Days:           httptransport.NewDayHandler(rosterService, rules.Location(), logger),
		Archive:        httptransport.NewArchiveHandler(archiveService, logger),
		Configuration:  httptransport.NewConfigurationHandler(configurationService, logger),
		AccessCode:     httptransport.NewAccessCodeHandler(accessCodeService, logger),
		Sessions:       authService,
		Health:         store,
		Metrics:        m.Handler(),
		Observer:       m,
		Logger:         logger,
		RequestTimeout: 30 * time.Second,
	})
	return a, nil
}
