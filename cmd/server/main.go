// Package main is the entry point of the portfolio backend.
//
// The server hosts the visitor gamification tracker and the portfolio API:
//   - per-device game state, achievements and unlock notifications
//   - contact form, analytics ingest and metrics
//   - skills and projects showcase with admin-only mutations
//
// Storage is selected by STORAGE_BACKEND (memory, redis or postgres). Remote
// backends sit behind a circuit breaker and fall back to memory at start-up
// when STORAGE_FALLBACK_MEMORY is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mangopixel04/portfliomango/config"
	"github.com/Mangopixel04/portfliomango/internal/application/command"
	"github.com/Mangopixel04/portfliomango/internal/application/eventhandler"
	"github.com/Mangopixel04/portfliomango/internal/application/query"
	"github.com/Mangopixel04/portfliomango/internal/application/tracker"
	"github.com/Mangopixel04/portfliomango/internal/domain/notification"
	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/messaging"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/memory"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/postgres"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/progress"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/persistence/redis"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/scheduler"
	"github.com/Mangopixel04/portfliomango/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/Mangopixel04/portfliomango/internal/interface/http"
	"github.com/Mangopixel04/portfliomango/internal/interface/http/handlers"
	"github.com/Mangopixel04/portfliomango/pkg/circuitbreaker"
	"github.com/Mangopixel04/portfliomango/pkg/logger"
	"github.com/Mangopixel04/portfliomango/pkg/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// eventBus is what both bus implementations provide.
type eventBus interface {
	shared.EventBus
	Close() error
}

// presenceTracker counts live visitors and drops stale entries.
type presenceTracker interface {
	portfolio.PresenceCounter
	jobs.StaleCleaner
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Log.Level),
		AddCaller: cfg.App.Debug,
	}).With(logger.String("app", cfg.App.Name), logger.String("version", cfg.App.Version))
	slogger := setupSlog(cfg)

	log.Info("starting portfolio server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("storage", string(cfg.Storage.Backend)),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	var db *postgres.Connection
	if cfg.Storage.Backend == config.StoragePostgres {
		db, err = connectPostgres(ctx, cfg, log)
		if err != nil {
			if !cfg.Storage.FallbackToMemory {
				return err
			}
			log.Warn("postgres unavailable, falling back to memory", logger.Err(err))
		} else {
			defer func() {
				log.Info("closing database connection")
				db.Close()
			}()
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS
	// ─────────────────────────────────────────────────────────────────────────
	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		cache, err = connectRedis(ctx, cfg, log)
		if err != nil {
			if cfg.Storage.Backend == config.StorageRedis && !cfg.Storage.FallbackToMemory {
				return err
			}
			log.Warn("redis unavailable, continuing without it", logger.Err(err))
		} else {
			defer func() {
				log.Info("closing redis connection")
				_ = cache.Close()
			}()
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		kv      progress.KeyValueStore = memory.NewDeviceStore()
		guarded *progress.GuardedStore
		repos   portfolio.Repositories
	)
	onBreaker := func(name string, from, to circuitbreaker.State) {
		log.Warn("storage circuit changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	switch {
	case cfg.Storage.Backend == config.StoragePostgres && db != nil:
		guarded = progress.NewGuardedStore(postgres.NewDeviceStore(db), circuitbreaker.StorageBreaker("postgres", onBreaker))
	case cfg.Storage.Backend == config.StorageRedis && cache != nil:
		guarded = progress.NewGuardedStore(redis.NewDeviceStore(cache, 0), circuitbreaker.StorageBreaker("redis", onBreaker))
	}
	if guarded != nil {
		kv = guarded
	}

	if db != nil {
		repos = portfolio.Repositories{
			Contacts:  postgres.NewContactRepository(db),
			Analytics: postgres.NewAnalyticsRepository(db),
			Skills:    postgres.NewSkillRepository(db),
			Projects:  postgres.NewProjectRepository(db),
		}
	} else {
		repos = memory.NewSeededStorage(time.Now()).Repositories()
	}

	var presence presenceTracker = memory.NewPresence(cfg.Scheduler.PresenceWindow)
	if cache != nil {
		presence = redis.NewPresenceTracker(cache, cfg.Scheduler.PresenceWindow)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	localCfg := messaging.DefaultInMemoryEventBusConfig()
	localCfg.Logger = slogger

	var bus eventBus = messaging.NewInMemoryEventBus(localCfg)
	if cache != nil && cfg.Redis.FanOutEvents {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewCacheClient(cache),
			ChannelName:    cfg.Redis.EventsChannel,
			LocalBusConfig: localCfg,
			Logger:         slogger,
		})
		if err != nil {
			log.Warn("redis event fan-out disabled", logger.Err(err))
		} else {
			_ = bus.Close()
			bus = redisBus
		}
	}
	defer func() {
		log.Info("closing event bus")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. TRACKER AND EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	registry := tracker.NewRegistry(kv, bus, presence, tracker.Config{
		IdleTimeout: cfg.Gamification.SessionIdleTimeout,
		Notifications: notification.Config{
			DisplayDuration: cfg.Gamification.NotificationDisplay,
			ExpiryGrace:     cfg.Gamification.ExpiryGrace,
			DismissGrace:    cfg.Gamification.DismissGrace,
			HistoryLimit:    cfg.Gamification.HistoryLimit,
		},
		Flags: cfg.Features,
	}, log)

	dispatcher := messaging.NewDispatcher(bus, slogger, 100)
	if err := eventhandler.RegisterAll(dispatcher,
		eventhandler.NewOnAchievementUnlockedHandler(registry, cfg.Features, config.FeatureNotifications, slogger),
		eventhandler.NewOnContactReceivedHandler(slogger),
	); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = slogger
		schedCfg.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
		schedCfg.JobTimeout = cfg.Scheduler.JobTimeout
		sched = scheduler.NewScheduler(schedCfg)

		if err := sched.Register(jobs.NewEvictIdleSessionsJob(registry, slogger),
			scheduler.NewIntervalSchedule(cfg.Scheduler.EvictionInterval)); err != nil {
			return fmt.Errorf("failed to register job: %w", err)
		}
		if err := sched.Register(jobs.NewCleanupPresenceJob(presence, slogger),
			scheduler.NewIntervalSchedule(cfg.Scheduler.PresenceInterval)); err != nil {
			return fmt.Errorf("failed to register job: %w", err)
		}
		sched.OnJobError(func(name string, err error) {
			log.Warn("scheduled job failed", logger.String("job", name), logger.Err(err))
		})

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if db != nil {
		checker.AddCheck("database", handlers.NewPingCheck(db))
	}
	if cache != nil {
		if cfg.Storage.Backend == config.StorageRedis {
			checker.AddCheck("redis", handlers.NewPingCheck(cache))
		} else {
			checker.AddDegradedCheck("redis", handlers.NewPingCheck(cache))
		}
	}
	if guarded != nil {
		checker.AddDegradedCheck("storage_breaker", handlers.NewBreakerCheck(guarded))
	}

	server := httpapi.NewServer(httpapi.ConfigFrom(cfg.HTTP, cfg.App.Version), httpapi.Dependencies{
		Sessions:       registry,
		RecordEvent:    command.NewRecordGameEventHandler(registry),
		RecordSignal:   command.NewRecordSignalHandler(),
		ResetProgress:  command.NewResetProgressHandler(registry),
		Notifications:  command.NewNotificationCommands(registry),
		Game:           query.NewGameQueries(registry),
		SubmitContact:  command.NewSubmitContactHandler(repos.Contacts, bus, log),
		UpdateContact:  command.NewUpdateContactStatusHandler(repos.Contacts),
		TrackAnalytics: command.NewTrackAnalyticsHandler(repos.Analytics, cfg.Features, config.FeatureAnalyticsIngest),
		Skills:         command.NewSkillCommands(repos.Skills),
		Projects:       command.NewProjectCommands(repos.Projects),
		Analytics:      query.NewAnalyticsQueries(repos.Analytics, presence, cfg.Features, config.FeatureLiveVisitors, log),
		Portfolio:      query.NewPortfolioQueries(repos),
		Admin:          handlers.NewAPIKeyAuth(handlers.DefaultAPIKeyHeader, cfg.Admin.APIKeyHash),
		HealthChecker:  checker,
		Logger:         log,
	})
	if cfg.Admin.APIKeyHash == "" {
		log.Warn("ADMIN_API_KEY_HASH is empty, admin endpoints reject every request")
	}

	errCh := server.StartAsync()
	log.Info("portfolio server is running", logger.String("address", cfg.HTTP.Addr()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error("http server stopped", logger.Err(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Err(err))
	}
	if sched != nil {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Error("scheduler stop failed", logger.Err(err))
		}
	}
	registry.Shutdown(shutdownCtx)

	log.Info("shutdown completed")
	return serveErr
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func connectPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Connection, error) {
	pool := postgres.PoolConfig{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	log.Info("connecting to database")
	db, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.Connect(ctx, cfg.Database.URL, pool)
	}, connectRetryOptions(cfg.Database.ConnectAttempts, "postgres", log)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.NewMigrator(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if cfg.Database.SeedDefaults {
		n, err := postgres.SeedDefaults(ctx, db, time.Now())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to seed defaults: %w", err)
		}
		if n > 0 {
			log.Info("seeded showcase defaults", logger.Int("rows", n))
		}
	}
	log.Info("database connection established")
	return db, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Cache, error) {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	if cfg.Redis.URL != "" {
		var err error
		if rc, err = rc.WithURL(cfg.Redis.URL); err != nil {
			return nil, err
		}
	}

	log.Info("connecting to redis", logger.String("addr", rc.Addr()))
	cache, err := retry.DoWithData(ctx, func(context.Context) (*redis.Cache, error) {
		return redis.NewCache(rc)
	}, connectRetryOptions(3, "redis", log)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("redis connection established")
	return cache, nil
}

func connectRetryOptions(attempts int, target string, log *logger.Logger) []retry.Option {
	if attempts <= 0 {
		attempts = 1
	}
	return []retry.Option{
		retry.WithMaxAttempts(attempts),
		retry.WithInitialDelay(500 * time.Millisecond),
		retry.WithMaxDelay(5 * time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("connection attempt failed",
				logger.String("target", target),
				logger.Int("attempt", attempt),
				logger.Duration("retry_in", delay),
				logger.Err(err),
			)
		}),
	}
}

// setupSlog builds the slog logger used by the bus, the dispatcher and the
// scheduler.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
