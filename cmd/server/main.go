// Package main is the entry point for the Orbit Student Hub API server.
//
// Orbit is a study companion for students: notes, tasks, class schedules,
// grade tracking, and focus sessions, with XP-based gamification and an
// optional generative assistant on top. Clients talk REST for writes and
// subscribe to server-sent collection snapshots for live reads.
//
// The layout follows Clean Architecture and DDD:
//   - Domain: pure business logic without external dependencies
//   - Application: use-case orchestration (Commands/Queries/Sagas)
//   - Infrastructure: repositories, messaging, external APIs
//   - Interface: the HTTP API surface
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/orbit-hub/orbit-student-hub/config"

	// Application layer
	"github.com/orbit-hub/orbit-student-hub/internal/application/command"
	"github.com/orbit-hub/orbit-student-hub/internal/application/eventhandler"
	"github.com/orbit-hub/orbit-student-hub/internal/application/query"
	"github.com/orbit-hub/orbit-student-hub/internal/application/saga"

	// Infrastructure layer
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/external/assistant"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/external/gcal"
	auth "github.com/orbit-hub/orbit-student-hub/internal/infrastructure/identity"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/messaging"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/persistence/postgres"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/persistence/redis"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/scheduler"
	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/orbit-hub/orbit-student-hub/internal/interface/http"
	"github.com/orbit-hub/orbit-student-hub/internal/interface/http/handlers"

	// Packages
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// eventBus is the subset of bus behavior main cares about. Both the
// in-memory bus and the Redis-backed bus satisfy it.
type eventBus interface {
	Publish(event shared.Event) error
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
	SubscribeAll(handler shared.EventHandler) error
	Close() error
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	slogLog := setupSlog(cfg)
	appLog := logger.Default()

	slogLog.Info("starting Orbit Student Hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("connecting to database...")
	dbConn, err := postgres.NewConnection(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		slogLog.Info("closing database connection...")
		dbConn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applied, err := migrator.GetAppliedMigrations(ctx)
	if err != nil {
		slogLog.Warn("failed to read migration status", "error", err)
	} else {
		slogLog.Info("migrations completed", "applied", len(applied))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var cache *redis.Cache
	var tokenStore *redis.TokenStore

	if !cfg.Redis.Disabled {
		slogLog.Info("connecting to Redis...")
		cache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			slogLog.Warn("failed to connect to Redis, token storage and event fan-out disabled", "error", err)
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
			tokenStore = redis.NewTokenStore(cache)
			slogLog.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	noteRepo := postgres.NewNoteRepository(dbConn)
	taskRepo := postgres.NewTaskRepository(dbConn)
	scheduleRepo := postgres.NewScheduleRepository(dbConn)
	gradeRepo := postgres.NewGradeRepository(dbConn)
	focusRepo := postgres.NewFocusRepository(dbConn)
	profileRepo := postgres.NewProfileRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing event bus...")
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = slogLog

	var bus eventBus
	if cache != nil {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redis.NewBusAdapter(cache),
			LocalBusConfig: busConfig,
			Logger:         slogLog,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		bus = redisBus
	} else {
		bus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		slogLog.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. QUERY SIDE AND LIVE STREAMING
	// ─────────────────────────────────────────────────────────────────────────
	snapshots := query.NewSnapshotService(
		noteRepo, taskRepo, scheduleRepo, gradeRepo, focusRepo, profileRepo,
	)

	hub := messaging.NewLiveQueryHub(snapshots, slogLog)
	if cfg.Features.IsEnabled(config.FeatureLiveStream, nil) {
		if err := hub.Register(bus); err != nil {
			return fmt.Errorf("failed to register live query hub: %w", err)
		}
	}
	defer hub.CloseAll()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. EXTERNAL CLIENTS (assistant, Google Calendar)
	// ─────────────────────────────────────────────────────────────────────────
	var assistantClient *assistant.Client
	if cfg.Assistant.Configured() && cfg.Features.AssistantEnabled(nil) {
		assistantClient, err = assistant.NewClient(assistant.ClientConfig{
			APIKey:  cfg.Assistant.APIKey,
			BaseURL: cfg.Assistant.BaseURL,
			Model:   cfg.Assistant.Model,
			Timeout: cfg.Assistant.RequestTimeout,
			Logger:  slogLog,
		})
		if err != nil {
			return fmt.Errorf("failed to create assistant client: %w", err)
		}
		slogLog.Info("assistant client initialized")
	} else {
		slogLog.Info("assistant disabled, generative routes will return not_configured")
	}

	var googleConnector *auth.GoogleConnector
	var calendarClient *gcal.Client
	googleCfg := auth.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	}
	if googleCfg.Configured() && tokenStore != nil {
		googleConnector, err = auth.NewGoogleConnector(googleCfg, tokenStore)
		if err != nil {
			return fmt.Errorf("failed to create google connector: %w", err)
		}

		if cfg.Features.IsEnabled(config.FeatureCalendarExport, nil) {
			calendarClient, err = gcal.NewClient(gcal.ClientConfig{
				Tokens: googleConnector,
				Logger: slogLog,
			})
			if err != nil {
				return fmt.Errorf("failed to create calendar client: %w", err)
			}
		}
		slogLog.Info("google calendar integration initialized")
	} else {
		slogLog.Info("google calendar integration disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. IDENTITY
	// ─────────────────────────────────────────────────────────────────────────
	identityCfg := auth.ServiceConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
		Users:     userRepo,
		Publisher: bus,
		Logger:    slogLog,
	}
	if tokenStore != nil {
		identityCfg.Tokens = tokenStore
	}
	identitySvc, err := auth.NewService(identityCfg)
	if err != nil {
		return fmt.Errorf("failed to create identity service: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing application layer...")

	var calendarExporter command.CalendarExporter
	if calendarClient != nil {
		calendarExporter = calendarClient
	}

	noteCmd := command.NewNoteHandler(noteRepo, bus, appLog)
	taskCmd := command.NewTaskHandler(taskRepo, calendarExporter, bus, appLog)
	scheduleCmd := command.NewScheduleHandler(scheduleRepo, bus, appLog)
	gradeCmd := command.NewGradeHandler(gradeRepo, bus, appLog)
	focusCmd := command.NewFocusHandler(focusRepo, bus, appLog)
	profileCmd := command.NewProfileHandler(profileRepo, bus, appLog)
	gamificationCmd := command.NewGamificationHandler(profileRepo, bus, appLog)

	onboarding := saga.NewOnboardingSaga(userRepo, profileRepo, bus, appLog)

	var motivation query.MotivationSource
	if cfg.Features.IsEnabled(config.FeatureAssistantQuotes, nil) {
		// Falls back to canned quotes when the client is nil or errors.
		motivation = assistant.NewMotivator(assistantClient, slogLog)
	}

	dashboard := query.NewDashboardHandler(snapshots, motivation, appLog)
	stats := query.NewStatsHandler(snapshots)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("registering event handlers...")

	if cfg.Features.IsEnabled(config.FeatureGamificationXP, nil) {
		onTask := eventhandler.NewOnTaskCompleted(gamificationCmd, appLog)
		if err := bus.Subscribe(onTask.EventType(), onTask.Handle); err != nil {
			return fmt.Errorf("failed to subscribe task handler: %w", err)
		}

		onFocus := eventhandler.NewOnFocusRecorded(gamificationCmd, appLog)
		if err := bus.Subscribe(onFocus.EventType(), onFocus.Handle); err != nil {
			return fmt.Errorf("failed to subscribe focus handler: %w", err)
		}

		onLevelUp := eventhandler.NewOnLevelUp(bus, appLog)
		if err := bus.Subscribe(onLevelUp.EventType(), onLevelUp.Handle); err != nil {
			return fmt.Errorf("failed to subscribe level-up handler: %w", err)
		}
	} else {
		slogLog.Info("gamification disabled, XP handlers not registered")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var cronScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled && cfg.Features.IsEnabled(config.FeatureNotifyDailyReminder, nil) {
		slogLog.Info("initializing scheduler...")
		cronScheduler = scheduler.NewScheduler(slogLog)

		reminder := jobs.NewDailyReminderJob(taskRepo, bus, slogLog)
		if err := cronScheduler.Register(cfg.Scheduler.DailyReminderSpec, reminder); err != nil {
			return fmt.Errorf("failed to register reminder job: %w", err)
		}

		if err := cronScheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		slogLog.Info("scheduler disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 14. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if cache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(cache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 15. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	slogLog.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	httpDeps := httpserver.Dependencies{
		Onboarding:    onboarding,
		Notes:         noteCmd,
		Tasks:         taskCmd,
		Schedule:      scheduleCmd,
		Grades:        gradeCmd,
		Focus:         focusCmd,
		Profile:       profileCmd,
		Snapshots:     snapshots,
		Dashboard:     dashboard,
		Stats:         stats,
		Identity:      identitySvc,
		NoteReader:    noteRepo,
		Hub:           hub,
		HealthChecker: health,
		Logger:        appLog,
	}
	if googleConnector != nil {
		httpDeps.Google = googleConnector
	}
	if assistantClient != nil {
		httpDeps.Assistant = assistantClient
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 16. START
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		slogLog.Info("starting HTTP server", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	slogLog.Info("Orbit Student Hub is running", "http_address", httpServer.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 17. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slogLog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slogLog.Error("service error", "error", err)
		return err
	}

	slogLog.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// Stop the cron scheduler first so no new work starts mid-shutdown.
	if cronScheduler != nil {
		slogLog.Info("stopping scheduler...")
		if err := cronScheduler.Stop(); err != nil {
			slogLog.Error("failed to stop scheduler gracefully", "error", err)
			shutdownErr = err
		}
	}

	// Drop live subscribers before the listener closes so streaming
	// handlers return promptly.
	slogLog.Info("closing live subscriptions...")
	hub.CloseAll()

	slogLog.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slogLog.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	// Event bus, Redis, and the database close via defers.

	if shutdownErr != nil {
		slogLog.Warn("shutdown completed with errors")
	} else {
		slogLog.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupSlog configures the process-wide structured logger.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
