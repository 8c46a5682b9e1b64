package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/infrastructure/cache"
	"github.com/estate/backend/internal/infrastructure/config"
	"github.com/estate/backend/internal/infrastructure/logger"
	"github.com/estate/backend/internal/infrastructure/migration"
	"github.com/estate/backend/internal/infrastructure/persistence"
	"github.com/estate/backend/internal/infrastructure/persistence/memory"
	"github.com/estate/backend/internal/infrastructure/scheduler"
	"github.com/estate/backend/internal/infrastructure/storage"
	"github.com/estate/backend/internal/infrastructure/telemetry"
	"github.com/estate/backend/internal/interfaces/http/handler"
	"github.com/estate/backend/internal/interfaces/http/middleware"
	"github.com/estate/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const meterName = "github.com/estate/backend"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting estate backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = lp.Attach(log, logger.ParseLevel(cfg.Log.Level))
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tp.LinkProfiles()
	}
	meter := mp.Meter(meterName)

	// Record store
	store, checks, closeStore := openRecordStore(ctx, cfg, tp, mp, log)
	defer closeStore()

	// Document store
	docs := openDocumentStore(ctx, cfg, log)

	// Once-per-day guard for the reminder sweep
	guard, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := guard.Close(); err != nil {
			log.Warn("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Application services
	matching := appleasing.NewMatchingEngine(store, log,
		appleasing.WithMatchNotifier(appleasing.NewLogNotifier(log)))
	properties := appleasing.NewPropertyService(store, matching, log)
	inquiries := appleasing.NewInquiryService(store, matching, log)
	provisioning := appleasing.NewProvisioningService(store, docs, appleasing.ProvisioningConfig{
		DefaultReminderLeadDays: cfg.Leasing.DefaultReminderLeadDays,
		CompensationTimeout:     cfg.Leasing.CompensationTimeout,
	}, log)
	leases := appleasing.NewLeaseService(store, provisioning, properties, log)
	tenants := appleasing.NewTenantService(store, log)
	matches := appleasing.NewMatchService(store, log)
	reminders := appleasing.NewReminderService(store, guard, log)

	// Leasing metrics
	if mp.IsEnabled() {
		lm, err := telemetry.NewLeasingMetrics(telemetry.LeasingMetricsConfig{
			Meter:            meter,
			Logger:           log,
			ReminderProvider: reminders,
		})
		if err != nil {
			log.Warn("Leasing metrics disabled", zap.Error(err))
		} else {
			matching.SetMetrics(lm)
			provisioning.SetMetrics(lm)
			lm.StartPeriodicCollection(ctx, cfg.Leasing.ReminderGaugeInterval)
			defer lm.Stop()
		}
	}

	// Daily reminder sweep
	sweeps, err := scheduler.NewSweepScheduler(scheduler.SweepSchedulerConfig{
		Enabled:    true,
		Schedule:   cfg.Leasing.SweepSchedule,
		RunOnStart: cfg.Leasing.SweepOnStartup,
		Timeout:    2 * time.Minute,
	}, scheduler.SweepRunnerFunc(func(ctx context.Context, now time.Time) error {
		_, err := reminders.RunDailySweep(ctx, now)
		return err
	}), log)
	if err != nil {
		log.Fatal("Invalid reminder sweep schedule", zap.Error(err))
	}
	if err := sweeps.Start(ctx); err != nil {
		log.Fatal("Failed to start reminder sweep scheduler", zap.Error(err))
	}

	// HTTP
	engine, err := router.NewEngine(router.EngineOptions{
		HTTP: cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		},
		Meter:  meter,
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to configure HTTP engine", zap.Error(err))
	}
	router.Mount(engine, router.Handlers{
		Tenants:    handler.NewTenantHandler(tenants),
		Leases:     handler.NewLeaseHandler(leases, cfg.HTTP.MaxDocumentSize),
		Properties: handler.NewPropertyHandler(properties),
		Inquiries:  handler.NewInquiryHandler(inquiries),
		Matches:    handler.NewMatchHandler(matches),
		Reminders:  handler.NewReminderHandler(reminders),
		System:     handler.NewSystemHandler(cfg.App.Name, checks),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sweeps.Stop(shutdownCtx); err != nil {
		log.Warn("Reminder sweep scheduler did not stop cleanly", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openRecordStore selects the record store for the configured driver and
// prepares its schema. The returned checks feed the health endpoint.
func openRecordStore(ctx context.Context, cfg *config.Config, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider, log *zap.Logger) (leasing.RecordStore, map[string]handler.Pinger, func()) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory record store; data is lost on restart")
		return memory.NewStore(), map[string]handler.Pinger{}, func() {}
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log.Named("gorm"),
		LogLevel:      logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	switch {
	case cfg.Database.Driver == config.DriverPostgres:
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
		}
		// The migrator shares the pool; closing it would close the database.
		m, err := migration.New(sqlDB, log)
		if err != nil {
			log.Fatal("Failed to initialize migrations", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	case cfg.Database.AutoMigrate || cfg.Database.Driver == config.DriverSQLite:
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	if cfg.Telemetry.DBTracing && tp.IsEnabled() {
		dbSystem := "postgresql"
		if db.Driver == config.DriverSQLite {
			dbSystem = "sqlite"
		}
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:         true,
			DBSystem:        dbSystem,
			LogFullSQL:      cfg.App.Env == "development",
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}
	if mp.IsEnabled() {
		if _, err := telemetry.RegisterDBMetrics(db.DB, mp, cfg.Telemetry.DBSlowQueryThresh, log); err != nil {
			log.Warn("Database metrics disabled", zap.Error(err))
		}
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	return persistence.NewGormRecordStore(db.DB), map[string]handler.Pinger{"database": db}, closeFn
}

// openDocumentStore returns the S3 store when configured, else an in-process one
func openDocumentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) appleasing.DocumentStore {
	if cfg.Storage.Driver != config.StorageS3 {
		log.Warn("Using in-memory document store; lease documents are lost on restart")
		return storage.NewMemoryDocumentStore(cfg.Storage.PublicBaseURL)
	}

	s3Store, err := storage.NewS3DocumentStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize S3 document store", zap.Error(err))
	}
	if cfg.Storage.EnsureBucket {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure document bucket", zap.Error(err))
		}
	}
	log.Info("S3 document store ready", zap.String("bucket", s3Store.Bucket()))
	return s3Store
}
