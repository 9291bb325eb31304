package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	payoutapp "github.com/royalty/backend/internal/application/payout"
	"github.com/royalty/backend/internal/infrastructure/auth"
	"github.com/royalty/backend/internal/infrastructure/cache"
	"github.com/royalty/backend/internal/infrastructure/config"
	"github.com/royalty/backend/internal/infrastructure/event"
	"github.com/royalty/backend/internal/infrastructure/logger"
	"github.com/royalty/backend/internal/infrastructure/persistence"
	"github.com/royalty/backend/internal/infrastructure/printing"
	"github.com/royalty/backend/internal/infrastructure/scheduler"
	"github.com/royalty/backend/internal/infrastructure/storage"
	"github.com/royalty/backend/internal/infrastructure/telemetry"
	"github.com/royalty/backend/internal/interfaces/http/handler"
	"github.com/royalty/backend/internal/interfaces/http/middleware"
	"github.com/royalty/backend/internal/interfaces/http/router"
)

//	@title			Royalty Payout API
//	@version		1.0
//	@description	Splits licensing receipts into payout instructions and reconciles their payment.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}

	// The OTLP log bridge needs a logger to report its own setup, so the
	// final logger is rebuilt once the provider exists
	logsCfg := telCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		log, err = logger.New(logCfg, logProvider.Core(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting royalty payout service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, cfg.Telemetry.MetricsInterval, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeServer,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log provider", zap.Error(err))
		}
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	payoutMetrics, err := telemetry.NewPayoutMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register payout metrics", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	agreementRepo := persistence.NewGormAgreementRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	instructionRepo := persistence.NewGormPayoutInstructionRepository(db.DB)
	auditRepo := persistence.NewGormAuditEventRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := event.NewAuditHandler(auditRepo)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Audit handler registered", zap.Strings("event_types", auditHandler.EventTypes()))

	production := cfg.App.Env == "production"
	idempotency, err := cache.NewIdempotencyStore(ctx, cfg.Redis, production, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	var archive payoutapp.ArchiveStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize export storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare export bucket", zap.Error(err))
		}
		archive = s3
		log.Info("Export archiving enabled", zap.String("bucket", s3.Bucket()))
	}

	var statementRenderer payoutapp.StatementRenderer
	if cfg.Printing.Enabled {
		chrome := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.RemoteURL,
			NoSandbox:      cfg.Printing.NoSandbox,
			Logger:         log,
		})
		defer func() {
			if err := chrome.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		statements, err := printing.NewStatementRenderer(chrome, log)
		if err != nil {
			log.Fatal("Failed to initialize statement renderer", zap.Error(err))
		}
		statementRenderer = statements
		log.Info("Statement printing enabled", zap.Bool("remote", cfg.Printing.RemoteURL != ""))
	}

	settings, err := payoutapp.SettingsFromConfig(cfg.Payout, cfg.Storage)
	if err != nil {
		log.Fatal("Invalid payout configuration", zap.Error(err))
	}

	distributionService := payoutapp.NewDistributionService(
		agreementRepo, receiptRepo, instructionRepo, eventBus, settings, log,
		payoutapp.WithIdempotencyStore(idempotency),
		payoutapp.WithDistributionMetrics(payoutMetrics),
	)
	reconciliationService := payoutapp.NewReconciliationService(receiptRepo, instructionRepo, eventBus, payoutMetrics, log)
	exportService := payoutapp.NewExportService(instructionRepo, archive, payoutMetrics, settings, log)
	agreementService := payoutapp.NewAgreementService(agreementRepo, log)
	statementService := payoutapp.NewStatementService(agreementRepo, receiptRepo, instructionRepo, statementRenderer, log)

	if archive != nil && cfg.Storage.ArchiveSchedule != "" {
		schedule, err := scheduler.ParseSchedule(cfg.Storage.ArchiveSchedule)
		if err != nil {
			log.Fatal("Invalid archive schedule", zap.Error(err))
		}
		triggerCfg := scheduler.DefaultArchiveTriggerConfig()
		triggerCfg.Schedule = schedule
		archiveTrigger := scheduler.NewArchiveTrigger(triggerCfg, exportService, log)
		if err := archiveTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start archive trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := archiveTrigger.Stop(stopCtx); err != nil {
				log.Error("Error stopping archive trigger", zap.Error(err))
			}
		}()
	}

	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := router.NewEngine(router.Handlers{
		Receipts:   handler.NewReceiptHandler(distributionService, reconciliationService),
		Agreements: handler.NewAgreementHandler(agreementService),
		Payouts:    handler.NewPayoutHandler(reconciliationService),
		Exports:    handler.NewExportHandler(exportService),
		Statements: handler.NewStatementHandler(statementService),
		Health:     handler.NewHealthHandler(db),
	}, router.Options{
		Logger: log,
		Auth: middleware.AuthConfig{
			JWTService:  auth.NewJWTService(cfg.JWT),
			ServiceKeys: auth.NewServiceKeyVerifier(cfg.Auth.ServiceKeyHash),
			AdminPolicy: auth.NewAdminPolicy(cfg.Auth),
			Logger:      log,
		},
		CORS: corsConfig(cfg.HTTP),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Profiling: middleware.ProfilingConfig{
			Enabled:   profiler.IsEnabled(),
			SkipPaths: []string{"/health", "/api/v1/health"},
		},
		Meter:          meter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

func corsConfig(h config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = h.CORSAllowOrigins
	if len(h.CORSAllowMethods) > 0 {
		cors.AllowMethods = h.CORSAllowMethods
	}
	if len(h.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = h.CORSAllowHeaders
	}
	return cors
}
