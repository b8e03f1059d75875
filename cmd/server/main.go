package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/autoexport/backend/internal/application/finance"
	"github.com/autoexport/backend/internal/infrastructure/cache"
	"github.com/autoexport/backend/internal/infrastructure/config"
	"github.com/autoexport/backend/internal/infrastructure/event"
	"github.com/autoexport/backend/internal/infrastructure/logger"
	"github.com/autoexport/backend/internal/infrastructure/persistence"
	"github.com/autoexport/backend/internal/infrastructure/strategy"
	"github.com/autoexport/backend/internal/infrastructure/telemetry"
	"github.com/autoexport/backend/internal/interfaces/http/handler"
	"github.com/autoexport/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting AutoExport ledger server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileTypes:    cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	// Tracing and metrics precede the database so otelgorm sees the real providers
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.TracingEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter(telemetry.TracerName), log)
	if err != nil {
		log.Fatal("Failed to initialize ledger metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.DatabaseOptions{
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing: telemetry.DBTracingConfig{
			Enabled:    cfg.Telemetry.TracingEnabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL: !cfg.IsProduction(),
		},
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	responseCache, err := cache.NewFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize response cache", zap.Error(err))
	}
	defer func() {
		if err := responseCache.Close(); err != nil {
			log.Error("Failed to close response cache", zap.Error(err))
		}
	}()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(cache.NewCacheInvalidationHandler(responseCache, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	strategies, err := strategy.NewRegistryWithDefaults(cfg.Finance.DefaultAllocation)
	if err != nil {
		log.Fatal("Failed to initialize allocation strategies", zap.Error(err))
	}

	settings := financeapp.Settings{
		InvoicePrefix:        cfg.Finance.InvoicePrefix,
		InvoiceFloor:         cfg.Finance.InvoiceFloor,
		SequenceWidth:        cfg.Finance.SequenceWidth,
		PaymentEpsilon:       cfg.Finance.PaymentEpsilon,
		RecomputeMaxRetries:  cfg.Finance.RecomputeMaxRetries,
		DefaultShippingStage: cfg.Finance.DefaultShippingStage,
		DefaultAllocation:    cfg.Finance.DefaultAllocation,
	}

	// Application services
	scope := persistence.NewGormTransactionScope(db.DB)
	recomputer := financeapp.NewCostRecomputer(scope, log, cfg.Finance.RecomputeMaxRetries)
	reconciler := financeapp.NewPaymentReconciliationService(scope, settings, log)
	reconciler.SetEventPublisher(eventBus)
	reconciler.SetMetrics(ledgerMetrics)

	allocator := financeapp.NewCostAllocationService(scope, recomputer, log)
	allocator.SetEventPublisher(eventBus)
	allocator.SetMetrics(ledgerMetrics)

	invoiceService := financeapp.NewInvoiceService(scope, recomputer, reconciler, settings, log)
	invoiceService.SetEventPublisher(eventBus)
	invoiceService.SetMetrics(ledgerMetrics)

	sharedInvoiceService := financeapp.NewSharedInvoiceService(scope, strategies, allocator, recomputer, settings, log)
	sharedInvoiceService.SetEventPublisher(eventBus)
	sharedInvoiceService.SetMetrics(ledgerMetrics)

	containerInvoiceService := financeapp.NewContainerInvoiceService(scope, allocator, settings, log)
	containerInvoiceService.SetEventPublisher(eventBus)
	containerInvoiceService.SetMetrics(ledgerMetrics)

	transactionService := financeapp.NewTransactionService(scope, reconciler, log)
	transactionService.SetEventPublisher(eventBus)

	// HTTP handlers
	production := cfg.IsProduction()
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, responseCache, cfg.Finance.CacheTTL)
	invoiceHandler.Production = production
	sharedInvoiceHandler := handler.NewSharedInvoiceHandler(sharedInvoiceService)
	sharedInvoiceHandler.Production = production
	containerInvoiceHandler := handler.NewContainerInvoiceHandler(containerInvoiceService)
	containerInvoiceHandler.Production = production
	transactionHandler := handler.NewTransactionHandler(transactionService)
	transactionHandler.Production = production
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthChecker{
		"database": db,
	})

	mode := gin.DebugMode
	if production {
		mode = gin.ReleaseMode
	}
	engine := router.NewEngine(router.EngineConfig{
		Mode:           mode,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.TracingEnabled,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
	}, log)

	router.NewRouter(engine).
		Health(healthHandler.Health).
		Register(invoiceHandler).
		Register(sharedInvoiceHandler).
		Register(containerInvoiceHandler).
		Register(transactionHandler).
		Setup()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if dropped := eventBus.Dropped(); dropped > 0 {
		log.Warn("Events dropped while the bus was stopped", zap.Int64("count", dropped))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func shutdownTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return 30 * time.Second
	}
	return configured
}
