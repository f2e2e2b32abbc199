package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	integrationapp "github.com/skuswap/backend/internal/application/integration"
	"github.com/skuswap/backend/internal/infrastructure/auth"
	"github.com/skuswap/backend/internal/infrastructure/cache"
	"github.com/skuswap/backend/internal/infrastructure/config"
	"github.com/skuswap/backend/internal/infrastructure/ecommerce"
	"github.com/skuswap/backend/internal/infrastructure/logger"
	"github.com/skuswap/backend/internal/infrastructure/migration"
	"github.com/skuswap/backend/internal/infrastructure/persistence"
	"github.com/skuswap/backend/internal/infrastructure/telemetry"
	"github.com/skuswap/backend/internal/interfaces/http/handler"
	"github.com/skuswap/backend/internal/interfaces/http/middleware"
	"github.com/skuswap/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry comes first so the bridged logger and instrumented DB see it
	providers, err := telemetry.Setup(ctx, telemetry.ConfigFrom(&cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = providers.BridgeLogger(log, zap.InfoLevel)

	log.Info("Starting skuswap",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("shop", cfg.Shopify.ShopDomain),
	)

	db := openDatabase(ctx, cfg, providers, log)
	redisClient := openRedis(ctx, cfg, log)

	meter := providers.Meter("skuswap")
	webhookMetrics, err := telemetry.NewWebhookMetrics(meter)
	if err != nil {
		log.Warn("Webhook metrics unavailable", zap.Error(err))
		webhookMetrics = telemetry.NewNopWebhookMetrics()
	}

	// Platform adapter
	editor, err := ecommerce.NewShopifyOrderEditor(ecommerce.NewShopifyConfig(&cfg.Shopify))
	if err != nil {
		log.Fatal("Invalid Shopify configuration", zap.Error(err))
	}

	// Repositories
	mappingRepo := persistence.NewGormSkuMappingRepository(db.DB)
	logRepo := persistence.NewGormProcessingLogRepository(db.DB)

	// Application services
	deliveries := cache.NewIdempotencyStore(redisClient, log)
	replacementService := integrationapp.NewSkuReplacementService(integrationapp.SkuReplacementServiceConfig{
		Mappings:   mappingRepo,
		Editor:     editor,
		Locker:     cache.NewOrderLocker(redisClient, cfg.Webhook.LockWait, log),
		Logs:       logRepo,
		Deliveries: deliveries,
		Metrics:    webhookMetrics,
		LockTTL:    cfg.Webhook.LockTTL,
		DedupeTTL:  cfg.Webhook.DedupeTTL,
	})
	mappingService := integrationapp.NewSkuMappingService(mappingRepo)
	logService := integrationapp.NewProcessingLogService(logRepo)
	dispatcher := integrationapp.NewWebhookDispatcher(cfg.Webhook.MaxConcurrent, log)

	if cfg.JWT.Secret == "" {
		log.Warn("jwt.secret is empty; admin endpoints will reject every request")
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	healthChecks := map[string]handler.HealthCheck{"database": db.Ping}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	handlers := router.Handlers{
		Webhook: handler.NewShopifyWebhookHandler(handler.ShopifyWebhookHandlerConfig{
			Verifier:   ecommerce.NewWebhookVerifier(cfg.Shopify.WebhookSecret),
			Processor:  replacementService,
			Dispatcher: dispatcher,
			Metrics:    webhookMetrics,
			MaxPayload: cfg.Shopify.MaxWebhookPayloadSize,
		}),
		SkuMapping:    handler.NewSkuMappingHandler(mappingService),
		ProcessingLog: handler.NewProcessingLogHandler(logService),
		Health:        handler.NewHealthHandler(cfg.App.Name, telemetry.ServiceVersion, healthChecks),
		AdminAuth:     middleware.JWTAuth(jwtService),
	}

	engine := newEngine(cfg, meter, log)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithUnversionedAlias("/api"))
	router.RegisterRoutes(engine, r, handlers)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Acknowledged webhooks still have to be processed before the stores close
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error("Webhook tasks still running at shutdown", zap.Error(err))
	}
	if err := deliveries.Close(); err != nil {
		log.Error("Error closing delivery store", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openDatabase connects, instruments and migrates the database
func openDatabase(ctx context.Context, cfg *config.Config, providers *telemetry.Providers, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabase(ctx, &cfg.Database,
		persistence.WithGormLogger(gormLog),
		persistence.WithLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         providers.IsEnabled() && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        telemetry.DBSystemForDriver(cfg.Database.Driver),
	}, log); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}
	if providers.IsEnabled() {
		if _, err := telemetry.RegisterDBMetrics(db.DB, sqlDB, providers.Meter("skuswap.db")); err != nil {
			log.Warn("Database metrics unavailable", zap.Error(err))
		}
	}

	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
		return db
	}

	m, err := migration.New(sqlDB, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := m.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	return db
}

// openRedis returns nil when Redis is not configured
func openRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) redis.UniversalClient {
	if !cfg.Redis.Enabled() {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	return client
}

// newEngine builds the gin engine with the middleware stack
func newEngine(cfg *config.Config, meter metric.Meter, log *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Warn("HTTP metrics unavailable", zap.Error(err))
		httpMetrics, _ = middleware.HTTPMetrics(nil)
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Server span, then request/webhook id attributes
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Metrics - Request counters and latency
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(httpMetrics)
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(&cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	return engine
}
