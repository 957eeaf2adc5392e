package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	channelapp "github.com/enterprise/backend/internal/application/channel"
	enterpriseapp "github.com/enterprise/backend/internal/application/enterprise"
	"github.com/enterprise/backend/internal/infrastructure/auth"
	"github.com/enterprise/backend/internal/infrastructure/cache"
	"github.com/enterprise/backend/internal/infrastructure/channels"
	"github.com/enterprise/backend/internal/infrastructure/config"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
	"github.com/enterprise/backend/internal/infrastructure/logger"
	"github.com/enterprise/backend/internal/infrastructure/persistence"
	"github.com/enterprise/backend/internal/infrastructure/scheduler"
	"github.com/enterprise/backend/internal/infrastructure/telemetry"
	"github.com/enterprise/backend/internal/interfaces/http/handler"
	"github.com/enterprise/backend/internal/interfaces/http/middleware"
	"github.com/enterprise/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Enterprise Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Shared Redis client for token blacklisting and content metadata caching
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))

	// Initialize OpenTelemetry tracing and metrics
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize repositories
	customerRepo := persistence.NewGormEnterpriseCustomerRepository(db.DB)
	customerUserRepo := persistence.NewGormCustomerUserRepository(db.DB)
	catalogRepo := persistence.NewGormEnterpriseCatalogRepository(db.DB)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	channelConfigRepo := persistence.NewGormChannelConfigRepository(db.DB)
	learnerAuditRepo := persistence.NewGormLearnerAuditRepository(db.DB)
	contentAuditRepo := persistence.NewGormContentAuditRepository(db.DB)

	// Platform API clients share one worker-token source
	lmsCfg := &lmsapi.Config{
		LMSBaseURL:     cfg.LMS.BaseURL,
		CatalogBaseURL: cfg.LMS.CatalogBaseURL,
		WorkerUsername: cfg.LMS.WorkerUsername,
		JWTSecret:      cfg.LMS.JWTSecret,
		JWTIssuer:      cfg.LMS.JWTIssuer,
		TokenLifetime:  cfg.LMS.TokenLifetime,
		Timeout:        cfg.LMS.Timeout,
	}
	lmsTokens := lmsapi.NewTokenSource(lmsCfg)
	catalogClient := lmsapi.NewCatalogClient(lmsCfg, lmsTokens)
	enrollmentClient := lmsapi.NewEnrollmentClient(lmsCfg, lmsTokens)
	certificatesClient := lmsapi.NewCertificatesClient(lmsCfg, lmsTokens)
	gradesClient := lmsapi.NewGradesClient(lmsCfg, lmsTokens)
	courseClient := lmsapi.NewCourseClient(lmsCfg)
	thirdPartyAuthClient := lmsapi.NewThirdPartyAuthClient(lmsCfg, lmsTokens)

	// Content metadata fetches go through the Redis cache
	contentCache := cache.NewContentMetadataCacheWithClient(redisClient, cfg.Cache.ContentMetadataTTL)
	contentFetcher := cache.NewCachingContentFetcher(catalogClient, contentCache)

	// Integrated channel clients. Credentials come from per-customer
	// configurations applied at startup, so the adapters start unconfigured.
	sapsfClient, err := channels.NewSAPSFAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize SAP SuccessFactors client", zap.Error(err))
	}
	degreedClient, err := channels.NewDegreedAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize Degreed client", zap.Error(err))
	}
	moodleClient, err := channels.NewMoodleAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize Moodle client", zap.Error(err))
	}
	cornerstoneClient, err := channels.NewCornerstoneAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize Cornerstone client", zap.Error(err))
	}
	registry := channels.NewClientRegistry(sapsfClient, degreedClient, moodleClient, cornerstoneClient)

	// Initialize application services
	customerService := enterpriseapp.NewCustomerService(customerRepo, customerUserRepo, log)
	catalogService := enterpriseapp.NewCatalogService(catalogRepo, customerRepo, catalogClient, log)
	enrollmentService := enterpriseapp.NewEnrollmentService(
		enrollmentRepo, customerUserRepo, customerRepo, enrollmentClient, catalogClient, log,
	)

	// Channel sync services
	learnerExporter := channelapp.NewLearnerExporter(
		enrollmentRepo, customerUserRepo, certificatesClient, gradesClient, courseClient, thirdPartyAuthClient, log,
	)
	learnerTransmitter := channelapp.NewLearnerTransmitter(registry, learnerAuditRepo, log)
	contentExporter := channelapp.NewContentMetadataExporter(catalogRepo, contentFetcher, log)
	contentTransmitter := channelapp.NewContentMetadataTransmitter(registry, contentAuditRepo, log)
	syncService := channelapp.NewSyncService(
		channelConfigRepo, customerRepo, learnerExporter, learnerTransmitter, contentExporter, contentTransmitter, log,
	)
	unlinkService := channelapp.NewInactiveLearnerUnlinker(
		channelConfigRepo, customerUserRepo, sapsfClient, thirdPartyAuthClient, log,
	)
	configService := channelapp.NewConfigurationService(channelConfigRepo, customerRepo, registry, log)

	// Push stored channel credentials into the clients before anything syncs
	applied, err := configService.ApplyAll(context.Background())
	if err != nil {
		log.Fatal("Failed to apply channel configurations", zap.Error(err))
	}
	log.Info("Channel configurations applied", zap.Int("count", applied))

	// Channel sync scheduler. The scheduler always runs so manual triggers
	// work; the cron trigger only starts when scheduling is enabled.
	executor := scheduler.NewChannelSyncExecutor(syncService, unlinkService, log)
	if cfg.Telemetry.Enabled {
		syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
			Meter:  meterProvider.Meter("channel_sync"),
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to initialize sync metrics", zap.Error(err))
		}
		executor.SetMetrics(syncMetrics)
	}

	schedulerConfig := scheduler.DefaultChannelSyncSchedulerConfig()
	if cfg.Scheduler.JobTimeout > 0 {
		schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
	}
	syncScheduler, err := scheduler.NewChannelSyncScheduler(schedulerConfig, executor, log)
	if err != nil {
		log.Fatal("Failed to initialize channel sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start channel sync scheduler", zap.Error(err))
	}
	defer func() {
		if err := syncScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping channel sync scheduler", zap.Error(err))
		}
	}()

	cronTrigger, err := scheduler.NewChannelSyncCronTrigger(scheduler.ChannelSyncCronTriggerConfig{
		CheckInterval:   time.Minute,
		LearnerSchedule: cfg.Scheduler.LearnerCronSchedule,
		ContentSchedule: cfg.Scheduler.ContentCronSchedule,
		UnlinkSchedule:  cfg.Scheduler.UnlinkCronSchedule,
	}, syncScheduler, log)
	if err != nil {
		log.Fatal("Failed to initialize channel sync cron trigger", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := cronTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start channel sync cron trigger", zap.Error(err))
		}
		defer func() {
			if err := cronTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping channel sync cron trigger", zap.Error(err))
			}
		}()
		log.Info("Channel sync cron trigger started",
			zap.String("learner_schedule", cfg.Scheduler.LearnerCronSchedule),
			zap.String("content_schedule", cfg.Scheduler.ContentCronSchedule),
			zap.String("unlink_schedule", cfg.Scheduler.UnlinkCronSchedule),
		)
	}

	// Auth services
	jwtService := auth.NewJWTService(cfg.JWT)
	tokenBlacklist := auth.NewRedisTokenBlacklistWithClient(redisClient)

	// Initialize HTTP handlers
	customerHandler := handler.NewCustomerHandler(customerService, catalogService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	channelConfigHandler := handler.NewChannelConfigHandler(configService)
	syncHandler := handler.NewSyncHandler(cronTrigger, syncScheduler)
	authHandler := handler.NewAuthHandler(jwtService, tokenBlacklist)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("http_server"), true))
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Rate limiting (per client IP)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/auth/refresh",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Register domain route groups
	r.Register(customerHandler).
		Register(catalogHandler).
		Register(enrollmentHandler).
		Register(channelConfigHandler).
		Register(syncHandler).
		Register(authHandler)

	// System routes
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
