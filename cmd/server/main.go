package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/casaops/backend/internal/application/audit"
	billingapp "github.com/casaops/backend/internal/application/billing"
	bulkapp "github.com/casaops/backend/internal/application/bulk"
	eventapp "github.com/casaops/backend/internal/application/event"
	"github.com/casaops/backend/internal/application/jobs"
	notificationapp "github.com/casaops/backend/internal/application/notification"
	paymentapp "github.com/casaops/backend/internal/application/payment"
	printingapp "github.com/casaops/backend/internal/application/printing"
	propertyapp "github.com/casaops/backend/internal/application/property"
	reportapp "github.com/casaops/backend/internal/application/report"
	settingsapp "github.com/casaops/backend/internal/application/settings"
	tenancyapp "github.com/casaops/backend/internal/application/tenancy"
	"github.com/casaops/backend/internal/infrastructure/auth"
	"github.com/casaops/backend/internal/infrastructure/cache"
	"github.com/casaops/backend/internal/infrastructure/config"
	"github.com/casaops/backend/internal/infrastructure/event"
	"github.com/casaops/backend/internal/infrastructure/logger"
	"github.com/casaops/backend/internal/infrastructure/notify"
	"github.com/casaops/backend/internal/infrastructure/persistence"
	infraprinting "github.com/casaops/backend/internal/infrastructure/printing"
	"github.com/casaops/backend/internal/infrastructure/scheduler"
	"github.com/casaops/backend/internal/infrastructure/storage"
	"github.com/casaops/backend/internal/infrastructure/telemetry"
	"github.com/casaops/backend/internal/interfaces/http/handler"
	"github.com/casaops/backend/internal/interfaces/http/middleware"
	"github.com/casaops/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/casaops/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			CasaOps Backend API
//	@version		1.0
//	@description	Apartment and boarding house back office: branches, rooms, tenants, billing, payments and printing.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/casaops/backend
//	@contact.email	support@casaops.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CasaOps Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry: tracing, metrics and continuous profiling. All three are
	// no-ops when disabled so the wiring below stays unconditional.
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
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
		ServiceName:       cfg.Telemetry.ServiceName,
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

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.ProfilingServer,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileInuseSpace:   true,
		ProfileInuseObjects: true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
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

	// Database observability: query tracing and pool/query metrics
	if cfg.Telemetry.DBTraceEnabled {
		tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := tracingPlugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled {
		dbMetricsConfig := telemetry.DefaultDBMetricsConfig()
		dbMetricsConfig.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsConfig, log); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Initialize repositories
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	roomRepo := persistence.NewGormRoomRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	auditLogRepo := persistence.NewGormAuditLogRepository(db.DB)
	importHistoryRepo := persistence.NewGormImportHistoryRepository(db.DB)
	printJobRepo := persistence.NewGormPrintJobRepository(db.DB)
	printTemplateRepo := persistence.NewGormPrintTemplateRepository(db.DB)
	ledgerReportRepo := persistence.NewGormLedgerReportRepository(db.DB)
	occupancyReportRepo := persistence.NewGormOccupancyReportRepository(db.DB)
	orgProvider := persistence.NewGormOrgProvider(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	schedulerJobRepo := scheduler.NewSchedulerJobRepository(db.DB)

	// Business metrics sampled from the ledger and room inventory
	var businessMetrics *telemetry.BusinessMetrics
	if cfg.Telemetry.Enabled {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:             meterProvider.Meter("casaops/business"),
			Logger:            log,
			OccupancyProvider: persistence.NewGormOccupancyMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(context.Background(), orgProvider, 5*time.Minute)
		defer businessMetrics.Stop()
	}

	// Event plumbing: domain events are written to the outbox in the same
	// database as the aggregates, then relayed to the in-process bus.
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	eventPublisher := event.NewOutboxEventPublisher(db.DB, eventSerializer)
	eventBus := event.NewInMemoryEventBus(log)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Event.BatchSize
		processorConfig.PollInterval = cfg.Event.PollInterval
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Audit recording
	auditRecorder := auditapp.NewRecorder(auditLogRepo, log)
	auditService := auditapp.NewService(auditLogRepo)

	// Idempotency store for payment submission retries
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Notification sink: webhook delivery in production, log sink otherwise
	var notifySink notify.Sink
	switch {
	case cfg.Notification.Enabled && cfg.Notification.Channel == "webhook":
		notifySink = notify.NewWebhookSink(&notify.WebhookSinkConfig{
			URL:     cfg.Notification.WebhookURL,
			Timeout: cfg.Notification.Timeout,
		})
	default:
		notifySink = notify.NewLogSink(log)
	}
	notifier := notificationapp.NewNotifier(settingsRepo, tenantRepo, notifySink, log)

	// Application services. Bill and payment numbers come from the GORM
	// repositories, which own the per-org sequences.
	branchService := propertyapp.NewBranchService(branchRepo, roomRepo, auditRecorder, eventPublisher)
	roomService := propertyapp.NewRoomService(roomRepo, branchRepo, auditRecorder, eventPublisher)
	tenantService := tenancyapp.NewTenantService(
		tenantRepo, roomRepo, branchRepo, billRepo, paymentRepo,
		billRepo, paymentRepo, db, auditRecorder, eventPublisher,
	)
	billingService := billingapp.NewBillingService(
		billRepo, tenantRepo, branchRepo, settingsRepo,
		billRepo, businessMetrics, auditRecorder, eventPublisher,
	)
	paymentService := paymentapp.NewPaymentService(
		paymentRepo, billRepo, paymentRepo,
		idempotencyStore, db, businessMetrics, auditRecorder, eventPublisher,
	)
	settingsService := settingsapp.NewSettingsService(settingsRepo, auditRecorder, eventPublisher)
	reportService := reportapp.NewReportService(ledgerReportRepo, occupancyReportRepo)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	roomImportService := bulkapp.NewRoomImportService(
		importHistoryRepo, roomRepo, branchRepo, auditRecorder, eventPublisher, log,
	)
	tenantImportService := bulkapp.NewTenantImportService(
		importHistoryRepo, tenantRepo, roomRepo, branchRepo, auditRecorder, eventPublisher, log,
	)
	importHistoryService := bulkapp.NewImportHistoryService(importHistoryRepo)

	// Printing pipeline: templates, HTML-to-PDF renderer and PDF storage
	templateStore, err := infraprinting.NewTemplateStore(&infraprinting.TemplateStoreConfig{})
	if err != nil {
		log.Fatal("Failed to load print templates", zap.Error(err))
	}
	templateEngine := infraprinting.NewTemplateEngine()

	var pdfRenderer infraprinting.PDFRenderer
	switch cfg.Printing.Converter {
	case "wkhtmltopdf":
		pdfRenderer, err = infraprinting.NewWkhtmltopdfRenderer(&infraprinting.WkhtmltopdfConfig{
			BinaryPath:     cfg.Printing.WkhtmltopdfBin,
			DefaultTimeout: cfg.Printing.RenderTimeout,
		})
	default:
		pdfRenderer, err = infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
			DefaultTimeout: cfg.Printing.RenderTimeout,
			Headless:       true,
			DisableGPU:     true,
			NoSandbox:      true,
			Logger:         log,
		})
	}
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}

	var pdfStorage infraprinting.PDFStorage
	if cfg.Storage.Provider == "s3" {
		objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		pdfStorage = infraprinting.NewObjectPDFStorage(objectStorage, infraprinting.ObjectPDFStorageConfig{
			PresignExpiration: cfg.Storage.PresignExpiration,
			Logger:            log,
		})
	} else {
		pdfStorage, err = infraprinting.NewFileSystemStorage(&infraprinting.FileSystemStorageConfig{
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to initialize PDF storage", zap.Error(err))
		}
	}

	printDataProviders := []infraprinting.DataProvider{
		printingapp.NewReceiptDataProvider(paymentRepo, billRepo, tenantRepo, roomRepo, branchRepo),
		printingapp.NewStatementDataProvider(tenantRepo, billRepo, paymentRepo, roomRepo, branchRepo),
		printingapp.NewFinalBillDataProvider(billRepo, tenantRepo, roomRepo, branchRepo),
	}
	printingService := printingapp.NewPrintingService(
		printJobRepo, printTemplateRepo,
		templateStore, templateEngine, pdfRenderer, pdfStorage,
		printDataProviders,
		infraprinting.OrgInfo{Name: cfg.Notification.FromName},
		log, auditRecorder, eventPublisher,
	)

	// Nightly billing scheduler: bill generation, penalty sweep, overdue
	// notices and the print queue drain, plus a morning reminder trigger
	var printQueue jobs.PrintQueueDrainer
	if cfg.Printing.Enabled {
		printQueue = printingService
	}
	jobExecutor := jobs.NewBillingJobExecutor(
		billingService, billRepo, settingsRepo, notifier, printQueue, orgProvider, log,
	)

	cronHour, cronMinute, _ := scheduler.ParseCronSchedule(cfg.Scheduler.DailyCronSchedule)
	billingCron := scheduler.NewBillingCronScheduler(scheduler.BillingCronSchedulerConfig{
		Enabled:           cfg.Scheduler.Enabled,
		CronHour:          cronHour,
		CronMinute:        cronMinute,
		DailyCronSchedule: cfg.Scheduler.DailyCronSchedule,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        cfg.Scheduler.RetryDelay,
	}, jobExecutor, schedulerJobRepo, log)

	if cfg.Scheduler.Enabled {
		if err := billingCron.Start(context.Background()); err != nil {
			log.Fatal("Failed to start billing scheduler", zap.Error(err))
		}
		defer func() {
			if err := billingCron.Stop(context.Background()); err != nil {
				log.Error("Error stopping billing scheduler", zap.Error(err))
			}
		}()

		reminderTrigger := scheduler.NewCronTrigger(
			scheduler.DefaultCronTriggerConfig(), billingCron.Scheduler(), orgProvider, log,
		)
		if err := reminderTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reminder trigger", zap.Error(err))
		}
		defer func() {
			if err := reminderTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping reminder trigger", zap.Error(err))
			}
		}()
		log.Info("Billing scheduler started",
			zap.String("cron_schedule", cfg.Scheduler.DailyCronSchedule),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
		)
	}

	// Initialize HTTP handlers
	branchHandler := handler.NewBranchHandler(branchService)
	roomHandler := handler.NewRoomHandler(roomService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	billHandler := handler.NewBillHandler(billingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	auditHandler := handler.NewAuditHandler(auditService)
	reportHandler := handler.NewReportHandler(reportService)
	printHandler := handler.NewPrintHandler(printingService)
	importHandler := handler.NewImportHandler(roomImportService, tenantImportService, importHistoryService)
	schedulerHandler := handler.NewSchedulerHandler(billingCron)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("casaops/http"), true))
	}
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Token verification and org scoping for all API routes
	tokenVerifier := auth.NewTokenVerifier(cfg.Auth)
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Verifier: tokenVerifier,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	})
	orgMiddleware := middleware.OrgMiddlewareWithConfig(middleware.OrgMiddlewareConfig{
		HeaderEnabled: cfg.Auth.DevOrgHeader,
		JWTEnabled:    true,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Required: true,
		Logger:   log,
	})

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtMiddleware, orgMiddleware)

	// Property: branches and rooms
	branchRoutes := router.NewDomainGroup("branches", "/branches")
	branchRoutes.POST("", branchHandler.Create)
	branchRoutes.GET("", branchHandler.List)
	branchRoutes.GET("/:id", branchHandler.GetByID)
	branchRoutes.PUT("/:id", branchHandler.Update)
	branchRoutes.DELETE("/:id", middleware.RequireAdmin(), branchHandler.Delete)
	branchRoutes.POST("/:id/archive", branchHandler.Archive)
	branchRoutes.POST("/:id/restore", branchHandler.Restore)
	branchRoutes.PUT("/:id/rates", middleware.RequireManager(), branchHandler.UpdateRates)
	branchRoutes.GET("/:id/occupancy", branchHandler.GetOccupancy)
	branchRoutes.GET("/:id/vacant-rooms", roomHandler.ListVacantByBranch)

	roomRoutes := router.NewDomainGroup("rooms", "/rooms")
	roomRoutes.POST("", roomHandler.Create)
	roomRoutes.GET("", roomHandler.List)
	roomRoutes.GET("/:id", roomHandler.GetByID)
	roomRoutes.PUT("/:id", roomHandler.Update)
	roomRoutes.DELETE("/:id", middleware.RequireAdmin(), roomHandler.Delete)
	roomRoutes.POST("/:id/maintenance/start", roomHandler.StartMaintenance)
	roomRoutes.POST("/:id/maintenance/end", roomHandler.EndMaintenance)

	// Tenancy: move-in, move-out, transfers
	tenantRoutes := router.NewDomainGroup("tenants", "/tenants")
	tenantRoutes.POST("/move-in", tenantHandler.MoveIn)
	tenantRoutes.GET("", tenantHandler.List)
	tenantRoutes.GET("/:id", tenantHandler.GetByID)
	tenantRoutes.PUT("/:id", tenantHandler.Update)
	tenantRoutes.PUT("/:id/rent", middleware.RequireManager(), tenantHandler.SetRent)
	tenantRoutes.POST("/:id/move-out/preview", tenantHandler.PreviewMoveOut)
	tenantRoutes.POST("/:id/move-out", tenantHandler.MoveOut)
	tenantRoutes.POST("/:id/transfer", tenantHandler.Transfer)
	tenantRoutes.GET("/:id/outstanding-bills", billHandler.ListOutstandingByTenant)

	// Ledger: bills and payments
	billRoutes := router.NewDomainGroup("bills", "/bills")
	billRoutes.POST("", billHandler.Generate)
	billRoutes.GET("", billHandler.List)
	billRoutes.GET("/number/:number", billHandler.GetByNumber)
	billRoutes.GET("/:id", billHandler.GetByID)
	billRoutes.PUT("/:id/notes", billHandler.UpdateNotes)
	billRoutes.GET("/:id/payments", paymentHandler.ListByBill)
	billRoutes.POST("/generate-due", middleware.RequireAdmin(), billHandler.GenerateDue)

	paymentRoutes := router.NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("", paymentHandler.Record)
	paymentRoutes.POST("/bulk", paymentHandler.RecordBulk)
	paymentRoutes.GET("", paymentHandler.List)
	paymentRoutes.GET("/:id", paymentHandler.GetByID)
	paymentRoutes.POST("/:id/reverse", middleware.RequireManager(), paymentHandler.Reverse)

	// Org settings
	settingsRoutes := router.NewDomainGroup("settings", "/settings")
	settingsRoutes.GET("", settingsHandler.Get)
	settingsRoutes.PUT("", middleware.RequireAdmin(), settingsHandler.Update)

	// Audit trail
	auditRoutes := router.NewDomainGroup("audit", "/audit-logs")
	auditRoutes.GET("", auditHandler.Query)
	auditRoutes.GET("/:id", auditHandler.GetByID)

	// Reports with XLSX export
	reportRoutes := router.NewDomainGroup("reports", "/reports")
	reportRoutes.GET("/collection-summary", reportHandler.CollectionSummary)
	reportRoutes.GET("/collection-summary/export", reportHandler.ExportCollectionSummary)
	reportRoutes.GET("/arrears-aging", reportHandler.ArrearsAging)
	reportRoutes.GET("/arrears-aging/export", reportHandler.ExportArrearsAging)
	reportRoutes.GET("/monthly-income", reportHandler.MonthlyIncome)
	reportRoutes.GET("/monthly-income/export", reportHandler.ExportMonthlyIncome)
	reportRoutes.GET("/occupancy", reportHandler.OccupancySummary)
	reportRoutes.GET("/occupancy/export", reportHandler.ExportOccupancy)

	// Printing: receipts, statements, final bills
	printRoutes := router.NewDomainGroup("print", "/print")
	printRoutes.POST("/receipts", printHandler.EnqueueReceipt)
	printRoutes.POST("/statements", printHandler.EnqueueStatement)
	printRoutes.POST("/final-bills", printHandler.EnqueueFinalBill)
	printRoutes.GET("/jobs", printHandler.ListJobs)
	printRoutes.GET("/jobs/:id", printHandler.GetJob)
	printRoutes.GET("/jobs/:id/download", printHandler.Download)
	printRoutes.POST("/jobs/process", middleware.RequireAdmin(), printHandler.ProcessPending)

	// CSV imports
	importRoutes := router.NewDomainGroup("imports", "/imports")
	importRoutes.POST("/rooms", middleware.RequireAdmin(), importHandler.ImportRooms)
	importRoutes.POST("/rooms/validate", middleware.RequireAdmin(), importHandler.ValidateRooms)
	importRoutes.POST("/tenants", middleware.RequireAdmin(), importHandler.ImportTenants)
	importRoutes.POST("/tenants/validate", middleware.RequireAdmin(), importHandler.ValidateTenants)
	importRoutes.GET("", importHandler.List)
	importRoutes.GET("/:id", importHandler.GetByID)

	// Scheduler admin controls
	schedulerRoutes := router.NewDomainGroup("scheduler", "/scheduler")
	schedulerRoutes.GET("/status", middleware.RequireAdmin(), schedulerHandler.Status)
	schedulerRoutes.POST("/run", middleware.RequireAdmin(), schedulerHandler.TriggerRun)
	schedulerRoutes.POST("/jobs", middleware.RequireAdmin(), schedulerHandler.TriggerJob)

	// System: health, info and outbox administration
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/outbox/dead", middleware.RequireAdmin(), outboxHandler.GetDeadLetterEntries)
	systemRoutes.POST("/outbox/dead/retry-all", middleware.RequireAdmin(), outboxHandler.RetryAllDeadEntries)
	systemRoutes.GET("/outbox/stats", middleware.RequireAdmin(), outboxHandler.GetStats)
	systemRoutes.GET("/outbox/:id", middleware.RequireAdmin(), outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", middleware.RequireAdmin(), outboxHandler.RetryDeadEntry)

	r.Register(branchRoutes).
		Register(roomRoutes).
		Register(tenantRoutes).
		Register(billRoutes).
		Register(paymentRoutes).
		Register(settingsRoutes).
		Register(auditRoutes).
		Register(reportRoutes).
		Register(printRoutes).
		Register(importRoutes).
		Register(schedulerRoutes).
		Register(systemRoutes)

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
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			reqLog := logger.GetGinLogger(c)
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
