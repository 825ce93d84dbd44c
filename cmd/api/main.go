package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sebastiansarmientoforjan-maker/students-meds/api/swagger"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/handler"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/middleware"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/repository"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/service"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/cache"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/config"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/database"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/jobs"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/logger"
	corsmiddleware "github.com/sebastiansarmientoforjan-maker/students-meds/pkg/middleware/cors"
	reqidmiddleware "github.com/sebastiansarmientoforjan-maker/students-meds/pkg/middleware/requestid"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/storage"
)

// @title Students Meds API
// @version 1.0.0
// @description Medication dispensation console for the school infirmary
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	medicationRepo := repository.NewMedicationRepository(db)
	administrationRepo := repository.NewAdministrationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Roster.CacheTTL, logr, cfg.Roster.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	studentSvc := service.NewStudentService(studentRepo, medicationRepo, userRepo, nil, logr)
	medicationSvc := service.NewMedicationService(medicationRepo, userRepo, nil, logr)
	administrationSvc := service.NewAdministrationService(administrationRepo, studentRepo, medicationRepo, cacheSvc, userRepo, nil, logr)
	rosterSvc := service.NewRosterService(studentRepo, medicationRepo, administrationRepo, cacheSvc, cfg.Roster.CacheTTL, logr)

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(administrationRepo, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, nil, nil)

	reportWorker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportQueue.Start(ctx)
	defer reportQueue.Stop()

	reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	medicationHandler := handler.NewMedicationHandler(medicationSvc)
	administrationHandler := handler.NewAdministrationHandler(administrationSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	reportHandler := handler.NewReportHandler(reportSvc, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleNurse)

	students := api.Group("/students", middleware.JWT(authSvc), staff)
	{
		students.GET("", studentHandler.List)
		students.POST("", studentHandler.Create)
		students.GET("/:id", studentHandler.Get)
		students.PUT("/:id", studentHandler.Update)
		students.GET("/:id/medications", studentHandler.ListMedications)
		students.PUT("/:id/medications", studentHandler.SyncMedications)
		students.DELETE("/:id", studentHandler.Delete)
	}

	medications := api.Group("/medications", middleware.JWT(authSvc), staff)
	{
		medications.GET("", medicationHandler.List)
		medications.POST("", medicationHandler.Create)
		medications.POST("/extra", medicationHandler.CreateExtra)
		medications.GET("/:id", medicationHandler.Get)
		medications.PUT("/:id", medicationHandler.Update)
		medications.DELETE("/:id", medicationHandler.Delete)
	}

	// Dose recording stays available to unauthenticated kiosk clients; the
	// actor falls back to the anonymous UID when no token is presented.
	api.GET("/roster", middleware.OptionalJWT(authSvc), rosterHandler.Get)
	api.POST("/administrations", middleware.OptionalJWT(authSvc), administrationHandler.Record)
	api.GET("/administrations", middleware.JWT(authSvc), staff, administrationHandler.List)

	reports := api.Group("/reports")
	{
		reports.POST("", middleware.JWT(authSvc), staff, middleware.Audit(userRepo, models.AuditActionReportCreate, "reports"), reportHandler.GenerateReport)
		reports.GET("/:id", middleware.JWT(authSvc), staff, reportHandler.ReportStatus)
		// Download authenticates via the signed token itself.
		reports.GET("/download/:token", reportHandler.DownloadReport)
	}

	api.GET("/system/metrics", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
