package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-crm-api/api/swagger"
	"github.com/noah-isme/academy-crm-api/internal/handler"
	"github.com/noah-isme/academy-crm-api/internal/middleware"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/internal/repository"
	"github.com/noah-isme/academy-crm-api/internal/service"
	"github.com/noah-isme/academy-crm-api/pkg/cache"
	"github.com/noah-isme/academy-crm-api/pkg/config"
	"github.com/noah-isme/academy-crm-api/pkg/database"
	"github.com/noah-isme/academy-crm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-crm-api/pkg/middleware/requestid"
)

// @title Academy CRM API
// @version 1.0.0
// @description Lead lifecycle, daily worklist and batch scheduling engine
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

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if cfg.Worklist.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		if redisClient != nil {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Worklist.CacheTTL, logr, cfg.Worklist.CacheEnabled)

	leadRepo := repository.NewLeadRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	userRepo := repository.NewUserRepository(db)

	scheme := models.MilestoneScheme(cfg.Engine.DefaultMilestoneSet)

	lifecycleSvc := service.NewLifecycleService(logr)
	occurrenceSvc := service.NewOccurrenceService(batchRepo, logr)
	retentionSvc := service.NewRetentionService(studentRepo, attendanceRepo, logr, service.RetentionConfig{
		RenewalWindowDays:   cfg.Engine.RenewalWindowDays,
		AbsenceStreakWindow: cfg.Engine.AbsenceStreakWindow,
		MilestoneLookback:   cfg.Engine.MilestoneLookback,
		DefaultScheme:       scheme,
	})
	worklistSvc := service.NewWorklistService(leadRepo, retentionSvc, cacheSvc, logr, service.WorklistConfig{
		UpcomingWindowDays:  cfg.Engine.UpcomingWindowDays,
		NurtureReengageDays: cfg.Engine.NurtureReengageDays,
		ReviewSlotHour:      cfg.Engine.ReviewSlotHour,
		RenewalWindowDays:   cfg.Engine.RenewalWindowDays,
		DefaultScheme:       scheme,
		CacheTTL:            cfg.Worklist.CacheTTL,
	})
	leadSvc := service.NewLeadService(leadRepo, lifecycleSvc, worklistSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academy-crm-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var nudgeSvc *service.NudgeService
	if cfg.Nudges.Enabled {
		nudgeSvc = service.NewNudgeService(retentionSvc, leadRepo, service.NewLogNotifier(logr), metricsSvc, logr, service.NudgeServiceConfig{
			Workers:     cfg.Nudges.Workers,
			BufferSize:  cfg.Nudges.BufferSize,
			MaxRetries:  cfg.Nudges.MaxRetries,
			RetryDelay:  cfg.Nudges.RetryDelay,
			MaxPerLead:  cfg.Engine.MaxNudgesPerLead,
			RenewalDays: cfg.Engine.RenewalWindowDays,
			Scheme:      scheme,
		})
		nudgeSvc.Start(ctx)
		defer nudgeSvc.Stop()
	}

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(worklistSvc, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	leadHandler := handler.NewLeadHandler(leadSvc, lifecycleSvc)
	worklistHandler := handler.NewWorklistHandler(worklistSvc, exportSvc)
	batchHandler := handler.NewBatchHandler(batchRepo, occurrenceSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceRepo, studentRepo, retentionSvc)
	retentionHandler := handler.NewRetentionHandler(retentionSvc, nudgeSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	// The preference form is linked from outreach messages; no login.
	api.POST("/public/leads/:id/preferences", leadHandler.SubmitPreferences)

	protected := api.Group("", middleware.JWT(authSvc))

	leads := protected.Group("/leads")
	leads.GET("", leadHandler.List)
	leads.GET("/off-ramp-requirements", leadHandler.OffRampRequirements)
	leads.GET("/:id", leadHandler.Get)
	leads.PUT("/:id/status", leadHandler.Transition)
	leads.POST("/:id/status/validate", leadHandler.ValidateTransition)
	leads.POST("/:id/status/revert", leadHandler.Revert)
	leads.PUT("/:id/followup", leadHandler.ScheduleFollowup)

	worklist := protected.Group("/worklist")
	worklist.GET("", worklistHandler.TripleStack)
	worklist.GET("/filters/:name", worklistHandler.SmartFilter)
	worklist.GET("/export", worklistHandler.Export)

	batches := protected.Group("/batches")
	batches.GET("", batchHandler.List)
	batches.GET("/occurrences", batchHandler.Occurrences)
	batches.GET("/:id/sessions", batchHandler.SessionsBetween)
	batches.GET("/:id/end-date", batchHandler.EndDate)

	attendance := protected.Group("/attendance")
	attendance.POST("", attendanceHandler.Mark)
	attendance.POST("/bulk", attendanceHandler.BulkMark)
	attendance.GET("/batches/:id/summary", attendanceHandler.SessionSummary)

	retention := protected.Group("/retention")
	retention.GET("/renewals", retentionHandler.Renewals)
	retention.GET("/milestones", retentionHandler.Milestones)
	retention.GET("/students/:leadId", retentionHandler.StudentView)
	retention.GET("/students/:leadId/milestone", retentionHandler.StudentMilestone)
	retention.GET("/students/:leadId/indicator", retentionHandler.StudentIndicator)
	retention.POST("/nudges/dispatch", middleware.RequireRoles(models.RoleAdmin), retentionHandler.DispatchNudges)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
