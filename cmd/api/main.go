package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edutrack/edutrack-api/api/swagger"
	"github.com/edutrack/edutrack-api/internal/handler"
	"github.com/edutrack/edutrack-api/internal/middleware"
	"github.com/edutrack/edutrack-api/internal/repository"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/session"
	"github.com/edutrack/edutrack-api/pkg/cache"
	"github.com/edutrack/edutrack-api/pkg/config"
	"github.com/edutrack/edutrack-api/pkg/database"
	"github.com/edutrack/edutrack-api/pkg/export"
	"github.com/edutrack/edutrack-api/pkg/jobs"
	"github.com/edutrack/edutrack-api/pkg/logger"
	corsmiddleware "github.com/edutrack/edutrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edutrack/edutrack-api/pkg/middleware/requestid"
	"github.com/edutrack/edutrack-api/pkg/storage"
)

// @title EduTrack API
// @version 1.0.0
// @description Accounts, assessments and attendance for schools
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	auditRecorder := service.NewAuditRecorder(userRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     logr,
	})
	auditRecorder.Start(context.Background())
	defer auditRecorder.Stop()

	sessions := session.NewManager(logr)

	authService := service.NewAuthService(userRepo, sessions, auditRecorder, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userService := service.NewUserService(userRepo, auditRecorder, nil, logr)
	metricsService := service.NewMetricsService()
	assessmentService := service.NewAssessmentService(assessmentRepo, cacheRepo, metricsService, auditRecorder, nil, logr, cfg.Cache.AssessmentSummaryTTL)
	attendanceService := service.NewAttendanceService(attendanceRepo, cacheRepo, metricsService, nil, logr, cfg.Cache.AttendanceSummaryTTL)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportService := service.NewExportService(
		assessmentRepo,
		attendanceRepo,
		userRepo,
		exportStore,
		signer,
		map[export.Format]service.Renderer{
			export.FormatCSV: export.NewCSVExporter(),
			export.FormatPDF: export.NewPDFExporter(),
		},
		cfg.Exports.Retention,
		auditRecorder,
		nil,
		logr,
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router := &handler.Router{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(userService),
		Assessments: handler.NewAssessmentHandler(assessmentService),
		Attendance:  handler.NewAttendanceHandler(attendanceService),
		Exports:     handler.NewExportHandler(exportService),
		Metrics:     handler.NewMetricsHandler(metricsService),
		AuthService: authService,
	}
	router.Register(r, cfg.APIPrefix)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
