package main

import (
	"context"
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

	_ "github.com/MarivaldoDev/sistema-escolar/api/swagger"
	"github.com/MarivaldoDev/sistema-escolar/internal/handler"
	"github.com/MarivaldoDev/sistema-escolar/internal/middleware"
	"github.com/MarivaldoDev/sistema-escolar/internal/repository"
	"github.com/MarivaldoDev/sistema-escolar/internal/router"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	"github.com/MarivaldoDev/sistema-escolar/pkg/cache"
	"github.com/MarivaldoDev/sistema-escolar/pkg/config"
	"github.com/MarivaldoDev/sistema-escolar/pkg/database"
	"github.com/MarivaldoDev/sistema-escolar/pkg/jobs"
	"github.com/MarivaldoDev/sistema-escolar/pkg/logger"
	"github.com/MarivaldoDev/sistema-escolar/pkg/mailer"
	"github.com/MarivaldoDev/sistema-escolar/pkg/storage"
	corsmiddleware "github.com/MarivaldoDev/sistema-escolar/pkg/middleware/cors"
	reqidmiddleware "github.com/MarivaldoDev/sistema-escolar/pkg/middleware/requestid"
)

// @title Sistema Escolar API
// @version 1.0.0
// @description School management core: accounts, rosters, subjects, grades, attendance and report cards
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	evaluationService := service.NewEvaluationService()
	registrationService := service.NewRegistrationService(accountRepo, logr)
	accessService := service.NewAccessService(subjectRepo, teamRepo, logr)

	notificationService := service.NewNotificationService(notificationRepo, validate, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})

	reportService := service.NewReportService(
		cacheRepo,
		teamRepo,
		subjectRepo,
		gradeRepo,
		accountRepo,
		evaluationService,
		metricsService,
		service.ReportConfig{
			CacheEnabled: cfg.Reports.CacheEnabled,
			CacheTTL:     cfg.Reports.CacheTTL,
		},
		logr,
	)

	exportArchive, err := storage.NewArchive(cfg.Exports.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
	}
	exportService := service.NewExportService(
		exportArchive,
		storage.NewLinkSigner(cfg.Exports.SignSecret, cfg.Exports.LinkTTL),
		reportService,
		logr,
	)

	gradeService := service.NewGradeService(gradeRepo, periodRepo, accessService, evaluationService, notificationService, reportService, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, accessService, validate, logr)
	accountService := service.NewAccountService(accountRepo, registrationService, mailer.New(cfg.Mail, logr), validate, logr)
	authService := service.NewAuthService(accountRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "sistema-escolar",
	})
	teamService := service.NewTeamService(teamRepo, accountRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, accountRepo, gradeRepo, attendanceRepo, reportService, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService.Start(ctx)
	defer notificationService.Stop()

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.Register(r, cfg.APIPrefix, authService, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Accounts:      handler.NewAccountHandler(accountService),
		Teams:         handler.NewTeamHandler(teamService),
		Subjects:      handler.NewSubjectHandler(subjectService),
		Grades:        handler.NewGradeHandler(gradeService, metricsService),
		Attendance:    handler.NewAttendanceHandler(attendanceService, metricsService),
		Notifications: handler.NewNotificationHandler(notificationService, metricsService),
		Reports:       handler.NewReportHandler(reportService, exportService),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
