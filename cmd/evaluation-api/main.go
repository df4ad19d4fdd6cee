package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/nonprofit-edge/evaluation-api/api/swagger"
	"github.com/nonprofit-edge/evaluation-api/internal/handler"
	"github.com/nonprofit-edge/evaluation-api/internal/mailer"
	"github.com/nonprofit-edge/evaluation-api/internal/middleware"
	"github.com/nonprofit-edge/evaluation-api/internal/repository"
	"github.com/nonprofit-edge/evaluation-api/internal/service"
	"github.com/nonprofit-edge/evaluation-api/pkg/cache"
	"github.com/nonprofit-edge/evaluation-api/pkg/config"
	"github.com/nonprofit-edge/evaluation-api/pkg/database"
	"github.com/nonprofit-edge/evaluation-api/pkg/export"
	"github.com/nonprofit-edge/evaluation-api/pkg/logger"
	corsmiddleware "github.com/nonprofit-edge/evaluation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nonprofit-edge/evaluation-api/pkg/middleware/requestid"
)

// @title CEO Evaluation API
// @version 1.0.0
// @description Board-driven CEO evaluation lifecycle: launch, collect, aggregate, report
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

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, progress caching disabled", "error", err)
		cacheService = service.NewCacheService(nil, metrics, cfg.Progress.CacheTTL, logr, false)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient)
		defer cacheRepo.Close()
		cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Progress.CacheTTL, logr, true)
	}

	evaluationRepo := repository.NewEvaluationRepository(db)
	evaluatorRepo := repository.NewEvaluatorRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	resultRepo := repository.NewResultRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()

	emailService := service.NewEmailService(mailer.NewResendMailer(cfg.Mailer), emailLogRepo, metrics, cfg.Mailer, cfg.App, logr)
	aggregationService := service.NewAggregationService(resultRepo, cacheService, logr)
	notificationService := service.NewNotificationService(emailService, logr)

	evaluationService := service.NewEvaluationService(evaluationRepo, evaluatorRepo, aggregationService, emailService, cacheService, validate, logr)
	submissionService := service.NewSubmissionService(evaluatorRepo, responseRepo, aggregationService, notificationService, emailService, metrics, validate, logr)
	reportService := service.NewReportService(evaluationRepo, aggregationService, emailService, export.NewPDFExporter(), cfg.Reports.MaxAdditionalRecipients, validate, logr)
	reminderService := service.NewReminderService(evaluationRepo, evaluatorRepo, aggregationService, emailService, cfg.Reminders.Workers, logr)
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Reminders.Enabled {
		reminderService.Start(rootCtx)
		defer reminderService.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	authHandler := handler.NewAuthHandler(authService)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, reportService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	reminderHandler := handler.NewReminderHandler(reminderService, cfg.App.BaseURL)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		// Public evaluator routes, authenticated by token alone.
		api.GET("/eval/:token", submissionHandler.Lookup)
		api.POST("/eval/:token", submissionHandler.Submit)
		api.GET("/unsubscribe", reminderHandler.Unsubscribe)

		cron := api.Group("/reminders", middleware.CronSecret(cfg.Reminders.CronSecret))
		cron.POST("/run", reminderHandler.Run)

		admin := api.Group("", middleware.JWT(authService))
		admin.GET("/auth/me", authHandler.Me)
		admin.POST("/evaluations", evaluationHandler.Create)
		admin.GET("/evaluations", evaluationHandler.List)
		admin.GET("/evaluations/:id/progress", evaluationHandler.Progress)
		admin.GET("/evaluations/:id/progress/export", evaluationHandler.ExportProgress)
		admin.POST("/evaluations/:id/close", evaluationHandler.Close)
		admin.POST("/evaluations/:id/report", evaluationHandler.SendReport)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down", zap.String("reason", "signal"))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
