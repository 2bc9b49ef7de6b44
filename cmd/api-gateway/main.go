package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/attendance-insight-api/api/swagger"
	"github.com/noah-isme/attendance-insight-api/internal/handler"
	"github.com/noah-isme/attendance-insight-api/internal/middleware"
	"github.com/noah-isme/attendance-insight-api/internal/repository"
	"github.com/noah-isme/attendance-insight-api/internal/service"
	"github.com/noah-isme/attendance-insight-api/pkg/answer"
	"github.com/noah-isme/attendance-insight-api/pkg/cache"
	"github.com/noah-isme/attendance-insight-api/pkg/config"
	"github.com/noah-isme/attendance-insight-api/pkg/database"
	"github.com/noah-isme/attendance-insight-api/pkg/jobs"
	"github.com/noah-isme/attendance-insight-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-insight-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-insight-api/pkg/middleware/requestid"
)

// @title Attendance Insight API
// @version 0.1.0
// @description Attendance reporting, alerting, and natural-language query service
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	attendanceRepo := repository.NewAttendanceRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, logr, cfg.Reports.CacheTTL)
	} else {
		logr.Sugar().Infow("redis disabled, using in-process report cache")
		cacheSvc = service.NewCacheService(repository.NewMemoryCacheRepository(), logr, cfg.Reports.CacheTTL)
	}

	metricsSvc := service.NewMetricsService()

	reportSvc := service.NewReportService(attendanceRepo, cacheSvc, metricsSvc, logr, service.ReportServiceConfig{
		TrendFlatBand: cfg.Reports.TrendFlatBand,
		DefaultLimit:  cfg.Reports.DefaultLimit,
		MaxLimit:      cfg.Reports.MaxLimit,
	})

	alertSvc := service.NewAlertService(alertRepo, attendanceRepo, metricsSvc, logr, service.AlertServiceConfig{
		RollingDays: cfg.Alerts.RollingDays,
	})

	alertQueue := jobs.NewQueue("alert-evaluation", func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case service.JobTypeEvaluateAlerts:
			_, err := alertSvc.Evaluate(ctx)
			return err
		default:
			logr.Sugar().Warnw("unknown job type", "type", job.Type)
			return nil
		}
	}, jobs.QueueConfig{
		Workers:    cfg.Alerts.EvalWorkers,
		BufferSize: cfg.Alerts.QueueBuffer,
		MaxRetries: cfg.Alerts.EvalRetries,
		RetryDelay: cfg.Alerts.RetryDelay,
		Logger:     logr,
	})
	alertQueue.Start(context.Background())
	defer alertQueue.Stop()

	attendanceSvc := service.NewAttendanceService(attendanceRepo, cacheSvc, alertQueue, logr)
	exportSvc := service.NewExportService(metricsSvc, logr)

	var querySvc *service.QueryService
	if cfg.Answer.BaseURL != "" {
		answerClient := answer.NewClient(cfg.Answer.BaseURL,
			answer.WithHTTPClient(&http.Client{Timeout: cfg.Answer.Timeout}),
			answer.WithRetryConfig(answer.RetryConfig{
				MaxAttempts: cfg.Answer.MaxAttempts,
				BackoffBase: cfg.Answer.BackoffBase,
				BackoffMax:  cfg.Answer.BackoffMax,
			}),
			answer.WithLogger(logr),
		)
		querySvc = service.NewQueryService(reportSvc, alertRepo, answerClient, metricsSvc, logr)
	} else {
		querySvc = service.NewQueryService(reportSvc, alertRepo, nil, metricsSvc, logr)
	}

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)
	queryHandler := handler.NewQueryHandler(querySvc)
	exportHandler := handler.NewExportHandler(reportSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/attendance", attendanceHandler.Record)
		api.GET("/attendance", attendanceHandler.List)
		api.POST("/calendar/days-off", attendanceHandler.ScheduleDayOff)
		api.GET("/calendar/days-off", attendanceHandler.ListDaysOff)

		api.POST("/reports", reportHandler.Generate)
		api.POST("/exports", exportHandler.Export)
		api.POST("/query", queryHandler.Ask)

		api.POST("/alerts/thresholds", alertHandler.CreateThreshold)
		api.GET("/alerts/thresholds", alertHandler.ListThresholds)
		api.PATCH("/alerts/thresholds/:id", alertHandler.UpdateThreshold)
		api.POST("/alerts/thresholds/:id/compare", alertHandler.CompareThreshold)
		api.GET("/alerts/thresholds/:id/effectiveness", alertHandler.Effectiveness)
		api.GET("/alerts", alertHandler.List)
		api.POST("/alerts/evaluate", alertHandler.Evaluate)
		api.DELETE("/alerts/:id", alertHandler.Dismiss)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
