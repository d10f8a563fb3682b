package main

import (
	"context"
	"errors"
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

	_ "github.com/slotwise/caseload-api/api/swagger"
	"github.com/slotwise/caseload-api/internal/handler"
	"github.com/slotwise/caseload-api/internal/middleware"
	"github.com/slotwise/caseload-api/internal/repository"
	"github.com/slotwise/caseload-api/internal/service"
	"github.com/slotwise/caseload-api/pkg/cache"
	"github.com/slotwise/caseload-api/pkg/config"
	"github.com/slotwise/caseload-api/pkg/database"
	"github.com/slotwise/caseload-api/pkg/jobs"
	"github.com/slotwise/caseload-api/pkg/logger"
	corsmiddleware "github.com/slotwise/caseload-api/pkg/middleware/cors"
	reqidmiddleware "github.com/slotwise/caseload-api/pkg/middleware/requestid"
)

// @title Caseload Scheduling API
// @version 1.0.0
// @description Weekly therapy session scheduling for school service providers
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

	rules, err := service.RulesFromConfig(cfg.Scheduler)
	if err != nil {
		logr.Sugar().Fatalw("invalid scheduler config", "error", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bellRepo := repository.NewBellScheduleRepository(db)
	activityRepo := repository.NewSpecialActivityRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(redisClient, logr)
	loader := repository.NewSchedulingLoader(bellRepo, activityRepo, sessionRepo)

	snapshotSvc := service.NewSnapshotService(snapshotRepo, sessionRepo, logr, metrics)
	conflictSvc := service.NewConflictService(sessionRepo, studentRepo, validate, logr, metrics)
	schedulerSvc := service.NewBatchSchedulerService(studentRepo, sessionRepo, loader, snapshotSvc, rules, validate, logr, metrics)
	exportSvc := service.NewExportService(sessionRepo, studentRepo, logr)

	scanQueue := service.NewConflictScanQueue(conflictSvc, jobs.QueueConfig{
		Workers:    cfg.ConflictScan.Workers,
		BufferSize: cfg.ConflictScan.BufferSize,
		MaxRetries: cfg.ConflictScan.MaxRetries,
		RetryDelay: cfg.ConflictScan.RetryDelay,
	}, logr)
	scanQueue.Start(context.Background())
	defer scanQueue.Stop()

	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, validate, logr)
	bellSvc := service.NewBellScheduleService(bellRepo, scanQueue, validate, logr)
	activitySvc := service.NewSpecialActivityService(activityRepo, scanQueue, validate, logr)

	schedulerHandler := handler.NewSchedulerHandler(schedulerSvc, exportSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc, bellSvc, activitySvc)
	snapshotHandler := handler.NewSnapshotHandler(snapshotSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	bellHandler := handler.NewBellScheduleHandler(bellSvc)
	activityHandler := handler.NewSpecialActivityHandler(activitySvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.POST("/schedule/batch", schedulerHandler.ScheduleBatch)
		api.POST("/schedule/manual-placement", schedulerHandler.ManualPlacement)
		api.GET("/schedule/export", schedulerHandler.Export)

		api.POST("/conflicts/bell-schedule/:id/scan", conflictHandler.ScanBellSchedule)
		api.POST("/conflicts/special-activity/:id/scan", conflictHandler.ScanSpecialActivity)
		api.GET("/conflicts/cross-provider", conflictHandler.CheckCrossProvider)

		api.GET("/snapshots", snapshotHandler.Get)
		api.POST("/snapshots", snapshotHandler.Save)
		api.POST("/snapshots/restore", snapshotHandler.Restore)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)

		api.GET("/sessions", sessionHandler.List)
		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.PUT("/sessions/:id", sessionHandler.Update)
		api.DELETE("/sessions/:id", sessionHandler.Delete)

		api.GET("/bell-schedules", bellHandler.List)
		api.POST("/bell-schedules", bellHandler.Create)
		api.GET("/bell-schedules/:id", bellHandler.Get)
		api.PUT("/bell-schedules/:id", bellHandler.Update)
		api.DELETE("/bell-schedules/:id", bellHandler.Delete)

		api.GET("/special-activities", activityHandler.List)
		api.POST("/special-activities", activityHandler.Create)
		api.GET("/special-activities/:id", activityHandler.Get)
		api.PUT("/special-activities/:id", activityHandler.Update)
		api.DELETE("/special-activities/:id", activityHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
