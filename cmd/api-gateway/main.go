package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vellari/cleanops-api/api/swagger"
	"github.com/vellari/cleanops-api/internal/docstore"
	"github.com/vellari/cleanops-api/internal/handler"
	"github.com/vellari/cleanops-api/internal/middleware"
	"github.com/vellari/cleanops-api/internal/optimizer"
	"github.com/vellari/cleanops-api/internal/repository"
	"github.com/vellari/cleanops-api/internal/service"
	"github.com/vellari/cleanops-api/pkg/cache"
	"github.com/vellari/cleanops-api/pkg/config"
	"github.com/vellari/cleanops-api/pkg/database"
	"github.com/vellari/cleanops-api/pkg/jobs"
	"github.com/vellari/cleanops-api/pkg/logger"
	corsmiddleware "github.com/vellari/cleanops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vellari/cleanops-api/pkg/middleware/requestid"
	"github.com/vellari/cleanops-api/pkg/storage"
)

// @title CleanOps Timeline API
// @version 0.1.0
// @description Timeline consistency and remix subsystem for cleaning-task scheduling
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	metricsSvc := service.NewMetricsService()

	remote := docstore.NewRedisStore(redisClient, cfg.Documents.RemoteTTL)
	docs := docstore.New(cfg.Documents.LocalDir, remote, logr,
		docstore.WithFallbackObserver(func(kind docstore.Kind) {
			metricsSvc.FallbackRead(string(kind))
		}))

	replicate := docs.ReplicationHandler()
	replicationQueue := jobs.NewQueue("replication", func(ctx context.Context, job jobs.Job) error {
		if err := replicate(ctx, job); err != nil {
			metricsSvc.ReplicationFailure()
			return err
		}
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Replication.Workers,
		MaxRetries: cfg.Replication.MaxRetries,
		RetryDelay: cfg.Replication.RetryDelay,
		Logger:     logr,
	})
	replicationQueue.Start(context.Background())
	defer replicationQueue.Stop()
	docs.AttachQueue(replicationQueue)

	repo := repository.NewAssignmentRepository(db, logr)

	timelineSvc := service.NewTimelineService(docs, repo, logr)
	timelineSvc.SetSnapshotObserver(metricsSvc.SnapshotTaken)

	leftoverSvc := service.NewLeftoverService(docs, logr)

	bridge := optimizer.New(cfg.Optimizer.PythonBin, []string{cfg.Optimizer.ScriptPath}, cfg.Optimizer.Timeout, logr)
	remixSvc := service.NewRemixService(leftoverSvc, bridge, timelineSvc, docs, cfg.Remix.DayStart, logr)
	remixSvc.SetObserver(metricsSvc)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(timelineSvc, exportStore, signer, logr, nil, nil)

	timelineHandler := handler.NewTimelineHandler(timelineSvc, leftoverSvc, remixSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		timeline := api.Group("/timeline/:date")
		{
			timeline.GET("", timelineHandler.Get)
			timeline.PUT("", timelineHandler.Put)
			timeline.GET("/rows", timelineHandler.Rows)
			timeline.POST("/remix", timelineHandler.Remix)
			timeline.POST("/revisions", timelineHandler.Snapshot)
			timeline.GET("/revisions", timelineHandler.Revisions)
			timeline.GET("/revisions/:rev", timelineHandler.Revision)
			timeline.POST("/revisions/:rev/restore", timelineHandler.Restore)
			timeline.GET("/export", exportHandler.Export)
		}
		api.GET("/containers/:date", timelineHandler.Leftovers)
		api.PUT("/containers/:date", timelineHandler.PutContainers)
		api.GET("/cleaners/:date", timelineHandler.SelectedCleaners)
		api.PUT("/cleaners/:date", timelineHandler.PutSelectedCleaners)
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
