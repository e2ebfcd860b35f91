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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/egradu-api/api/swagger"
	"github.com/noah-isme/egradu-api/internal/handler"
	internalmiddleware "github.com/noah-isme/egradu-api/internal/middleware"
	"github.com/noah-isme/egradu-api/internal/repository"
	"github.com/noah-isme/egradu-api/internal/service"
	"github.com/noah-isme/egradu-api/migrations"
	"github.com/noah-isme/egradu-api/pkg/cache"
	"github.com/noah-isme/egradu-api/pkg/config"
	"github.com/noah-isme/egradu-api/pkg/database"
	"github.com/noah-isme/egradu-api/pkg/export"
	"github.com/noah-isme/egradu-api/pkg/jobs"
	"github.com/noah-isme/egradu-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/egradu-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/egradu-api/pkg/middleware/requestid"
	"github.com/noah-isme/egradu-api/pkg/storage"
)

// @title eGradu API
// @version 1.0.0
// @description Thesis approval workflow: revisions, language and plagiarism checks, reviews and dean decisions
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(ctx, db, migrations.Files, logr); err != nil {
			logr.Sugar().Fatalw("failed to apply migrations", "error", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, project cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	checkRepo := repository.NewCheckRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	aggregator := service.NewReviewAggregator()
	revisions := service.NewRevisionTracker(documentRepo)

	visits := service.NewVisitRecorder(visitRepo, metrics, jobs.QueueConfig{
		Workers:    cfg.Visits.Workers,
		BufferSize: cfg.Visits.BufferSize,
		MaxRetries: cfg.Visits.MaxRetries,
		RetryDelay: cfg.Visits.RetryDelay,
		Logger:     logr,
	})
	visits.Start(ctx)
	defer visits.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	projectSvc := service.NewProjectService(service.ProjectServiceParams{
		Projects:   projectRepo,
		Checks:     checkRepo,
		Users:      userRepo,
		Directory:  userRepo,
		Revisions:  revisions,
		Aggregator: aggregator,
		Cache:      cacheSvc,
		Audit:      userRepo,
		Validator:  validate,
		Logger:     logr,
		CacheTTL:   cfg.Cache.TTL,
	})
	documentSvc := service.NewDocumentService(service.DocumentServiceParams{
		Documents: documentRepo,
		Projects:  projectRepo,
		Revisions: revisions,
		Storage:   files,
		Signer:    signer,
		Visits:    visits,
		Metrics:   metrics,
		Audit:     userRepo,
		Validator: validate,
		Logger:    logr,
		Config: service.DocumentConfig{
			APIPrefix:    cfg.APIPrefix,
			MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		},
	})
	workflowSvc := service.NewWorkflowService(service.WorkflowDeps{
		Tx:         db,
		Projects:   projectRepo,
		Documents:  documentRepo,
		Checks:     checkRepo,
		Users:      userRepo,
		Revisions:  revisions,
		Aggregator: aggregator,
		Cache:      cacheSvc,
		Metrics:    metrics,
		Audit:      userRepo,
		Validator:  validate,
		Logger:     logr,
	})
	exportSvc := service.NewExportService(projectSvc, export.NewPDFExporter(), export.NewCSVExporter(), logr)

	readiness := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		readiness["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))

	registerRoutes(r, cfg, routeHandlers{
		auth:      handler.NewAuthHandler(authSvc),
		projects:  handler.NewProjectHandler(projectSvc, exportSvc),
		documents: handler.NewDocumentHandler(documentSvc),
		workflow:  handler.NewWorkflowHandler(workflowSvc),
		metrics:   handler.NewMetricsHandler(metrics, readiness),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
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
