package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/nlp-m1/tp-portal-api/api/swagger"
	"github.com/nlp-m1/tp-portal-api/internal/corpus"
	"github.com/nlp-m1/tp-portal-api/internal/handler"
	"github.com/nlp-m1/tp-portal-api/internal/middleware"
	"github.com/nlp-m1/tp-portal-api/internal/repository"
	"github.com/nlp-m1/tp-portal-api/internal/roster"
	"github.com/nlp-m1/tp-portal-api/internal/service"
	"github.com/nlp-m1/tp-portal-api/pkg/blobstore"
	"github.com/nlp-m1/tp-portal-api/pkg/cache"
	"github.com/nlp-m1/tp-portal-api/pkg/codehost"
	"github.com/nlp-m1/tp-portal-api/pkg/config"
	"github.com/nlp-m1/tp-portal-api/pkg/database"
	"github.com/nlp-m1/tp-portal-api/pkg/logger"
	corsmiddleware "github.com/nlp-m1/tp-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nlp-m1/tp-portal-api/pkg/middleware/requestid"
)

// @title TP Portal API
// @version 1.0.0
// @description Student registration and submission portal for NLP practical work
// @BasePath /api
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, allocation locking degraded", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	store, err := newBlobstore(cfg, logr)
	if err != nil {
		logr.Fatal("failed to init blob store", zap.Error(err))
	}

	pusher, err := codehost.NewGitHubClient(codehost.Options{
		BaseURL: cfg.CodeHost.BaseURL,
		Owner:   cfg.CodeHost.Owner,
		Repo:    cfg.CodeHost.Repo,
		Branch:  cfg.CodeHost.Branch,
		Token:   cfg.CodeHost.Token,
	})
	if err != nil {
		logr.Fatal("failed to init code host client", zap.Error(err))
	}

	corpusIdx := corpus.NewIndex(store, cfg.Blobstore.RootFolderID, cfg.Corpus.MetadataName, logr)
	loadCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := corpusIdx.Load(loadCtx); err != nil {
		cancel()
		logr.Fatal("failed to load corpus metadata", zap.Error(err))
	}
	cancel()

	studentRoster, err := roster.Load(cfg.Roster.Path, logr)
	if err != nil {
		logr.Fatal("failed to load student roster", zap.Error(err))
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	tpRepo := repository.NewTPRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	allocationLock := repository.NewAllocationLock(redisClient, cfg.Registration.LockTTL, logr)

	metricsSvc := service.NewMetricsService()
	registrationSvc := service.NewRegistrationService(
		userRepo, tpRepo, assignmentRepo, fileRepo, activityRepo,
		corpusIdx, store, allocationLock, studentRoster,
		validate, logr,
		service.RegistrationOptions{
			AuthorsPerStudent: cfg.Registration.AuthorsPerStudent,
			RootFolderID:      cfg.Blobstore.RootFolderID,
			DataFolderName:    cfg.Corpus.DataFolderName,
		},
	).WithMetrics(metricsSvc)
	submissionSvc := service.NewSubmissionService(userRepo, fileRepo, activityRepo, pusher, validate, logr).
		WithMetrics(metricsSvc)
	tpSvc := service.NewTPService(tpRepo, activityRepo, validate, logr)
	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})
	reportSvc := service.NewReportService(fileRepo, activityRepo, logr)

	studentHandler := handler.NewStudentHandler(registrationSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	tpHandler := handler.NewTPHandler(tpSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
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
		api.POST("/register", studentHandler.Register)
		api.POST("/student/login", studentHandler.Login)
		api.GET("/student/list", studentHandler.List)
		api.GET("/student/:id/meta", studentHandler.Meta)
		api.GET("/student/:id/zip", studentHandler.Zip)
		api.POST("/upload-submission", submissionHandler.Upload)
		// Kept for clients that predate the renamed endpoint.
		api.POST("/upload", submissionHandler.Upload)
		api.GET("/tp/:id", tpHandler.Get)

		api.POST("/admin/login", authHandler.Login)
		admin := api.Group("/admin", middleware.JWT(authSvc))
		{
			admin.GET("/me", authHandler.Me)
			admin.POST("/tp", tpHandler.Create)
			admin.GET("/activity", reportHandler.Activity)
			if cfg.Reports.Enabled {
				admin.GET("/reports/submissions.csv", reportHandler.SubmissionsCSV)
				admin.GET("/reports/submissions.pdf", reportHandler.SubmissionsPDF)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func newBlobstore(cfg *config.Config, logr *zap.Logger) (blobstore.Store, error) {
	switch cfg.Blobstore.Backend {
	case "s3":
		return blobstore.NewS3Store(blobstore.S3Options{
			Bucket:   cfg.Blobstore.S3Bucket,
			Region:   cfg.Blobstore.S3Region,
			Endpoint: cfg.Blobstore.S3Endpoint,
		}, logr)
	case "local", "":
		return blobstore.NewLocalStore(cfg.Blobstore.LocalDir)
	default:
		return nil, fmt.Errorf("unknown blobstore backend %q", cfg.Blobstore.Backend)
	}
}
