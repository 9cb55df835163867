package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/greenlake-gma/progress-api/api/swagger"
	"github.com/greenlake-gma/progress-api/internal/handler"
	"github.com/greenlake-gma/progress-api/internal/middleware"
	"github.com/greenlake-gma/progress-api/internal/repository"
	"github.com/greenlake-gma/progress-api/internal/service"
	"github.com/greenlake-gma/progress-api/pkg/cache"
	"github.com/greenlake-gma/progress-api/pkg/config"
	"github.com/greenlake-gma/progress-api/pkg/database"
	"github.com/greenlake-gma/progress-api/pkg/logger"
	corsmiddleware "github.com/greenlake-gma/progress-api/pkg/middleware/cors"
	reqidmiddleware "github.com/greenlake-gma/progress-api/pkg/middleware/requestid"
)

// @title GMA Progress API
// @version 1.0.0
// @description Curriculum progress tracking and audit ledger for the school
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
	defer db.Close() //nolint:errcheck

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()

	progressRepo := repository.NewProgressRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	progressSvc := service.NewProgressService(progressRepo, auditRepo, catalogRepo, studentRepo, cacheRepo, cfg.Cache.ReportTTL, metricsSvc, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	var exportSvc *service.ExportService
	if cfg.Export.Enabled {
		exportSvc = service.NewExportService(progressSvc, logr)
	}

	progressHandler := handler.NewProgressHandler(progressSvc, exportSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	progress := api.Group("/student-progress", middleware.JWT(authSvc))
	progress.GET("", progressHandler.List)
	progress.POST("", progressHandler.Create)
	progress.PUT("", progressHandler.BulkUpdate)
	progress.GET("/:id", progressHandler.Get)
	progress.PUT("/:id", progressHandler.Update)
	progress.DELETE("/:id", progressHandler.Delete)

	// Report reads mutate nothing and never write to the ledger, so a token
	// is optional here; claims are still attached when one is presented.
	students := api.Group("/students", middleware.OptionalJWT(authSvc))
	students.GET("/:studentId/progress", progressHandler.GetByStudent)
	students.GET("/:studentId/progress/level/:levelId", progressHandler.GetByStudentAndLevel)
	students.GET("/:studentId/progress/level/:levelId/export", progressHandler.Export)

	audits := api.Group("/audit-logs", middleware.JWT(authSvc))
	audits.GET("/user/:userId", auditHandler.ListByUser)
	audits.GET("/entity/:entity", auditHandler.ListByEntity)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
