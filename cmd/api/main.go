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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/result-ledger-api/api/swagger"
	"github.com/noah-isme/result-ledger-api/internal/bootstrap"
	"github.com/noah-isme/result-ledger-api/internal/handler"
	"github.com/noah-isme/result-ledger-api/internal/middleware"
	"github.com/noah-isme/result-ledger-api/pkg/cache"
	"github.com/noah-isme/result-ledger-api/pkg/config"
	"github.com/noah-isme/result-ledger-api/pkg/database"
	"github.com/noah-isme/result-ledger-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/result-ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/result-ledger-api/pkg/middleware/requestid"
)

// @title Result Ledger API
// @version 1.0.0
// @description Marks entry, grading, ledgers and marksheets for grade 11 and 12
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.AutoApply {
		if err := database.Migrate(ctx, db.DB, "up"); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	var redisClient redis.UniversalClient
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, grade cache disabled", zap.Error(err))
	} else {
		redisClient = client
		defer client.Close()
	}

	svcs, err := bootstrap.New(cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to wire services", zap.Error(err))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.Metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(svcs.Metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(svcs.Auth),
		Users:       handler.NewUserHandler(svcs.Accounts),
		Schools:     handler.NewSchoolHandler(svcs.Schools),
		Students:    handler.NewStudentHandler(svcs.Students),
		Subjects:    handler.NewSubjectHandler(svcs.Subjects),
		Assignments: handler.NewAssignmentHandler(svcs.Assignments, svcs.Students),
		Marks:       handler.NewMarkHandler(svcs.Marks, svcs.Students),
		Grades:      handler.NewGradeHandler(svcs.Grades, svcs.Ledgers, svcs.Students),
	}
	if svcs.Reports != nil {
		handlers.Reports = handler.NewReportHandler(svcs.Reports)

		svcs.Queue.Start(ctx)
		defer svcs.Queue.Stop()
		if n := svcs.Reports.RecoverPendingJobs(ctx); n > 0 {
			logr.Info("requeued pending report jobs", zap.Int("count", n))
		}
		if err := svcs.Reports.StartCleanup(ctx); err != nil {
			logr.Fatal("failed to schedule report cleanup", zap.Error(err))
		}
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, handler.RouteMiddleware{
		Auth: middleware.JWT(svcs.Auth),
		Audit: func(action, resource string) gin.HandlerFunc {
			return middleware.Audit(svcs.Users, logr.Named("audit"), action, resource)
		},
	})

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
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
