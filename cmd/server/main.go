package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/cache"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/config"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/container"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/database"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/handlers"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/metrics"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/middleware"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("Pet feed server starting", zap.String("environment", cfg.Server.Environment))

	metrics.Initialize()

	tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Server.Environment,
		OTLPEndpoint: cfg.Telemetry.Endpoint,
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled, failed to initialize tracer", err)
	}

	if err := database.Initialize(cfg.Database.DSN(), cfg.IsDevelopment()); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, continuing without viewer cache and run lock", err)
			redisClient = nil
		}
	}

	app, err := container.Build(database.DB, redisClient, cfg)
	if err != nil {
		logger.FatalWithFields("Failed to build services", err)
	}
	app.OnCleanup(func(context.Context) error { return database.Close() })
	if redisClient != nil {
		app.OnCleanup(func(context.Context) error { return redisClient.Close() })
	}
	if tp != nil {
		app.OnCleanup(tp.Shutdown)
	}

	if cfg.Relevance.Enabled {
		if err := app.Scheduler().Start(); err != nil {
			logger.FatalWithFields("Failed to start relevance scheduler", err)
		}
		// Registered last so it stops first, before the stores it writes to go away
		app.OnCleanup(app.Scheduler().Stop)
	}

	h := handlers.NewHandlers(app.Assembler(), app.Scheduler())
	h.AddHealthCheck("database", func(context.Context) error { return database.Health() })
	if redisClient != nil {
		h.AddHealthCheck("redis", redisClient.Ping)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.TracingMiddleware(cfg.Telemetry.ServiceName)...)
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(r, h, []byte(cfg.Auth.JWTSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Pet feed server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := app.Cleanup(ctx); err != nil {
		logger.ErrorWithFields("Cleanup incomplete", err)
	}

	logger.Log.Info("Server exited")
}
