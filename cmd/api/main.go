package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "certverify/verification-backend/api/v1"
	"certverify/verification-backend/internal/config"
	"certverify/verification-backend/internal/database"
	"certverify/verification-backend/internal/logging"
	"certverify/verification-backend/internal/middleware"
	"certverify/verification-backend/internal/scheduler"
)

const limiterIdle = 10 * time.Minute

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Fatal("SECRET_KEY must be set")
	}

	// Connect to database
	conns, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conns.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(conns.Gorm, v1.Models()...); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	api, err := v1.Setup(ctx, cfg, conns, logger)
	if err != nil {
		logger.Fatal("Failed to initialize API", zap.Error(err))
	}
	defer api.Hub.Close()

	// Setup Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		limiter.Middleware(),
	)

	// Register Routes
	v1.RegisterRoutes(router.Group("/api/v1"), api, logger)

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		db := "connected"
		if err := conns.SQL.PingContext(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			db = "unavailable"
		}
		c.JSON(status, gin.H{
			"status":      http.StatusText(status),
			"database":    db,
			"ai_enabled":  api.Predictions.Enabled(),
			"connections": api.Hub.ConnectionCount(),
			"timestamp":   time.Now(),
		})
	})

	// Scheduled jobs
	jobs := scheduler.NewManager(logger, 5*time.Minute)
	if err := jobs.Register("alert-digest", cfg.Notifications.DigestCron, scheduler.DigestJob(api.Alerts, 24*time.Hour, logger)); err != nil {
		logger.Fatal("Failed to schedule alert digest", zap.Error(err))
	}
	if err := jobs.Register("rate-limit-sweep", "0 */5 * * * *", scheduler.SweepJob(limiter, limiterIdle)); err != nil {
		logger.Fatal("Failed to schedule limiter sweep", zap.Error(err))
	}
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer jobs.Stop()

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
