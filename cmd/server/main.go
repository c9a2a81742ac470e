package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-api/internal/config"
	"expense-api/internal/handlers"
	"expense-api/internal/logging"
	"expense-api/internal/middleware"
	"expense-api/internal/models"
	"expense-api/pkg/server"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadValidated()
	if err != nil {
		logging.New(logging.Options{}).WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		JSON:       cfg.IsProduction(),
		Deployment: config.GetDeploymentMode(),
	})

	container, err := server.NewContainer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}
	defer container.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(handlers.CORS())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.PerformanceMonitor(logger, 2*time.Second))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimiter(logger, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthCheck{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   version,
			Backend:   cfg.Store.Backend,
		})
	})

	handlers.SetupRoutes(router, container.ExpenseHandler)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("port", cfg.Port).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
