// Dealerscout API
// @title Dealerscout API
// @version 1.0
// @description Discovers car dealerships near a ZIP code, scrapes their inventory pages and serves the stored listings.
// @host localhost:8080
// @BasePath /

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
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "dealerscout/docs"
	"dealerscout/internal/app"
	"dealerscout/internal/config"
	"dealerscout/internal/handlers"
	"dealerscout/internal/logger"
	"dealerscout/internal/middleware"
	"dealerscout/internal/scheduler"
)

func main() {
	cfg, err := config.Load(config.New(), os.Getenv("DEALERSCOUT_CONFIG"))
	if err != nil {
		logger.Get().Fatalf("Failed to load config: %v", err)
	}
	logger.Init(logger.Options{Debug: cfg.Log.Debug, JSON: cfg.Log.JSON})

	a, err := app.New(cfg)
	if err != nil {
		logger.Get().Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if cfg.Server.AdminKey == "" {
		logger.Get().Warn("server.admin_key is empty, discovery endpoint is locked")
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Configure trusted proxies
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Get().Fatalf("Invalid trusted proxies: %v", err)
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Admin-Key"}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.SecurityScanDetection())
	r.Use(middleware.UserAgentFilter())
	r.Use(middleware.HTTPMethodFilter([]string{http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodHead}))
	r.Use(middleware.HoneypotEndpoints(5 * time.Second))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers.RegisterRoutes(r, handlers.NewRegionHandler(a.Service), handlers.RouteOptions{
		AdminKey:         cfg.Server.AdminKey,
		RateLimit:        cfg.Server.RateLimit,
		RateBurst:        cfg.Server.RateBurst,
		DiscoverInterval: cfg.Server.DiscoverInterval,
	})

	if cfg.Schedule.Cron != "" && len(cfg.Schedule.Zips) > 0 {
		refresher, err := scheduler.New(cfg.Schedule.Cron, cfg.Schedule.Zips, a.Service, cfg.Schedule.Timeout)
		if err != nil {
			logger.Get().Fatalf("Failed to schedule refresh: %v", err)
		}
		refresher.Start()
		defer refresher.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
