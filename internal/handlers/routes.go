package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"dealerscout/internal/middleware"
)

// RouteOptions configures the API middleware.
type RouteOptions struct {
	AdminKey         string
	RateLimit        float64
	RateBurst        int
	DiscoverInterval time.Duration
}

// RegisterRoutes mounts the API under /api.
func RegisterRoutes(r gin.IRouter, h *RegionHandler, opts RouteOptions) {
	limiter := middleware.NewRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))
	{
		api.GET("/health", h.Health)
		api.GET("/cars", h.GetCars)
		api.POST("/cars", h.SaveCars)
		api.POST("/scrape", middleware.AdminKeyMiddleware(opts.AdminKey), h.Scrape)

		regions := api.Group("/regions/:zip")
		regions.GET("/dealerships", h.GetDealerships)
		regions.POST("/refresh",
			middleware.AdminKeyMiddleware(opts.AdminKey),
			middleware.ThrottleMiddleware(opts.DiscoverInterval, middleware.ByParam("zip")),
			h.Refresh,
		)
		regions.POST("/discover",
			middleware.AdminKeyMiddleware(opts.AdminKey),
			middleware.ThrottleMiddleware(opts.DiscoverInterval, middleware.ByParam("zip")),
			h.Discover,
		)
	}
}
