package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopsmart/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/messages", handler.HandleMessage)

		v1.GET("/mode", handler.GetMode)
		v1.PUT("/mode", handler.SwitchMode)

		products := v1.Group("/products")
		{
			products.GET("/current", handler.CurrentProduct)
			products.POST("/current", handler.VisitProduct)
			products.POST("/extract", handler.ExtractProduct)
		}

		capabilities := v1.Group("/capabilities")
		{
			capabilities.GET("", handler.Capabilities)
			capabilities.POST("/refresh", handler.RefreshCapabilities)
		}
	}

	return router
}
