package http

import (
	"github.com/gin-gonic/gin"

	"github.com/basketly/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		grocery := v1.Group("/grocery")
		{
			grocery.GET("/health", handler.HealthCheck)
			grocery.GET("/stores", handler.ListStores)
			grocery.POST("/search", handler.SearchProducts)
			grocery.POST("/search/mock", handler.MockSearch)
			grocery.POST("/cache/clear", handler.ClearCache)
		}

		lists := v1.Group("/lists")
		{
			lists.POST("/generate", handler.GenerateLists)
			lists.POST("/more", handler.GenerateMoreLists)
		}
	}

	return router
}
