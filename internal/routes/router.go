package routes

import (
	"net/http"

	"gateway-registry/internal/config"
	"gateway-registry/internal/delivery/http/handler"
	"gateway-registry/internal/events"
	"gateway-registry/internal/infrastructure/database"
	"gateway-registry/internal/logger"
	"gateway-registry/internal/middleware"
	"gateway-registry/internal/usecase/gateway"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const healthPath = "/health"

func SetupRoutes(cfg *config.Config, db *database.DB, publisher events.Publisher) *gin.Engine {
	switch cfg.Server.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	// Keep JSON numbers exact so device uids are not routed through float64.
	binding.EnableDecoderUseNumber = true

	router := gin.New()

	// Add middleware in order: recovery, request ID, logging, security headers, CORS, request size limit, rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst, healthPath))

	router.GET(healthPath, func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	gatewayRepository := database.NewGatewayRepository(db)
	gatewayService := gateway.NewService(gatewayRepository, publisher)
	gatewayHandler := handler.NewGatewayHandler(gatewayService)

	api := router.Group("/api")
	{
		gatewayHandler.RegisterRoutes(api)
	}

	logger.Info("All routes initialized")
	return router
}
