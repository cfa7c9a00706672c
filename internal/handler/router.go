package handler

import (
	"context"
	"net/http"

	"study_dashboard/internal/middleware"
	"study_dashboard/internal/service"
	"study_dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires middleware and routes onto a fresh gin engine
func NewRouter(authService service.AuthService, jwtUtil *utils.JWTUtil, store Pinger, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)

	api := router.Group("/api")
	NewAuthHandler(authService, logger).RegisterAuthRoutes(api, jwtAuthMW)
	NewDashboardHandler(authService, logger).RegisterDashboardRoutes(api, jwtAuthMW)

	router.GET("/health", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			logger.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	return router
}
