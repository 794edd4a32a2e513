package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	sessionHandler := NewSessionHandler(services, log)
	adminHandler := NewAdminHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(cfg))

	// API v1
	v1 := router.Group("/v1")
	{
		// Selection session endpoints
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Login)
			sessions.GET("/:token", sessionHandler.Get)
			sessions.DELETE("/:token", sessionHandler.Logout)
			sessions.GET("/:token/library", sessionHandler.Library)
			sessions.GET("/:token/selection", sessionHandler.Selection)
			sessions.POST("/:token/toggle", sessionHandler.Toggle)
			sessions.POST("/:token/save", sessionHandler.Save)
		}

		// Admin endpoints
		admin := v1.Group("/admin")
		admin.Use(adminHandler.RequireAdmin)
		{
			admin.POST("/refresh", adminHandler.Refresh)
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateUser)
			admin.PUT("/users/:id/pool", adminHandler.UpdatePool)
			admin.GET("/scripts", adminHandler.ListScripts)
			admin.POST("/scripts", adminHandler.CreateScript)
			admin.PUT("/scripts/:id", adminHandler.UpdateScript)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "script-select-api",
			"read_only": cfg.Sources.ReadOnly(),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS for the browser client
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
