package main

import (
	"github.com/gin-gonic/gin"
	"github.com/depflow/depflow/internal/middleware"
	"github.com/depflow/depflow/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for webhook routes: trackers can burst on bulk edits
	webhookLimiter := middleware.NewRateLimiter(20, 50)

	// Health check and Prometheus metrics
	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", svc.metricsHandler.Metrics)

	// Root-level webhook route (the path registered in Jira admin)
	r.POST("/webhook/jira", webhookLimiter.Middleware(), svc.webhookHandler.Receive)

	// WebSocket stream for the dashboard (outside the API rate limiter, one
	// long-lived connection per client)
	r.GET("/api/events/ws", svc.wsHandler.Stream)

	// API routes
	api := r.Group("/api")
	api.Use(middleware.RateLimit(50, 100))
	{
		// Dependencies
		api.GET("/dependencies", svc.dependencyHandler.List)
		api.GET("/dependencies/:id", svc.dependencyHandler.Get)
		api.POST("/dependencies", svc.dependencyHandler.Create)
		api.PUT("/dependencies/:id", svc.dependencyHandler.Update)
		api.DELETE("/dependencies/:id", svc.dependencyHandler.Delete)

		// Dashboard
		api.GET("/dashboard/stats", svc.dashboardHandler.Stats)

		// Bulk import
		api.POST("/import/jira", svc.importHandler.Trigger)
		api.GET("/import/runs", svc.importHandler.Runs)

		// Tracker connections
		api.GET("/trackers", svc.trackerHandler.List)
		api.POST("/trackers", svc.trackerHandler.Create)
		api.PUT("/trackers/:id", svc.trackerHandler.Update)
		api.DELETE("/trackers/:id", svc.trackerHandler.Delete)
		api.POST("/trackers/:id/test", svc.trackerHandler.Test)

		// Event log
		api.GET("/event-logs", svc.eventLogHandler.List)

		// Webhook under /api as well, for deployments that only expose /api
		api.POST("/webhook/jira", webhookLimiter.Middleware(), svc.webhookHandler.Receive)
	}
}
