package handlers

import (
	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/internal/store"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports subsystem status for load balancers and operators.
type HealthHandler struct {
	store store.Store
}

func NewHealthHandler(st store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	if err := h.store.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "local"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "depflow",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"ws_clients": services.GetHub().ClientCount(),
		},
	})
}
