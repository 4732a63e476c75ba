package handlers

import (
	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/response"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(st store.Store) *DashboardHandler {
	return &DashboardHandler{service: services.NewDashboardService(st)}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, stats)
}
