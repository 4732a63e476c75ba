package handlers

import (
	"strconv"

	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/response"
	"github.com/gin-gonic/gin"
)

type EventLogHandler struct {
	service *services.EventLogService
}

func NewEventLogHandler(st store.Store) *EventLogHandler {
	return &EventLogHandler{service: services.NewEventLogService(st)}
}

func (h *EventLogHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.service.List(&store.EventLogFilter{
		Level:  c.Query("level"),
		Module: c.Query("module"),
		Limit:  limit,
	})
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, logs)
}
