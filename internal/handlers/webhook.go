package handlers

import (
	"time"

	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/pkg/logger"
	"github.com/depflow/depflow/pkg/response"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives tracker webhook deliveries. The payload is parsed
// and validated synchronously; all tracker fetches and store writes happen
// on the queue so the tracker gets its ack immediately.
type WebhookHandler struct {
	queue services.TaskQueue
}

func NewWebhookHandler(queue services.TaskQueue) *WebhookHandler {
	return &WebhookHandler{queue: queue}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	var event jira.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		services.GetMetrics().EventsRejected.Add(1)
		response.BadRequest(c, "malformed webhook payload: "+err.Error())
		return
	}
	if !event.Validate() {
		services.GetMetrics().EventsRejected.Add(1)
		response.BadRequest(c, "webhook payload missing required fields")
		return
	}

	task := &services.WebhookTask{Event: event, ReceivedAt: time.Now()}
	if err := h.queue.Enqueue(task); err != nil {
		logger.Errorf("[Webhook] Enqueue failed for %s: %v", event.WebhookEvent, err)
		response.ServerError(c, "failed to queue event")
		return
	}

	response.Accepted(c, gin.H{"event": event.WebhookEvent})
}
