package handlers

import (
	"strconv"

	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/pkg/response"
	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	importer *services.Importer
}

func NewImportHandler(importer *services.Importer) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// Trigger runs a bulk import synchronously and returns its summary. Imports
// are idempotent against unchanged tracker data, so re-triggering is safe.
func (h *ImportHandler) Trigger(c *gin.Context) {
	result, err := h.importer.Run(c.Request.Context(), "manual")
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, result)
}

// Runs lists recent import runs, newest first.
func (h *ImportHandler) Runs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.importer.ListRuns(limit)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, runs)
}
