package handlers

import (
	"strconv"

	"github.com/depflow/depflow/internal/services"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/response"
	"github.com/gin-gonic/gin"
)

type DependencyHandler struct {
	service *services.DependencyService
}

func NewDependencyHandler(st store.Store, hub *services.Hub) *DependencyHandler {
	return &DependencyHandler{service: services.NewDependencyService(st, hub)}
}

func (h *DependencyHandler) List(c *gin.Context) {
	filter := &store.DependencyFilter{
		Status:     c.Query("status"),
		SourceTeam: c.Query("source_team"),
		TargetTeam: c.Query("target_team"),
		ART:        c.Query("art"),
		JiraID:     c.Query("jira_id"),
	}
	if v := c.Query("cross_art"); v != "" {
		cross, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "invalid cross_art")
			return
		}
		filter.CrossART = &cross
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	deps, total, err := h.service.List(filter)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{
		"items":     deps,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *DependencyHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	dep, err := h.service.Get(uint(id))
	if err != nil {
		if err == store.ErrNotFound {
			response.NotFound(c, "dependency not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, dep)
}

func (h *DependencyHandler) Create(c *gin.Context) {
	var req services.CreateDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	dep, err := h.service.Create(&req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, dep)
}

func (h *DependencyHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	var req services.UpdateDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	dep, err := h.service.Update(uint(id), &req)
	if err != nil {
		if err == store.ErrNotFound {
			response.NotFound(c, "dependency not found")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, dep)
}

func (h *DependencyHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	if err := h.service.Delete(uint(id)); err != nil {
		if err == store.ErrNotFound {
			response.NotFound(c, "dependency not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"message": "deleted"})
}
