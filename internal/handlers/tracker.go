package handlers

import (
	"strconv"

	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/internal/models"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/response"
	"github.com/gin-gonic/gin"
)

// TrackerHandler manages stored tracker connections. Secrets are write-only:
// responses carry only a masked tail.
type TrackerHandler struct {
	store store.Store
	cfg   *config.JiraConfig
}

func NewTrackerHandler(st store.Store, cfg *config.JiraConfig) *TrackerHandler {
	return &TrackerHandler{store: st, cfg: cfg}
}

func (h *TrackerHandler) List(c *gin.Context) {
	trackers, err := h.store.ListTrackers()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	for i := range trackers {
		trackers[i].MaskToken()
	}
	response.Success(c, trackers)
}

func (h *TrackerHandler) Create(c *gin.Context) {
	var tracker models.TrackerConnection
	if err := c.ShouldBindJSON(&tracker); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if tracker.Name == "" || tracker.BaseURL == "" {
		response.BadRequest(c, "name and base_url are required")
		return
	}
	if err := h.store.CreateTracker(&tracker); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	tracker.MaskToken()
	response.Created(c, tracker)
}

func (h *TrackerHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	existing, err := h.store.GetTracker(uint(id))
	if err != nil {
		if err == store.ErrNotFound {
			response.NotFound(c, "tracker not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	var updates models.TrackerConnection
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if updates.Name != "" {
		existing.Name = updates.Name
	}
	if updates.BaseURL != "" {
		existing.BaseURL = updates.BaseURL
	}
	if updates.AuthType != "" {
		existing.AuthType = updates.AuthType
	}
	if updates.Email != "" {
		existing.Email = updates.Email
	}
	// empty secret means "keep the stored one"
	if updates.APIToken != "" {
		existing.APIToken = updates.APIToken
	}
	if updates.BearerToken != "" {
		existing.BearerToken = updates.BearerToken
	}
	if updates.TeamField != "" {
		existing.TeamField = updates.TeamField
	}
	if updates.ARTField != "" {
		existing.ARTField = updates.ARTField
	}
	existing.IsActive = updates.IsActive

	if err := h.store.UpdateTracker(existing); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	existing.MaskToken()
	response.Success(c, existing)
}

func (h *TrackerHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	if err := h.store.DeleteTracker(uint(id)); err != nil {
		if err == store.ErrNotFound {
			response.NotFound(c, "tracker not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"message": "deleted"})
}

// Test probes the connection by fetching the configured base URL's server
// info through the issue endpoint of a known key, or just reports whether
// the client can be built when no test key is given.
func (h *TrackerHandler) Test(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	tracker, err := h.store.GetTracker(uint(id))
	if err != nil {
		if err == store.ErrNotFound {
			response.NotFound(c, "tracker not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	key := c.Query("issue_key")
	if key == "" {
		response.BadRequest(c, "issue_key query parameter required")
		return
	}

	client := jira.NewClient(jira.ConnectionFromTracker(tracker, h.cfg))
	issue, err := client.GetIssue(c.Request.Context(), key)
	if err != nil {
		response.Success(c, gin.H{"ok": false, "error": err.Error()})
		return
	}
	response.Success(c, gin.H{"ok": true, "issue": gin.H{"key": issue.Key, "summary": issue.Summary}})
}
