package jira

import (
	"time"

	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/models"
)

// Connection holds everything needed to call one tracker deployment. It is
// passed by value to the client constructor; nothing in this package keeps
// mutable connection state.
type Connection struct {
	BaseURL     string
	AuthType    string // basic, bearer
	Email       string
	APIToken    string
	BearerToken string
	TeamField   string // custom field id holding the team name
	ARTField    string // custom field id holding the release-train name
	Timeout     time.Duration
}

// ConnectionFromConfig builds a Connection from the static config section.
func ConnectionFromConfig(cfg *config.JiraConfig) Connection {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return Connection{
		BaseURL:     cfg.BaseURL,
		AuthType:    cfg.AuthType,
		Email:       cfg.Email,
		APIToken:    cfg.APIToken,
		BearerToken: cfg.BearerToken,
		TeamField:   cfg.TeamField,
		ARTField:    cfg.ARTField,
		Timeout:     timeout,
	}
}

// ConnectionFromTracker builds a Connection from a stored tracker row,
// falling back to the config defaults for the custom field ids when the row
// leaves them empty.
func ConnectionFromTracker(t *models.TrackerConnection, cfg *config.JiraConfig) Connection {
	conn := ConnectionFromConfig(cfg)
	conn.BaseURL = t.BaseURL
	conn.AuthType = t.AuthType
	conn.Email = t.Email
	conn.APIToken = t.APIToken
	conn.BearerToken = t.BearerToken
	if t.TeamField != "" {
		conn.TeamField = t.TeamField
	}
	if t.ARTField != "" {
		conn.ARTField = t.ARTField
	}
	return conn
}

// Issue is the read-only mirror of a tracker issue, flattened to the fields
// the ingestion pipeline consumes.
type Issue struct {
	ID          string      `json:"id"`
	Key         string      `json:"key"`
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	DueDate     *time.Time  `json:"due_date"`
	Team        string      `json:"team"`
	ART         string      `json:"art"`
	Links       []IssueLink `json:"links"`
}

// IssueLink is a directional relation from its owning issue to TargetKey.
// Only outward links are mirrored; inward entries describe the same relation
// from the other end and would double-derive dependencies.
type IssueLink struct {
	TypeName  string `json:"type_name"`
	TargetKey string `json:"target_key"`
}

// Webhook event names sent by the tracker.
const (
	EventIssueCreated = "jira:issue_created"
	EventIssueUpdated = "jira:issue_updated"
	EventIssueDeleted = "jira:issue_deleted"
	EventLinkCreated  = "issuelink_created"
	EventLinkDeleted  = "issuelink_deleted"
)

// WebhookEvent is the inbound webhook payload, reduced to the fields the
// reconciler consumes. Issue events carry only the key; the reconciler
// re-fetches full details.
type WebhookEvent struct {
	WebhookEvent string            `json:"webhookEvent"`
	Issue        *WebhookIssue     `json:"issue,omitempty"`
	IssueLink    *WebhookIssueLink `json:"issueLink,omitempty"`
}

type WebhookIssue struct {
	Key string `json:"key"`
}

type WebhookIssueLink struct {
	SourceIssueKey string          `json:"sourceIssueKey"`
	TargetIssueKey string          `json:"targetIssueKey"`
	Type           WebhookLinkType `json:"type"`
}

type WebhookLinkType struct {
	Name string `json:"name"`
}

// IsIssueEvent reports whether the event concerns a single issue.
func (e *WebhookEvent) IsIssueEvent() bool {
	switch e.WebhookEvent {
	case EventIssueCreated, EventIssueUpdated, EventIssueDeleted:
		return true
	}
	return false
}

// IsLinkEvent reports whether the event concerns an issue link.
func (e *WebhookEvent) IsLinkEvent() bool {
	return e.WebhookEvent == EventLinkCreated || e.WebhookEvent == EventLinkDeleted
}

// Validate checks that the payload carries the fields its event type needs.
func (e *WebhookEvent) Validate() bool {
	switch {
	case e.WebhookEvent == "":
		return false
	case e.IsIssueEvent():
		return e.Issue != nil && e.Issue.Key != ""
	case e.IsLinkEvent():
		return e.IssueLink != nil && e.IssueLink.SourceIssueKey != "" && e.IssueLink.TargetIssueKey != ""
	}
	return false
}
