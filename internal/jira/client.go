package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/depflow/depflow/pkg/logger"
)

// Client is a REST client for one tracker deployment. Create one per
// Connection; it is safe for concurrent use.
type Client struct {
	conn       Connection
	httpClient *http.Client
}

func NewClient(conn Connection) *Client {
	timeout := conn.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		conn:       conn,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// --- raw API shapes ---

type apiIssue struct {
	ID     string          `json:"id"`
	Key    string          `json:"key"`
	Fields json.RawMessage `json:"fields"`
}

type apiFields struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	IssueType   struct {
		Name string `json:"name"`
	} `json:"issuetype"`
	Status struct {
		Name string `json:"name"`
	} `json:"status"`
	DueDate    string `json:"duedate"` // 2006-01-02
	IssueLinks []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
		OutwardIssue *struct {
			Key string `json:"key"`
		} `json:"outwardIssue"`
	} `json:"issuelinks"`
}

type apiSearchResult struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []apiIssue `json:"issues"`
}

// GetIssue fetches one issue by key, including its outward links and the
// team/ART custom fields.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	endpoint := fmt.Sprintf("%s/rest/api/2/issue/%s", strings.TrimSuffix(c.conn.BaseURL, "/"), url.PathEscape(key))

	var raw apiIssue
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	return c.mapIssue(&raw)
}

// SearchIssuesWithLinks returns every issue that has at least one issue link,
// paginating until the result set is exhausted.
func (c *Client) SearchIssuesWithLinks(ctx context.Context, pageSize int) ([]Issue, error) {
	if pageSize <= 0 {
		pageSize = 50
	}

	base := strings.TrimSuffix(c.conn.BaseURL, "/")
	jql := url.QueryEscape("issueLinkType is not EMPTY")
	fields := url.QueryEscape("summary,description,issuetype,status,duedate,issuelinks," + c.conn.TeamField + "," + c.conn.ARTField)

	var issues []Issue
	startAt := 0
	for {
		endpoint := fmt.Sprintf("%s/rest/api/2/search?jql=%s&fields=%s&startAt=%d&maxResults=%d",
			base, jql, fields, startAt, pageSize)

		var page apiSearchResult
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("search issues (startAt=%d): %w", startAt, err)
		}

		for i := range page.Issues {
			issue, err := c.mapIssue(&page.Issues[i])
			if err != nil {
				logger.Warn().Err(err).Str("key", page.Issues[i].Key).Msg("skipping unparsable issue")
				continue
			}
			issues = append(issues, *issue)
		}

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}

	return issues, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracker returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return json.Unmarshal(body, out)
}

func (c *Client) applyAuth(req *http.Request) {
	if c.conn.AuthType == "bearer" && c.conn.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.conn.BearerToken)
		return
	}
	req.SetBasicAuth(c.conn.Email, c.conn.APIToken)
}

func (c *Client) mapIssue(raw *apiIssue) (*Issue, error) {
	var fields apiFields
	if err := json.Unmarshal(raw.Fields, &fields); err != nil {
		return nil, fmt.Errorf("parse issue fields: %w", err)
	}

	issue := &Issue{
		ID:          raw.ID,
		Key:         raw.Key,
		Summary:     fields.Summary,
		Description: fields.Description,
		Type:        fields.IssueType.Name,
		Status:      fields.Status.Name,
		Team:        extractCustomField(raw.Fields, c.conn.TeamField),
		ART:         extractCustomField(raw.Fields, c.conn.ARTField),
	}

	if fields.DueDate != "" {
		if due, err := time.Parse("2006-01-02", fields.DueDate); err == nil {
			issue.DueDate = &due
		}
	}

	for _, l := range fields.IssueLinks {
		if l.OutwardIssue == nil {
			continue
		}
		issue.Links = append(issue.Links, IssueLink{
			TypeName:  l.Type.Name,
			TargetKey: l.OutwardIssue.Key,
		})
	}

	return issue, nil
}

// extractCustomField reads a custom field from the raw fields object. Jira
// custom fields arrive as a bare string, an option object with a "value", or
// an object with a "name", depending on the field type.
func extractCustomField(rawFields json.RawMessage, fieldID string) string {
	if fieldID == "" {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rawFields, &fields); err != nil {
		return ""
	}
	raw, ok := fields[fieldID]
	if !ok || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Value string `json:"value"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Value != "" {
			return obj.Value
		}
		return obj.Name
	}

	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
