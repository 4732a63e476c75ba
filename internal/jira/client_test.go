package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testConnection(baseURL string) Connection {
	return Connection{
		BaseURL:   baseURL,
		AuthType:  "basic",
		Email:     "bot@example.com",
		APIToken:  "token",
		TeamField: "customfield_10001",
		ARTField:  "customfield_10002",
		Timeout:   5 * time.Second,
	}
}

func TestGetIssueMapsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/issue/ENG-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot@example.com" || pass != "token" {
			t.Error("expected basic auth credentials")
		}
		fmt.Fprint(w, `{
			"id": "10100",
			"key": "ENG-1",
			"fields": {
				"summary": "API gateway rollout",
				"description": "Move traffic to the new gateway",
				"issuetype": {"name": "Story"},
				"status": {"name": "In Progress"},
				"duedate": "2026-09-01",
				"customfield_10001": {"value": "Team Falcon"},
				"customfield_10002": "Platform",
				"issuelinks": [
					{"type": {"name": "Blocks"}, "outwardIssue": {"key": "ENG-2"}},
					{"type": {"name": "Relates"}, "inwardIssue": {"key": "ENG-3"}}
				]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(testConnection(server.URL))
	issue, err := client.GetIssue(context.Background(), "ENG-1")
	if err != nil {
		t.Fatalf("GetIssue returned error: %v", err)
	}

	if issue.Key != "ENG-1" {
		t.Errorf("Key = %q", issue.Key)
	}
	if issue.Summary != "API gateway rollout" {
		t.Errorf("Summary = %q", issue.Summary)
	}
	if issue.Status != "In Progress" {
		t.Errorf("Status = %q", issue.Status)
	}
	if issue.Type != "Story" {
		t.Errorf("Type = %q", issue.Type)
	}
	if issue.Team != "Team Falcon" {
		t.Errorf("Team = %q, expected option value to be unwrapped", issue.Team)
	}
	if issue.ART != "Platform" {
		t.Errorf("ART = %q, expected bare string custom field", issue.ART)
	}
	if issue.DueDate == nil || issue.DueDate.Format("2006-01-02") != "2026-09-01" {
		t.Errorf("DueDate = %v", issue.DueDate)
	}
	// Only the outward link is mirrored
	if len(issue.Links) != 1 {
		t.Fatalf("len(Links) = %d, expected 1", len(issue.Links))
	}
	if issue.Links[0].TypeName != "Blocks" || issue.Links[0].TargetKey != "ENG-2" {
		t.Errorf("Links[0] = %+v", issue.Links[0])
	}
}

func TestGetIssueMissingCustomFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": "10101",
			"key": "ENG-9",
			"fields": {
				"summary": "No team set",
				"issuetype": {"name": "Task"},
				"status": {"name": "To Do"},
				"customfield_10001": null
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(testConnection(server.URL))
	issue, err := client.GetIssue(context.Background(), "ENG-9")
	if err != nil {
		t.Fatalf("GetIssue returned error: %v", err)
	}

	if issue.Team != "" {
		t.Errorf("Team = %q, expected empty for null field", issue.Team)
	}
	if issue.ART != "" {
		t.Errorf("ART = %q, expected empty for absent field", issue.ART)
	}
	if issue.DueDate != nil {
		t.Errorf("DueDate = %v, expected nil", issue.DueDate)
	}
}

func TestGetIssueServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConnection(server.URL))
	if _, err := client.GetIssue(context.Background(), "GONE-1"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestSearchIssuesWithLinksPaginates(t *testing.T) {
	// 3 issues served in pages of 2
	makeIssue := func(n int) map[string]interface{} {
		return map[string]interface{}{
			"id":  strconv.Itoa(10000 + n),
			"key": fmt.Sprintf("ENG-%d", n),
			"fields": map[string]interface{}{
				"summary":    fmt.Sprintf("Issue %d", n),
				"issuetype":  map[string]string{"name": "Story"},
				"status":     map[string]string{"name": "In Progress"},
				"issuelinks": []interface{}{},
			},
		}
	}

	var requests []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		requests = append(requests, startAt)

		all := []map[string]interface{}{makeIssue(1), makeIssue(2), makeIssue(3)}
		end := startAt + 2
		if end > len(all) {
			end = len(all)
		}
		page := all[startAt:end]

		json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt":    startAt,
			"maxResults": 2,
			"total":      len(all),
			"issues":     page,
		})
	}))
	defer server.Close()

	client := NewClient(testConnection(server.URL))
	issues, err := client.SearchIssuesWithLinks(context.Background(), 2)
	if err != nil {
		t.Fatalf("SearchIssuesWithLinks returned error: %v", err)
	}

	if len(issues) != 3 {
		t.Errorf("len(issues) = %d, expected 3", len(issues))
	}
	if len(requests) != 2 {
		t.Errorf("expected 2 page requests, got %d (%v)", len(requests), requests)
	}
	if issues[2].Key != "ENG-3" {
		t.Errorf("issues[2].Key = %q", issues[2].Key)
	}
}

func TestBearerAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer oauth-token" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{"id":"1","key":"ENG-1","fields":{"summary":"x","issuetype":{"name":"Task"},"status":{"name":"Done"}}}`)
	}))
	defer server.Close()

	conn := testConnection(server.URL)
	conn.AuthType = "bearer"
	conn.BearerToken = "oauth-token"

	client := NewClient(conn)
	if _, err := client.GetIssue(context.Background(), "ENG-1"); err != nil {
		t.Fatalf("GetIssue returned error: %v", err)
	}
}

func TestWebhookEventValidate(t *testing.T) {
	cases := []struct {
		name  string
		event WebhookEvent
		want  bool
	}{
		{"empty", WebhookEvent{}, false},
		{"issue updated with key", WebhookEvent{WebhookEvent: EventIssueUpdated, Issue: &WebhookIssue{Key: "ENG-1"}}, true},
		{"issue updated missing issue", WebhookEvent{WebhookEvent: EventIssueUpdated}, false},
		{"issue created empty key", WebhookEvent{WebhookEvent: EventIssueCreated, Issue: &WebhookIssue{}}, false},
		{"link created", WebhookEvent{WebhookEvent: EventLinkCreated, IssueLink: &WebhookIssueLink{SourceIssueKey: "A-1", TargetIssueKey: "B-1"}}, true},
		{"link deleted missing target", WebhookEvent{WebhookEvent: EventLinkDeleted, IssueLink: &WebhookIssueLink{SourceIssueKey: "A-1"}}, false},
		{"unknown event", WebhookEvent{WebhookEvent: "jira:worklog_updated"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.event.Validate(); got != tc.want {
				t.Errorf("Validate() = %v, expected %v", got, tc.want)
			}
		})
	}
}
