package store

import (
	"testing"
	"time"

	"github.com/depflow/depflow/internal/models"
)

func TestMemoryStoreDependencyCRUD(t *testing.T) {
	s := NewMemoryStore()

	dep := &models.Dependency{
		Title:      "A → B",
		SourceTeam: "Falcon",
		SourceART:  "Platform",
		TargetTeam: "Raven",
		TargetART:  "Mobile",
		Status:     models.StatusInProgress,
		RiskScore:  65,
		JiraID:     "ENG-1",
		IsCrossART: true,
	}
	if err := s.CreateDependency(dep); err != nil {
		t.Fatalf("CreateDependency: %v", err)
	}
	if dep.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := s.GetDependency(dep.ID)
	if err != nil {
		t.Fatalf("GetDependency: %v", err)
	}
	if got.Title != "A → B" {
		t.Errorf("Title = %q", got.Title)
	}

	got.Status = models.StatusBlocked
	if err := s.UpdateDependency(got); err != nil {
		t.Fatalf("UpdateDependency: %v", err)
	}
	again, _ := s.GetDependency(dep.ID)
	if again.Status != models.StatusBlocked {
		t.Errorf("Status = %q after update", again.Status)
	}

	if err := s.DeleteDependency(dep.ID); err != nil {
		t.Fatalf("DeleteDependency: %v", err)
	}
	if _, err := s.GetDependency(dep.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteDependency(dep.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	dep := &models.Dependency{Title: "orig", JiraID: "ENG-1"}
	s.CreateDependency(dep)

	got, _ := s.GetDependency(dep.ID)
	got.Title = "mutated"

	fresh, _ := s.GetDependency(dep.ID)
	if fresh.Title != "orig" {
		t.Error("mutating a returned row should not affect the stored row")
	}
}

func TestMemoryStoreListFilters(t *testing.T) {
	s := NewMemoryStore()
	crossART := true

	s.CreateDependency(&models.Dependency{Title: "a", Status: models.StatusBlocked, SourceTeam: "Falcon", SourceART: "Platform", TargetART: "Mobile", IsCrossART: true, RiskScore: 90})
	s.CreateDependency(&models.Dependency{Title: "b", Status: models.StatusInProgress, SourceTeam: "Falcon", SourceART: "Platform", TargetART: "Platform", RiskScore: 10})
	s.CreateDependency(&models.Dependency{Title: "c", Status: models.StatusBlocked, SourceTeam: "Raven", SourceART: "Mobile", TargetART: "Mobile", RiskScore: 50})

	deps, total, err := s.ListDependencies(&DependencyFilter{Status: models.StatusBlocked})
	if err != nil {
		t.Fatalf("ListDependencies: %v", err)
	}
	if total != 2 || len(deps) != 2 {
		t.Errorf("blocked filter: total=%d len=%d", total, len(deps))
	}
	// Ordered by risk score descending
	if deps[0].RiskScore < deps[1].RiskScore {
		t.Error("expected risk-descending order")
	}

	deps, total, _ = s.ListDependencies(&DependencyFilter{CrossART: &crossART})
	if total != 1 || deps[0].Title != "a" {
		t.Errorf("cross-art filter: total=%d", total)
	}

	_, total, _ = s.ListDependencies(&DependencyFilter{SourceTeam: "Falcon"})
	if total != 2 {
		t.Errorf("team filter: total=%d", total)
	}

	_, total, _ = s.ListDependencies(&DependencyFilter{ART: "Mobile"})
	if total != 2 {
		t.Errorf("art filter should match source or target: total=%d", total)
	}
}

func TestMemoryStoreListPagination(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		s.CreateDependency(&models.Dependency{Title: "dep", RiskScore: i * 10})
	}

	deps, total, _ := s.ListDependencies(&DependencyFilter{Page: 2, PageSize: 2})
	if total != 5 {
		t.Errorf("total = %d", total)
	}
	if len(deps) != 2 {
		t.Errorf("page len = %d", len(deps))
	}

	deps, _, _ = s.ListDependencies(&DependencyFilter{Page: 4, PageSize: 2})
	if len(deps) != 0 {
		t.Errorf("out-of-range page should be empty, got %d", len(deps))
	}
}

func TestMemoryStoreFindByJiraID(t *testing.T) {
	s := NewMemoryStore()
	s.CreateDependency(&models.Dependency{Title: "one", JiraID: "ENG-1"})
	s.CreateDependency(&models.Dependency{Title: "two", JiraID: "ENG-1"})
	s.CreateDependency(&models.Dependency{Title: "other", JiraID: "ENG-2"})

	found, err := s.FindByJiraID("ENG-1")
	if err != nil {
		t.Fatalf("FindByJiraID: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("len = %d, expected 2", len(found))
	}
	// Deterministic id order
	if found[0].ID > found[1].ID {
		t.Error("expected ascending id order")
	}

	exists, _ := s.ExistsByJiraIDAndTitle("ENG-1", "one")
	if !exists {
		t.Error("ExistsByJiraIDAndTitle should find exact match")
	}
	exists, _ = s.ExistsByJiraIDAndTitle("ENG-1", "three")
	if exists {
		t.Error("ExistsByJiraIDAndTitle should not match different title")
	}
}

func TestMemoryStoreLinks(t *testing.T) {
	s := NewMemoryStore()
	dep := &models.Dependency{Title: "x", JiraID: "ENG-1"}
	s.CreateDependency(dep)

	s.CreateLink(&models.DependencyLink{DependencyID: dep.ID, SourceIssueKey: "ENG-1", TargetIssueKey: "ENG-2", LinkType: "blocks"})
	s.CreateLink(&models.DependencyLink{DependencyID: dep.ID, SourceIssueKey: "ENG-1", TargetIssueKey: "ENG-3", LinkType: "blocks"})

	links, err := s.FindLinks("ENG-1", "ENG-2")
	if err != nil {
		t.Fatalf("FindLinks: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("len = %d, expected exact pair match", len(links))
	}
	if links[0].DependencyID != dep.ID {
		t.Errorf("DependencyID = %d", links[0].DependencyID)
	}

	links, _ = s.FindLinks("ENG-2", "ENG-1")
	if len(links) != 0 {
		t.Error("reversed pair should not match")
	}

	if err := s.DeleteLinksForDependency(dep.ID); err != nil {
		t.Fatalf("DeleteLinksForDependency: %v", err)
	}
	links, _ = s.FindLinks("ENG-1", "ENG-2")
	if len(links) != 0 {
		t.Errorf("links remain after cleanup: %d", len(links))
	}
}

func TestMemoryStoreStats(t *testing.T) {
	s := NewMemoryStore()
	s.CreateDependency(&models.Dependency{SourceTeam: "Falcon", Status: models.StatusBlocked, RiskScore: 90, IsCrossART: true})
	s.CreateDependency(&models.Dependency{SourceTeam: "Falcon", Status: models.StatusInProgress, RiskScore: 30})
	s.CreateDependency(&models.Dependency{SourceTeam: "Raven", Status: models.StatusCompleted, RiskScore: 60})

	stats, err := s.DependencyStats()
	if err != nil {
		t.Fatalf("DependencyStats: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("Total = %d", stats.Total)
	}
	if stats.ByStatus[models.StatusBlocked] != 1 {
		t.Errorf("blocked count = %d", stats.ByStatus[models.StatusBlocked])
	}
	if stats.CrossART != 1 {
		t.Errorf("CrossART = %d", stats.CrossART)
	}
	if stats.HighRisk != 1 {
		t.Errorf("HighRisk = %d", stats.HighRisk)
	}
	if stats.AverageRisk != 60 {
		t.Errorf("AverageRisk = %f", stats.AverageRisk)
	}
	if len(stats.TopSourceTeams) == 0 || stats.TopSourceTeams[0].Team != "Falcon" {
		t.Errorf("TopSourceTeams = %+v", stats.TopSourceTeams)
	}
}

func TestMemoryStoreEventLogRetention(t *testing.T) {
	s := NewMemoryStore()

	old := &models.EventLog{Level: "error", Module: "webhook", Message: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}
	s.CreateEventLog(old)
	s.CreateEventLog(&models.EventLog{Level: "info", Module: "import", Message: "recent"})

	purged, err := s.PurgeEventLogsBefore(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PurgeEventLogsBefore: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, expected 1", purged)
	}

	logs, _ := s.ListEventLogs(&EventLogFilter{})
	if len(logs) != 1 || logs[0].Message != "recent" {
		t.Errorf("remaining logs = %+v", logs)
	}

	logs, _ = s.ListEventLogs(&EventLogFilter{Module: "webhook"})
	if len(logs) != 0 {
		t.Errorf("module filter should exclude remaining log")
	}
}
