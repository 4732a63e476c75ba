package services

import (
	"context"
	"fmt"
	"time"

	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/internal/models"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/logger"
	"github.com/google/uuid"
)

// ImportResult summarizes one bulk import run.
type ImportResult struct {
	RunID    string `json:"run_id"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	Success  bool   `json:"success"`
}

// Importer is the full-resync path: it searches the tracker for every issue
// with links, derives one dependency per allow-listed outward link, and
// skips rows already present (jiraId + synthesized title) so re-running
// against unchanged data does not multiply rows.
type Importer struct {
	store    store.Store
	source   IssueSource
	deriver  *Deriver
	hub      *Hub
	pageSize int
	demoMode bool
}

func NewImporter(st store.Store, source IssueSource, scorer *RiskScorer, hub *Hub, cfg *config.ImportConfig) *Importer {
	return &Importer{
		store:    st,
		source:   source,
		deriver:  NewDeriver(scorer),
		hub:      hub,
		pageSize: cfg.PageSize,
		demoMode: cfg.DemoMode,
	}
}

// Run executes one import. trigger is "manual" or "scheduled".
func (i *Importer) Run(ctx context.Context, trigger string) (*ImportResult, error) {
	source := "jira"
	if i.demoMode {
		source = "demo"
	}

	run := &models.ImportRun{
		RunID:     uuid.NewString(),
		Source:    source,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	if err := i.store.CreateImportRun(run); err != nil {
		GetMetrics().PersistFailures.Add(1)
		return nil, fmt.Errorf("record import run: %w", err)
	}

	result, err := i.runImport(ctx)

	now := time.Now()
	run.FinishedAt = &now
	if err != nil {
		run.Error = err.Error()
		LogPipelineError("import", "run", err.Error(), map[string]interface{}{"run_id": run.RunID})
	} else {
		run.Imported = result.Imported
		run.Skipped = result.Skipped
		run.Success = true
		result.RunID = run.RunID
		result.Success = true
	}
	if updateErr := i.store.UpdateImportRun(run); updateErr != nil {
		logger.Warnf("[Import] Failed to finalize run %s: %v", run.RunID, updateErr)
	}

	if err != nil {
		return nil, err
	}

	i.hub.PublishImported(result.Imported)
	LogPipelineInfo("import", "run", fmt.Sprintf("Imported %d dependencies (%d skipped)", result.Imported, result.Skipped),
		map[string]interface{}{"run_id": run.RunID, "trigger": trigger, "source": source})

	return result, nil
}

func (i *Importer) runImport(ctx context.Context) (*ImportResult, error) {
	issues, err := i.source.SearchIssuesWithLinks(ctx, i.pageSize)
	if err != nil {
		GetMetrics().FetchFailures.Add(1)
		return nil, fmt.Errorf("search linked issues: %w", err)
	}

	result := &ImportResult{}

	// Linked issues repeat across search results; fetch each full issue once.
	targets := make(map[string]*jira.Issue)

	for idx := range issues {
		issue := &issues[idx]
		for _, link := range issue.Links {
			if !IsDependencyLink(link.TypeName) {
				continue
			}

			target, ok := targets[link.TargetKey]
			if !ok {
				target, err = i.source.GetIssue(ctx, link.TargetKey)
				if err != nil {
					// One unreachable endpoint should not sink the whole
					// resync; count it and keep going.
					GetMetrics().FetchFailures.Add(1)
					logger.Warnf("[Import] Failed to fetch %s, skipping link %s → %s: %v",
						link.TargetKey, issue.Key, link.TargetKey, err)
					result.Errors++
					continue
				}
				targets[link.TargetKey] = target
			}

			dep := i.deriver.Derive(ctx, issue, target, link.TypeName)
			if dep == nil {
				continue
			}

			exists, err := i.store.ExistsByJiraIDAndTitle(dep.JiraID, dep.Title)
			if err != nil {
				GetMetrics().PersistFailures.Add(1)
				return nil, fmt.Errorf("dedupe check for %s: %w", dep.JiraID, err)
			}
			if exists {
				result.Skipped++
				continue
			}

			if err := i.store.CreateDependency(dep); err != nil {
				GetMetrics().PersistFailures.Add(1)
				return nil, fmt.Errorf("create dependency for %s: %w", dep.JiraID, err)
			}
			if err := i.store.CreateLink(&models.DependencyLink{
				DependencyID:   dep.ID,
				SourceIssueKey: issue.Key,
				TargetIssueKey: target.Key,
				LinkType:       link.TypeName,
			}); err != nil {
				GetMetrics().PersistFailures.Add(1)
				return nil, fmt.Errorf("record link for dependency %d: %w", dep.ID, err)
			}

			GetMetrics().DependenciesBuilt.Add(1)
			result.Imported++
		}
	}

	return result, nil
}

// ListRuns returns recent import runs, newest first.
func (i *Importer) ListRuns(limit int) ([]models.ImportRun, error) {
	return i.store.ListImportRuns(limit)
}
