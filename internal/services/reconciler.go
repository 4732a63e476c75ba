package services

import (
	"context"
	"fmt"

	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/internal/models"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/logger"
)

// IssueSource is the read side of the tracker consumed by the pipeline.
// jira.Client implements it; tests substitute fakes.
type IssueSource interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
	SearchIssuesWithLinks(ctx context.Context, pageSize int) ([]jira.Issue, error)
}

// Reconciler maps inbound tracker events to Dependency Store mutations. It
// holds no state between events beyond what is in the store; events are
// processed independently, serialized per issue key.
type Reconciler struct {
	store   store.Store
	source  IssueSource
	deriver *Deriver
	scorer  *RiskScorer
	hub     *Hub
	keys    *keyedMutex
}

func NewReconciler(st store.Store, source IssueSource, scorer *RiskScorer, hub *Hub) *Reconciler {
	return &Reconciler{
		store:   st,
		source:  source,
		deriver: NewDeriver(scorer),
		scorer:  scorer,
		hub:     hub,
		keys:    newKeyedMutex(),
	}
}

// ProcessTask adapts the queue payload to Process.
func (r *Reconciler) ProcessTask(ctx context.Context, task *WebhookTask) error {
	return r.Process(ctx, &task.Event)
}

// Process handles one webhook event. A fetch or persist failure aborts this
// event only; nothing is retried and no partial fetch state is kept.
func (r *Reconciler) Process(ctx context.Context, event *jira.WebhookEvent) error {
	if !event.Validate() {
		GetMetrics().EventsRejected.Add(1)
		return fmt.Errorf("malformed webhook payload: event=%q", event.WebhookEvent)
	}

	GetMetrics().EventsProcessed.Add(1)

	var err error
	switch event.WebhookEvent {
	case jira.EventIssueUpdated:
		err = r.handleIssueUpdated(ctx, event.Issue.Key)
	case jira.EventIssueCreated:
		err = r.handleIssueCreated(ctx, event.Issue.Key)
	case jira.EventIssueDeleted:
		err = r.handleIssueDeleted(event.Issue.Key)
	case jira.EventLinkCreated:
		err = r.handleLinkCreated(ctx, event.IssueLink)
	case jira.EventLinkDeleted:
		err = r.handleLinkDeleted(event.IssueLink)
	}

	if err != nil {
		LogPipelineError("webhook", event.WebhookEvent, err.Error(), map[string]interface{}{
			"issue": eventKey(event),
		})
	}
	return err
}

func eventKey(event *jira.WebhookEvent) string {
	if event.Issue != nil {
		return event.Issue.Key
	}
	if event.IssueLink != nil {
		return event.IssueLink.SourceIssueKey
	}
	return ""
}

// handleIssueUpdated remaps status and rescores every dependency keyed by
// the issue. Rescoring pairs the issue with its first linked issue; when the
// issue has no qualifying link left, the existing score is retained.
func (r *Reconciler) handleIssueUpdated(ctx context.Context, key string) error {
	unlock := r.keys.Lock(key)
	defer unlock()

	deps, err := r.store.FindByJiraID(key)
	if err != nil {
		GetMetrics().PersistFailures.Add(1)
		return fmt.Errorf("lookup dependencies for %s: %w", key, err)
	}
	if len(deps) == 0 {
		// Event referencing an unknown entity is silently ignored
		return nil
	}

	issue, err := r.source.GetIssue(ctx, key)
	if err != nil {
		GetMetrics().FetchFailures.Add(1)
		return fmt.Errorf("fetch issue %s: %w", key, err)
	}

	var target *jira.Issue
	if len(issue.Links) > 0 {
		target, err = r.source.GetIssue(ctx, issue.Links[0].TargetKey)
		if err != nil {
			GetMetrics().FetchFailures.Add(1)
			return fmt.Errorf("fetch linked issue %s: %w", issue.Links[0].TargetKey, err)
		}
	}

	status := MapStatus(issue.Status)
	for i := range deps {
		dep := deps[i]
		dep.Status = status
		if target != nil {
			dep.RiskScore = r.scorer.Score(ctx, issue, target)
		}
		dep.Description = fmt.Sprintf("Updated from webhook: %s is now %q", issue.Key, issue.Status)

		if err := r.store.UpdateDependency(&dep); err != nil {
			GetMetrics().PersistFailures.Add(1)
			return fmt.Errorf("update dependency %d: %w", dep.ID, err)
		}
		r.hub.PublishDependency("updated", &dep)
	}

	logger.Debug().Str("issue", key).Int("rows", len(deps)).Msg("reconciled issue update")
	return nil
}

// handleIssueCreated derives one dependency per allow-listed outward link on
// the new issue.
func (r *Reconciler) handleIssueCreated(ctx context.Context, key string) error {
	unlock := r.keys.Lock(key)
	defer unlock()

	issue, err := r.source.GetIssue(ctx, key)
	if err != nil {
		GetMetrics().FetchFailures.Add(1)
		return fmt.Errorf("fetch issue %s: %w", key, err)
	}

	for _, link := range issue.Links {
		if !IsDependencyLink(link.TypeName) {
			continue
		}
		target, err := r.source.GetIssue(ctx, link.TargetKey)
		if err != nil {
			GetMetrics().FetchFailures.Add(1)
			return fmt.Errorf("fetch linked issue %s: %w", link.TargetKey, err)
		}
		if err := r.persistDerived(ctx, issue, target, link.TypeName); err != nil {
			return err
		}
	}
	return nil
}

// handleIssueDeleted soft-closes every dependency keyed by the deleted
// issue. Re-processing the same deletion is a no-op beyond rewriting the
// same terminal state.
func (r *Reconciler) handleIssueDeleted(key string) error {
	unlock := r.keys.Lock(key)
	defer unlock()

	deps, err := r.store.FindByJiraID(key)
	if err != nil {
		GetMetrics().PersistFailures.Add(1)
		return fmt.Errorf("lookup dependencies for %s: %w", key, err)
	}

	for i := range deps {
		dep := deps[i]
		dep.Status = models.StatusCompleted
		dep.Description = fmt.Sprintf("Dependency closed: source issue %s was deleted", key)

		if err := r.store.UpdateDependency(&dep); err != nil {
			GetMetrics().PersistFailures.Add(1)
			return fmt.Errorf("soft-close dependency %d: %w", dep.ID, err)
		}
		r.hub.PublishDependency("updated", &dep)
	}
	return nil
}

// handleLinkCreated fetches both endpoint issues and derives one dependency
// keyed by the link source.
func (r *Reconciler) handleLinkCreated(ctx context.Context, link *jira.WebhookIssueLink) error {
	if !IsDependencyLink(link.Type.Name) {
		return nil
	}

	unlock := r.keys.Lock(link.SourceIssueKey)
	defer unlock()

	source, err := r.source.GetIssue(ctx, link.SourceIssueKey)
	if err != nil {
		GetMetrics().FetchFailures.Add(1)
		return fmt.Errorf("fetch issue %s: %w", link.SourceIssueKey, err)
	}
	target, err := r.source.GetIssue(ctx, link.TargetIssueKey)
	if err != nil {
		GetMetrics().FetchFailures.Add(1)
		return fmt.Errorf("fetch issue %s: %w", link.TargetIssueKey, err)
	}

	return r.persistDerived(ctx, source, target, link.Type.Name)
}

// handleLinkDeleted soft-closes the dependencies recorded for the exact
// (source, target) issue pair via the link join table.
func (r *Reconciler) handleLinkDeleted(link *jira.WebhookIssueLink) error {
	unlock := r.keys.Lock(link.SourceIssueKey)
	defer unlock()

	rows, err := r.store.FindLinks(link.SourceIssueKey, link.TargetIssueKey)
	if err != nil {
		GetMetrics().PersistFailures.Add(1)
		return fmt.Errorf("lookup links %s→%s: %w", link.SourceIssueKey, link.TargetIssueKey, err)
	}

	for _, row := range rows {
		dep, err := r.store.GetDependency(row.DependencyID)
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			GetMetrics().PersistFailures.Add(1)
			return fmt.Errorf("load dependency %d: %w", row.DependencyID, err)
		}

		dep.Status = models.StatusCompleted
		dep.Description = fmt.Sprintf("Dependency closed: link %s → %s was removed", link.SourceIssueKey, link.TargetIssueKey)

		if err := r.store.UpdateDependency(dep); err != nil {
			GetMetrics().PersistFailures.Add(1)
			return fmt.Errorf("soft-close dependency %d: %w", dep.ID, err)
		}
		r.hub.PublishDependency("updated", dep)
	}
	return nil
}

// persistDerived stores a freshly derived dependency with its link row and
// broadcasts the creation. A row with the same jiraId and title already in
// the store makes this a no-op, so webhook redeliveries do not duplicate.
func (r *Reconciler) persistDerived(ctx context.Context, source, target *jira.Issue, linkType string) error {
	dep := r.deriver.Derive(ctx, source, target, linkType)
	if dep == nil {
		return nil
	}

	exists, err := r.store.ExistsByJiraIDAndTitle(dep.JiraID, dep.Title)
	if err != nil {
		GetMetrics().PersistFailures.Add(1)
		return fmt.Errorf("dedupe check for %s: %w", dep.JiraID, err)
	}
	if exists {
		logger.Debug().Str("issue", dep.JiraID).Str("title", dep.Title).Msg("dependency already recorded")
		return nil
	}

	if err := r.store.CreateDependency(dep); err != nil {
		GetMetrics().PersistFailures.Add(1)
		return fmt.Errorf("create dependency for %s: %w", dep.JiraID, err)
	}

	linkRow := &models.DependencyLink{
		DependencyID:   dep.ID,
		SourceIssueKey: source.Key,
		TargetIssueKey: target.Key,
		LinkType:       linkType,
	}
	if err := r.store.CreateLink(linkRow); err != nil {
		GetMetrics().PersistFailures.Add(1)
		return fmt.Errorf("record link for dependency %d: %w", dep.ID, err)
	}

	GetMetrics().DependenciesBuilt.Add(1)
	r.hub.PublishDependency("created", dep)
	return nil
}
