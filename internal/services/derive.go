package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/internal/models"
)

// Sentinel labels substituted when an issue lacks the team/ART custom field.
// Cross-ART comparison happens after substitution, so two issues that both
// lack a release train are not cross-ART.
const (
	UnknownTeam = "Unknown Team"
	UnknownART  = "Unknown ART"
)

// Only these link-type names produce dependency rows; everything else is a
// no-op.
var dependencyLinkTypes = map[string]bool{
	"blocks":        true,
	"depends on":    true,
	"is blocked by": true,
}

// IsDependencyLink reports whether a link-type name is dependency-bearing.
func IsDependencyLink(typeName string) bool {
	return dependencyLinkTypes[strings.ToLower(strings.TrimSpace(typeName))]
}

// NormalizeTeam returns the issue team or the sentinel.
func NormalizeTeam(issue *jira.Issue) string {
	if issue.Team == "" {
		return UnknownTeam
	}
	return issue.Team
}

// NormalizeART returns the issue release train or the sentinel.
func NormalizeART(issue *jira.Issue) string {
	if issue.ART == "" {
		return UnknownART
	}
	return issue.ART
}

// IsCrossART compares release trains after sentinel substitution.
func IsCrossART(source, target *jira.Issue) bool {
	return NormalizeART(source) != NormalizeART(target)
}

// Deriver builds Dependency rows from issue pairs. It is the single
// derivation path shared by bulk import and both webhook creation events,
// so field construction cannot drift between call sites.
type Deriver struct {
	scorer *RiskScorer
}

func NewDeriver(scorer *RiskScorer) *Deriver {
	return &Deriver{scorer: scorer}
}

// Derive constructs a Dependency for the (source, target, linkType) triple,
// or returns nil when the link type is not dependency-bearing.
func (d *Deriver) Derive(ctx context.Context, source, target *jira.Issue, linkType string) *models.Dependency {
	if !IsDependencyLink(linkType) {
		return nil
	}

	description := source.Description
	if description == "" {
		description = "No description"
	}

	return &models.Dependency{
		Title:       fmt.Sprintf("%s → %s", source.Summary, target.Summary),
		SourceTeam:  NormalizeTeam(source),
		SourceART:   NormalizeART(source),
		TargetTeam:  NormalizeTeam(target),
		TargetART:   NormalizeART(target),
		Status:      MapStatus(source.Status),
		RiskScore:   d.scorer.Score(ctx, source, target),
		JiraID:      source.Key,
		IsCrossART:  IsCrossART(source, target),
		DueDate:     source.DueDate,
		Description: fmt.Sprintf("Dependency between %s and %s: %s", source.Key, target.Key, description),
	}
}
