package models

import (
	"time"

	"gorm.io/gorm"
)

// Dependency status values. MapStatus in the services package is the only
// producer of these from raw tracker statuses.
const (
	StatusInProgress = "in-progress"
	StatusAtRisk     = "at-risk"
	StatusBlocked    = "blocked"
	StatusCompleted  = "completed"
)

// Dependency represents a cross-team/cross-release work relationship derived
// from an issue-tracker link. Rows are never hard-deleted on source-issue
// deletion; they are soft-closed by setting status to completed.
type Dependency struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:500;not null" json:"title"`
	SourceTeam  string         `gorm:"size:200;not null" json:"source_team"`
	SourceART   string         `gorm:"column:source_art;size:200;not null" json:"source_art"`
	TargetTeam  string         `gorm:"size:200;not null" json:"target_team"`
	TargetART   string         `gorm:"column:target_art;size:200;not null" json:"target_art"`
	Status      string         `gorm:"size:50;default:in-progress" json:"status"`
	RiskScore   int            `gorm:"default:0" json:"risk_score"` // advisory, 0-100
	JiraID      string         `gorm:"column:jira_id;size:100;index" json:"jira_id"`
	IsCrossART  bool           `gorm:"column:is_cross_art;default:false" json:"is_cross_art"`
	DueDate     *time.Time     `json:"due_date"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Dependency) TableName() string { return "dependencies" }

// DependencyLink records which issue pair produced a dependency row, so that
// link-deleted events can resolve affected rows with an exact join instead of
// matching key substrings inside the description text.
type DependencyLink struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DependencyID   uint      `gorm:"index;not null" json:"dependency_id"`
	SourceIssueKey string    `gorm:"size:100;index:idx_link_pair,priority:1;not null" json:"source_issue_key"`
	TargetIssueKey string    `gorm:"size:100;index:idx_link_pair,priority:2;not null" json:"target_issue_key"`
	LinkType       string    `gorm:"size:100" json:"link_type"`
	CreatedAt      time.Time `json:"created_at"`
}

func (DependencyLink) TableName() string { return "dependency_links" }
