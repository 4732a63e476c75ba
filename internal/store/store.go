// Package store defines the persistence interface for dependency records and
// its backing implementations. The backing store is a startup-time
// configuration decision injected into every service; there is no runtime
// fallback between backends.
package store

import (
	"errors"
	"time"

	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/models"
)

// ErrNotFound is returned when a lookup by identifier matches no row.
var ErrNotFound = errors.New("record not found")

// DependencyFilter narrows ListDependencies results. Zero values mean "no
// constraint". Page/PageSize of 0 default to 1/20.
type DependencyFilter struct {
	Status     string
	SourceTeam string
	TargetTeam string
	ART        string // matches source or target release train
	JiraID     string
	CrossART   *bool
	Page       int
	PageSize   int
}

// TeamCount is one row of the per-team dependency breakdown.
type TeamCount struct {
	Team  string `json:"team"`
	Count int64  `json:"count"`
}

// DependencyStats feeds the dashboard summary and graph views.
type DependencyStats struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	CrossART     int64            `json:"cross_art"`
	AverageRisk  float64          `json:"average_risk"`
	HighRisk     int64            `json:"high_risk"` // risk score >= 70
	TopSourceTeams []TeamCount    `json:"top_source_teams"`
}

// EventLogFilter narrows ListEventLogs results.
type EventLogFilter struct {
	Level  string
	Module string
	Limit  int
}

// Store is the persistence boundary of the ingestion pipeline and API layer.
type Store interface {
	// Dependencies
	ListDependencies(f *DependencyFilter) ([]models.Dependency, int64, error)
	GetDependency(id uint) (*models.Dependency, error)
	CreateDependency(d *models.Dependency) error
	UpdateDependency(d *models.Dependency) error
	DeleteDependency(id uint) error
	FindByJiraID(jiraID string) ([]models.Dependency, error)
	ExistsByJiraIDAndTitle(jiraID, title string) (bool, error)
	DependencyStats() (*DependencyStats, error)

	// Dependency links (exact join table for link-deleted resolution)
	CreateLink(l *models.DependencyLink) error
	FindLinks(sourceKey, targetKey string) ([]models.DependencyLink, error)
	DeleteLinksForDependency(dependencyID uint) error

	// Tracker connections
	ListTrackers() ([]models.TrackerConnection, error)
	GetTracker(id uint) (*models.TrackerConnection, error)
	CreateTracker(t *models.TrackerConnection) error
	UpdateTracker(t *models.TrackerConnection) error
	DeleteTracker(id uint) error

	// Import runs
	CreateImportRun(r *models.ImportRun) error
	UpdateImportRun(r *models.ImportRun) error
	ListImportRuns(limit int) ([]models.ImportRun, error)

	// Event log
	CreateEventLog(e *models.EventLog) error
	ListEventLogs(f *EventLogFilter) ([]models.EventLog, error)
	PurgeEventLogsBefore(cutoff time.Time) (int64, error)

	Ping() error
	Close() error
}

// New builds the store selected by the database config. "memory" keeps
// everything in process and is intended for demo mode and tests.
func New(cfg *config.DatabaseConfig) (Store, error) {
	if cfg.Driver == "memory" {
		return NewMemoryStore(), nil
	}
	return NewGormStore(cfg)
}

func normalizePage(f *DependencyFilter) (page, pageSize int) {
	page = f.Page
	pageSize = f.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
