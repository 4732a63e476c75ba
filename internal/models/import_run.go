package models

import "time"

// ImportRun records one execution of the bulk importer, whether triggered
// manually, by the resync scheduler, or in demo mode.
type ImportRun struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RunID      string     `gorm:"size:64;uniqueIndex" json:"run_id"`
	Source     string     `gorm:"size:20;not null" json:"source"` // jira, demo
	Trigger    string     `gorm:"size:20;not null" json:"trigger"` // manual, scheduled
	Imported   int        `gorm:"default:0" json:"imported"`
	Skipped    int        `gorm:"default:0" json:"skipped"`
	Success    bool       `gorm:"default:false" json:"success"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (ImportRun) TableName() string { return "import_runs" }
