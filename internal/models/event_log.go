package models

import "time"

// EventLog is a persistent record of pipeline activity: webhook deliveries,
// fetch failures, import runs, scorer fallbacks. Webhook failures are not
// visible to the tracker, so this log is the primary place to observe them.
type EventLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string    `gorm:"size:50;index" json:"module"`
	Action    string    `gorm:"size:100" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	Extra     string    `gorm:"type:text" json:"extra,omitempty"` // JSON payload with context
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (EventLog) TableName() string { return "event_logs" }
