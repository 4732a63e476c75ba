package models

import (
	"time"

	"gorm.io/gorm"
)

// TrackerConnection represents a stored Jira/Jira Align connection. The
// active connection is resolved at call time and passed explicitly to the
// tracker client; client code never mutates shared connection state.
type TrackerConnection struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	BaseURL      string         `gorm:"size:500;not null" json:"base_url"` // e.g. https://yourcompany.atlassian.net
	AuthType     string         `gorm:"size:20;default:basic" json:"auth_type"` // basic, bearer
	Email        string         `gorm:"size:255" json:"email"`
	APIToken     string         `gorm:"size:500" json:"-"`
	APITokenMask string         `gorm:"-" json:"api_token_mask"`
	BearerToken  string         `gorm:"size:500" json:"-"`
	TeamField    string         `gorm:"size:100" json:"team_field"` // custom field id for team
	ARTField     string         `gorm:"column:art_field;size:100" json:"art_field"` // custom field id for release train
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TrackerConnection) TableName() string { return "tracker_connections" }

// MaskToken fills APITokenMask with a redacted form of the stored secret for
// API responses.
func (t *TrackerConnection) MaskToken() {
	secret := t.APIToken
	if t.AuthType == "bearer" {
		secret = t.BearerToken
	}
	if len(secret) > 4 {
		t.APITokenMask = "****" + secret[len(secret)-4:]
	} else if secret != "" {
		t.APITokenMask = "****"
	}
}
