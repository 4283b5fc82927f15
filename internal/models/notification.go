package models

import (
	"time"

	"gorm.io/datatypes"
)

const NotificationTypeTeam = "team"

type Notification struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"size:128;not null;index" json:"user_id"`
	TeamID    *string        `gorm:"size:36;index" json:"team_id,omitempty"`
	Type      string         `gorm:"size:32;not null" json:"type"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	Read      bool           `gorm:"column:is_read;not null;default:false" json:"read"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
