package models

import "time"

// PublicShare grants anonymous read access to one project through Token.
// Rows are toggled, never rotated.
type PublicShare struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string     `gorm:"size:36;not null;uniqueIndex" json:"project_id"`
	Token     string     `gorm:"size:64;not null;uniqueIndex" json:"token"`
	Enabled   bool       `gorm:"not null" json:"enabled"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedBy string     `gorm:"size:128;not null" json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ShareAccessLog struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ShareID     string    `gorm:"size:36;not null;index" json:"share_id"`
	AccessedAt  time.Time `gorm:"not null;index" json:"accessed_at"`
	ViewerLabel string    `gorm:"size:255" json:"viewer_label,omitempty"`
	Referrer    string    `gorm:"size:1024" json:"referrer,omitempty"`
}
