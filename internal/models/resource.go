package models

import (
	"time"

	"gorm.io/datatypes"
)

type ItemType string

const (
	ItemTypeCode   ItemType = "code"
	ItemTypePrompt ItemType = "prompt"
	ItemTypeFile   ItemType = "file"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeCode, ItemTypePrompt, ItemTypeFile:
		return true
	}
	return false
}

// Item is a vault entry: a code snippet, a prompt or an uploaded file.
// TeamID nil means a legacy personal item owned by UserID; once set, UserID
// only records who created it.
type Item struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	TeamID      *string        `gorm:"size:36;index" json:"team_id,omitempty"`
	UserID      string         `gorm:"size:128;not null;index" json:"user_id"`
	Type        ItemType       `gorm:"size:16;not null;index" json:"type"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Content     string         `gorm:"type:text" json:"content,omitempty"`
	Language    string         `gorm:"size:64" json:"language,omitempty"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Tags        datatypes.JSON `json:"tags,omitempty"`
	Favorite    bool           `gorm:"not null;default:false" json:"favorite"`
	StorageID   string         `gorm:"size:255" json:"storage_id,omitempty"`
	FileURL     string         `gorm:"size:1024" json:"file_url,omitempty"`
	FileName    string         `gorm:"size:255" json:"file_name,omitempty"`
	FileSize    int64          `json:"file_size,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Project is a Kanban board. Ownership follows the same rules as Item.
type Project struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	TeamID        *string        `gorm:"size:36;index" json:"team_id,omitempty"`
	UserID        string         `gorm:"size:128;not null;index" json:"user_id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	Columns       datatypes.JSON `json:"columns,omitempty"`
	Archived      bool           `gorm:"not null;default:false;index" json:"archived"`
	CoverImageRef string         `gorm:"size:255" json:"cover_image_ref,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ProjectUpdate is one entry of a project's update history.
type ProjectUpdate struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string    `gorm:"size:36;not null;index" json:"project_id"`
	AuthorID  string    `gorm:"size:128;not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
