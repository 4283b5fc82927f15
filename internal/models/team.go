package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Team is either a user's personal workspace (IsPersonal) or a shared team.
// PersonalFor carries the owner's user id on personal teams only, which keeps
// one personal team per user at the index level.
type Team struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	CreatedBy     string    `gorm:"size:128;not null;index" json:"created_by"`
	IsPersonal    bool      `gorm:"not null;default:false" json:"is_personal"`
	PersonalFor   *string   `gorm:"size:128;uniqueIndex" json:"-"`
	InviteCode    *string   `gorm:"size:16;uniqueIndex" json:"-"`
	CoverImageRef string    `gorm:"size:255" json:"cover_image_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Membership struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	TeamID   string    `gorm:"size:36;not null;uniqueIndex:uniq_team_user,priority:1" json:"team_id"`
	UserID   string    `gorm:"size:128;not null;uniqueIndex:uniq_team_user,priority:2;index" json:"user_id"`
	Role     Role      `gorm:"size:16;not null" json:"role"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
)

// Invite is a single targeted invitation. Only a hash of its token is kept;
// the raw token is handed to the inviter once.
type Invite struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	TeamID     string       `gorm:"size:36;not null;index" json:"team_id"`
	Email      string       `gorm:"size:255;not null" json:"email"`
	Code       string       `gorm:"size:16;not null;index" json:"code"`
	TokenHash  string       `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Role       Role         `gorm:"size:16;not null" json:"role"`
	Status     InviteStatus `gorm:"size:16;not null;index" json:"status"`
	InvitedBy  string       `gorm:"size:128;not null" json:"invited_by"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
	AcceptedBy string       `gorm:"size:128" json:"accepted_by,omitempty"`
	AcceptedAt *time.Time   `json:"accepted_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Profile is the caller-maintained display data for a user id.
type Profile struct {
	UserID    string    `gorm:"primaryKey;size:128" json:"user_id"`
	Name      string    `gorm:"size:255" json:"name"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url,omitempty"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicProfile is the view of a Profile that may be shown to anonymous readers.
type PublicProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (p Profile) Public() PublicProfile {
	return PublicProfile{ID: p.UserID, Name: p.Name, AvatarURL: p.AvatarURL}
}
