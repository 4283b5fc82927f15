// Package store declares the storage contracts shared by the gorm repo and
// the in-memory store. Implementations rely on per-row atomicity only, except
// where a method says otherwise.
package store

import (
	"context"
	"errors"

	"vault/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type Teams interface {
	// CreateTeam inserts the team and its creator membership together.
	CreateTeam(ctx context.Context, team *models.Team, creator *models.Membership) error
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	GetPersonalTeam(ctx context.Context, userID string) (*models.Team, error)
	GetTeamByInviteCode(ctx context.Context, code string) (*models.Team, error)
	ListTeams(ctx context.Context, ids []string) ([]models.Team, error)
	SaveTeam(ctx context.Context, team *models.Team) error
	// DeleteTeam removes the team with its memberships, invites, team-scoped
	// items and projects, their shares and access logs.
	DeleteTeam(ctx context.Context, id string) error
}

type Memberships interface {
	GetMembership(ctx context.Context, teamID, userID string) (*models.Membership, error)
	GetMembershipByID(ctx context.Context, id string) (*models.Membership, error)
	// AddMembership is a no-op returning false when (team, user) already exists.
	AddMembership(ctx context.Context, m *models.Membership) (bool, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]models.Membership, error)
	ListUserMemberships(ctx context.Context, userID string) ([]models.Membership, error)
	SetMembershipRole(ctx context.Context, id string, role models.Role) error
	DeleteMembership(ctx context.Context, id string) error
}

type Invites interface {
	CreateInvite(ctx context.Context, inv *models.Invite) error
	GetInvite(ctx context.Context, id string) (*models.Invite, error)
	GetInviteByTokenHash(ctx context.Context, hash string) (*models.Invite, error)
	// GetInviteByCode returns the newest pending invite with the code, or the
	// newest invite with it when none is pending.
	GetInviteByCode(ctx context.Context, code string) (*models.Invite, error)
	ListTeamInvites(ctx context.Context, teamID string, status models.InviteStatus) ([]models.Invite, error)
	// TransitionInvite moves the invite from one status to another only if it
	// is still in `from`. It reports whether the row changed.
	TransitionInvite(ctx context.Context, id string, from models.InviteStatus, to InviteTransition) (bool, error)
}

type Items interface {
	CreateItem(ctx context.Context, it *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	SaveItem(ctx context.Context, it *models.Item) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, f ItemFilter, p PageRequest) (Page[models.Item], error)
	CountItemsByType(ctx context.Context, s Scope) (map[models.ItemType]int64, error)
	// AssignLegacyItems sets teamID on every item of userID without a team.
	AssignLegacyItems(ctx context.Context, userID, teamID string) (int64, error)
}

type Projects interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	SaveProject(ctx context.Context, p *models.Project) error
	// DeleteProject also removes the project's updates, share and access log.
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context, f ProjectFilter, p PageRequest) (Page[models.Project], error)
	CountActiveProjects(ctx context.Context, s Scope) (int64, error)
	AssignLegacyProjects(ctx context.Context, userID, teamID string) (int64, error)
	AddProjectUpdate(ctx context.Context, u *models.ProjectUpdate) error
	ListProjectUpdates(ctx context.Context, projectID string) ([]models.ProjectUpdate, error)
}

type Shares interface {
	CreateShare(ctx context.Context, sh *models.PublicShare) error
	GetShare(ctx context.Context, id string) (*models.PublicShare, error)
	GetShareByProject(ctx context.Context, projectID string) (*models.PublicShare, error)
	GetShareByToken(ctx context.Context, token string) (*models.PublicShare, error)
	SaveShare(ctx context.Context, sh *models.PublicShare) error
	AppendAccessLog(ctx context.Context, l *models.ShareAccessLog) error
	CountAccessLogs(ctx context.Context, shareID string) (int64, error)
	RecentAccessLogs(ctx context.Context, shareID string, limit int) ([]models.ShareAccessLog, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, p PageRequest) (Page[models.Notification], error)
	// MarkNotificationRead returns ErrNotFound unless the row belongs to userID.
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
}

type Profiles interface {
	UpsertProfile(ctx context.Context, p *models.Profile) error
	GetProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error)
}

// Store is everything the services need from persistence.
type Store interface {
	Teams
	Memberships
	Invites
	Items
	Projects
	Shares
	Notifications
	Profiles
	Ping(ctx context.Context) error
}
