package access

import (
	"time"

	"vault/internal/models"
)

// Owner is the authoritative owner of a resource: exactly one of
// PersonalOwner or TeamOwner.
type Owner interface {
	owner()
}

type PersonalOwner struct{ UserID string }

type TeamOwner struct{ TeamID string }

func (PersonalOwner) owner() {}
func (TeamOwner) owner()     {}

// OwnerOf derives the owner from the stored fields. A set team id wins; the
// user id is then provenance only.
func OwnerOf(teamID *string, userID string) Owner {
	if teamID != nil && *teamID != "" {
		return TeamOwner{TeamID: *teamID}
	}
	return PersonalOwner{UserID: userID}
}

func ItemOwner(it *models.Item) Owner { return OwnerOf(it.TeamID, it.UserID) }

func ProjectOwner(p *models.Project) Owner { return OwnerOf(p.TeamID, p.UserID) }

// IsExpired: expiresAt is set and not after now.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && !expiresAt.After(now)
}
