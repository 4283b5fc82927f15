package store

import (
	"time"

	"vault/internal/models"
)

// Scope selects the resources visible in one read.
//
//	TeamID == ""                     legacy personal resources of UserID
//	TeamID != "", !IncludeLegacy     resources of the team
//	TeamID != "",  IncludeLegacy     resources of the team plus UserID's legacy ones
type Scope struct {
	TeamID        string
	UserID        string
	IncludeLegacy bool
}

// Matches applies the scope rule to a single resource.
func (s Scope) Matches(teamID *string, userID string) bool {
	if s.TeamID == "" {
		return teamID == nil && userID == s.UserID
	}
	if teamID != nil && *teamID == s.TeamID {
		return true
	}
	return s.IncludeLegacy && teamID == nil && userID == s.UserID
}

type ItemFilter struct {
	Scope
	Type models.ItemType
}

type ProjectFilter struct {
	Scope
	IncludeArchived bool
}

type InviteTransition struct {
	Status     models.InviteStatus
	AcceptedBy string
	At         time.Time
}
