// Package access holds the authorization primitives shared by every service:
// the membership resolver, the resource owner union and the error taxonomy.
package access

import (
	"context"
	"errors"
	"fmt"

	"vault/internal/models"
	"vault/internal/store"
)

type MembershipReader interface {
	GetMembership(ctx context.Context, teamID, userID string) (*models.Membership, error)
}

// Resolver answers "is this user in this team, and as what". It reads the
// store on every call; new memberships are visible immediately.
type Resolver struct {
	members MembershipReader
}

func NewResolver(members MembershipReader) *Resolver {
	return &Resolver{members: members}
}

// ResolveRole returns the caller's role, or ok=false without a membership.
func (r *Resolver) ResolveRole(ctx context.Context, teamID, userID string) (models.Role, bool, error) {
	if teamID == "" || userID == "" {
		return "", false, nil
	}
	m, err := r.members.GetMembership(ctx, teamID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve role: %w", err)
	}
	return m.Role, true, nil
}

// RequireMember fails with ErrUnauthorized unless the caller holds any role.
func (r *Resolver) RequireMember(ctx context.Context, teamID, userID string) (models.Role, error) {
	role, ok, err := r.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnauthorized
	}
	return role, nil
}

// RequireAdmin fails with ErrUnauthorized unless the role is exactly admin.
func (r *Resolver) RequireAdmin(ctx context.Context, teamID, userID string) error {
	role, err := r.RequireMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return ErrUnauthorized
	}
	return nil
}

// CanWrite is the generic resource write rule: any team role for team
// resources, same user for personal ones. Viewers are not excluded here.
func (r *Resolver) CanWrite(ctx context.Context, o Owner, userID string) (bool, error) {
	switch o := o.(type) {
	case PersonalOwner:
		return o.UserID != "" && o.UserID == userID, nil
	case TeamOwner:
		_, ok, err := r.ResolveRole(ctx, o.TeamID, userID)
		return ok, err
	default:
		return false, fmt.Errorf("unknown owner %T", o)
	}
}

// CanRead matches CanWrite; reading and writing differ only in share
// management.
func (r *Resolver) CanRead(ctx context.Context, o Owner, userID string) (bool, error) {
	return r.CanWrite(ctx, o, userID)
}

// CanManageShares is the project-owner check: like CanWrite but viewers are
// refused.
func (r *Resolver) CanManageShares(ctx context.Context, o Owner, userID string) (bool, error) {
	switch o := o.(type) {
	case PersonalOwner:
		return o.UserID != "" && o.UserID == userID, nil
	case TeamOwner:
		role, ok, err := r.ResolveRole(ctx, o.TeamID, userID)
		if err != nil || !ok {
			return false, err
		}
		return role != models.RoleViewer, nil
	default:
		return false, fmt.Errorf("unknown owner %T", o)
	}
}
