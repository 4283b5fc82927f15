// Package resources is the ownership layer over items and projects. Every
// read is scoped by (caller, optional team); writes are checked against the
// resource's owner.
package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vault/internal/access"
	"vault/internal/store"
)

type Store interface {
	store.Teams
	store.Memberships
	store.Items
	store.Projects
}

type Service struct {
	store    Store
	resolver *access.Resolver
	now      func() time.Time
}

func NewService(s Store, r *access.Resolver, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, resolver: r, now: now}
}

// readScope resolves what a list or stats call may see. ok is false when
// the caller is not in teamID; such reads come back empty, not failed.
//
// The caller's own personal team also shows their legacy resources.
func (s *Service) readScope(ctx context.Context, userID, teamID string) (store.Scope, bool, error) {
	if userID == "" {
		return store.Scope{}, false, access.ErrUnauthorized
	}
	if teamID == "" {
		return store.Scope{UserID: userID}, true, nil
	}
	_, ok, err := s.resolver.ResolveRole(ctx, teamID, userID)
	if err != nil || !ok {
		return store.Scope{}, false, err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Scope{}, false, nil
	}
	if err != nil {
		return store.Scope{}, false, fmt.Errorf("get team: %w", err)
	}
	sc := store.Scope{TeamID: teamID, UserID: userID}
	if team.IsPersonal && team.PersonalFor != nil && *team.PersonalFor == userID {
		sc.IncludeLegacy = true
	}
	return sc, true, nil
}

// requireWrite applies the generic write rule; any mismatch reads as
// not-found.
func (s *Service) requireWrite(ctx context.Context, o access.Owner, userID string) error {
	ok, err := s.resolver.CanWrite(ctx, o, userID)
	if err != nil {
		return err
	}
	if !ok {
		return access.ErrNotFoundOrUnauthorized
	}
	return nil
}

// teamFor validates the target team of a create. An empty teamID creates a
// personal resource.
func (s *Service) teamFor(ctx context.Context, userID, teamID string) (*string, error) {
	if userID == "" {
		return nil, access.ErrUnauthorized
	}
	if teamID == "" {
		return nil, nil
	}
	if _, err := s.resolver.RequireMember(ctx, teamID, userID); err != nil {
		return nil, err
	}
	return &teamID, nil
}

func emptyPage[T any]() store.Page[T] {
	return store.Page[T]{Page: []T{}, IsDone: true}
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return access.ErrNotFoundOrUnauthorized
	}
	return err
}
