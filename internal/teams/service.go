// Package teams manages team lifecycle, personal teams and membership
// administration.
package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vault/internal/access"
	"vault/internal/logs"
	"vault/internal/models"
	"vault/internal/store"
)

type Store interface {
	store.Teams
	store.Memberships
	store.Profiles
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

type CreateInput struct {
	Name          string
	Description   string
	CoverImageRef string
}

// TeamWithRole is a team as seen by one of its members.
type TeamWithRole struct {
	models.Team
	Role models.Role `json:"role"`
}

type Member struct {
	models.Membership
	Profile *models.PublicProfile `json:"profile,omitempty"`
}

func (s *Service) CreateTeam(ctx context.Context, userID string, in CreateInput) (*models.Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, access.Invalid("name", "must not be empty")
	}
	if userID == "" {
		return nil, access.ErrUnauthorized
	}
	now := s.now().UTC()
	team := &models.Team{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		CreatedBy:     userID,
		CoverImageRef: in.CoverImageRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateTeam(ctx, team, s.adminMembership(team.ID, userID, now)); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{"team_id": team.ID, "user_id": userID}).Info("team created")
	return team, nil
}

// EnsurePersonalTeam returns the caller's personal team, creating it on
// first use. A concurrent creator losing the unique race reads the winner's
// row.
func (s *Service) EnsurePersonalTeam(ctx context.Context, userID, displayName string) (*models.Team, error) {
	if userID == "" {
		return nil, access.ErrUnauthorized
	}
	team, err := s.store.GetPersonalTeam(ctx, userID)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get personal team: %w", err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Personal"
	}
	now := s.now().UTC()
	owner := userID
	team = &models.Team{
		ID:          uuid.NewString(),
		Name:        name,
		CreatedBy:   userID,
		IsPersonal:  true,
		PersonalFor: &owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.CreateTeam(ctx, team, s.adminMembership(team.ID, userID, now))
	if errors.Is(err, store.ErrConflict) {
		return s.store.GetPersonalTeam(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("create personal team: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{"team_id": team.ID, "user_id": userID}).Info("personal team created")
	return team, nil
}

func (s *Service) adminMembership(teamID, userID string, at time.Time) *models.Membership {
	return &models.Membership{
		ID:       uuid.NewString(),
		TeamID:   teamID,
		UserID:   userID,
		Role:     models.RoleAdmin,
		JoinedAt: at,
	}
}

// GetTeam is visible to members only; everyone else sees not-found.
func (s *Service) GetTeam(ctx context.Context, userID, teamID string) (*TeamWithRole, error) {
	role, ok, err := s.resolver.ResolveRole(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &TeamWithRole{Team: *team, Role: role}, nil
}

// ListMyTeams lists the caller's teams, personal team first, then by name.
func (s *Service) ListMyTeams(ctx context.Context, userID string) ([]TeamWithRole, error) {
	ms, err := s.store.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	roles := make(map[string]models.Role, len(ms))
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		roles[m.TeamID] = m.Role
		ids = append(ids, m.TeamID)
	}
	teams, err := s.store.ListTeams(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	out := make([]TeamWithRole, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamWithRole{Team: t, Role: roles[t.ID]})
	}
	sortTeams(out)
	return out, nil
}

type UpdateInput struct {
	Name          *string
	Description   *string
	CoverImageRef *string
}

func (s *Service) UpdateTeam(ctx context.Context, userID, teamID string, in UpdateInput) (*models.Team, error) {
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return nil, err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, access.Invalid("name", "must not be empty")
		}
		team.Name = name
	}
	if in.Description != nil {
		team.Description = strings.TrimSpace(*in.Description)
	}
	if in.CoverImageRef != nil {
		team.CoverImageRef = *in.CoverImageRef
	}
	team.UpdatedAt = s.now().UTC()
	if err := s.store.SaveTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("save team: %w", err)
	}
	return team, nil
}

// DeleteTeam removes a non-personal team and everything scoped to it.
func (s *Service) DeleteTeam(ctx context.Context, userID, teamID string) error {
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	if team.IsPersonal {
		return access.Invalid("team", "personal teams cannot be deleted")
	}
	if err := s.store.DeleteTeam(ctx, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{"team_id": teamID, "user_id": userID}).Info("team deleted")
	return nil
}

// ListMembers returns the members with their public profiles.
func (s *Service) ListMembers(ctx context.Context, userID, teamID string) ([]Member, error) {
	if _, err := s.resolver.RequireMember(ctx, teamID, userID); err != nil {
		return nil, err
	}
	ms, err := s.store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.UserID)
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	byUser := make(map[string]models.PublicProfile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p.Public()
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		mem := Member{Membership: m}
		if p, ok := byUser[m.UserID]; ok {
			mem.Profile = &p
		}
		out = append(out, mem)
	}
	return out, nil
}

// targetMembership loads a membership row and checks it belongs to teamID.
func (s *Service) targetMembership(ctx context.Context, teamID, membershipID string) (*models.Membership, error) {
	m, err := s.store.GetMembershipByID(ctx, membershipID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if m.TeamID != teamID {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	return m, nil
}

func (s *Service) isLastAdmin(ctx context.Context, m *models.Membership) (bool, error) {
	if m.Role != models.RoleAdmin {
		return false, nil
	}
	ms, err := s.store.ListTeamMembers(ctx, m.TeamID)
	if err != nil {
		return false, fmt.Errorf("list members: %w", err)
	}
	admins := 0
	for _, x := range ms {
		if x.Role == models.RoleAdmin {
			admins++
		}
	}
	return admins <= 1, nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, userID, teamID, membershipID string, role models.Role) (*models.Membership, error) {
	if !role.Valid() {
		return nil, access.Invalid("role", "must be admin, member or viewer")
	}
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return nil, err
	}
	m, err := s.targetMembership(ctx, teamID, membershipID)
	if err != nil {
		return nil, err
	}
	if m.Role == role {
		return m, nil
	}
	if role != models.RoleAdmin {
		last, err := s.isLastAdmin(ctx, m)
		if err != nil {
			return nil, err
		}
		if last {
			return nil, access.Invalid("role", "team must keep at least one admin")
		}
	}
	if err := s.store.SetMembershipRole(ctx, m.ID, role); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	m.Role = role
	logs.Logger.WithFields(logrus.Fields{
		"team_id": teamID, "user_id": m.UserID, "role": role,
	}).Info("member role changed")
	return m, nil
}

func (s *Service) RemoveMember(ctx context.Context, userID, teamID, membershipID string) error {
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return err
	}
	m, err := s.targetMembership(ctx, teamID, membershipID)
	if err != nil {
		return err
	}
	return s.removeMembership(ctx, m)
}

// LeaveTeam drops the caller's own membership.
func (s *Service) LeaveTeam(ctx context.Context, userID, teamID string) error {
	m, err := s.store.GetMembership(ctx, teamID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return access.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("get membership: %w", err)
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	if team.IsPersonal {
		return access.Invalid("team", "personal teams cannot be left")
	}
	return s.removeMembership(ctx, m)
}

func (s *Service) removeMembership(ctx context.Context, m *models.Membership) error {
	last, err := s.isLastAdmin(ctx, m)
	if err != nil {
		return err
	}
	if last {
		return access.Invalid("membership", "team must keep at least one admin")
	}
	if err := s.store.DeleteMembership(ctx, m.ID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{"team_id": m.TeamID, "user_id": m.UserID}).Info("member removed")
	return nil
}

type ProfileInput struct {
	Name      string
	AvatarURL string
	Email     string
}

func (s *Service) UpsertProfile(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	if userID == "" {
		return nil, access.ErrUnauthorized
	}
	p := &models.Profile{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		AvatarURL: in.AvatarURL,
		Email:     strings.TrimSpace(in.Email),
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}
