// Package invites issues and redeems team-join credentials: the reusable
// team invite code and single-use, email-targeted invite tokens.
package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vault/internal/access"
	"vault/internal/logs"
	"vault/internal/models"
	"vault/internal/notify"
	"vault/internal/secrets"
	"vault/internal/store"
)

// codeAttempts bounds retries when a fresh team code collides.
const codeAttempts = 5

type Store interface {
	store.Teams
	store.Memberships
	store.Invites
}

type Notifier interface {
	Fanout(ctx context.Context, teamID string, tpl notify.Template) (int, error)
}

type Options struct {
	// DefaultTTL applies to invites created without an expiry. Zero keeps
	// such invites valid until redeemed or revoked.
	DefaultTTL time.Duration
	Issuer     secrets.Issuer
	Now        func() time.Time
}

type Service struct {
	store    Store
	resolver *access.Resolver
	notifier Notifier
	issuer   secrets.Issuer
	ttl      time.Duration
	now      func() time.Time
}

func NewService(s Store, r *access.Resolver, n Notifier, opts Options) *Service {
	if opts.Issuer == nil {
		opts.Issuer = secrets.NewIssuer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:    s,
		resolver: r,
		notifier: n,
		issuer:   opts.Issuer,
		ttl:      opts.DefaultTTL,
		now:      opts.Now,
	}
}

// Issued is a freshly created invite. Token is only ever returned here.
type Issued struct {
	Invite models.Invite `json:"invite"`
	Token  string        `json:"token"`
}

// Joined describes the outcome of a redemption. Created is false when the
// caller already was a member.
type Joined struct {
	TeamID  string      `json:"team_id"`
	Role    models.Role `json:"role"`
	Created bool        `json:"created"`
}

// Preview is what an anonymous holder of a token may learn about it.
type Preview struct {
	TeamName  string      `json:"team_name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// GetOrCreateInviteCode returns the team's join code, generating it on the
// first request. An existing code is never replaced.
func (s *Service) GetOrCreateInviteCode(ctx context.Context, userID, teamID string) (string, error) {
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return "", err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return "", fmt.Errorf("get team: %w", err)
	}
	if team.InviteCode != nil && *team.InviteCode != "" {
		return *team.InviteCode, nil
	}
	for i := 0; i < codeAttempts; i++ {
		code, err := s.issuer.Code()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		team.InviteCode = &code
		team.UpdatedAt = s.now().UTC()
		err = s.store.SaveTeam(ctx, team)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("save team: %w", err)
		}
		return code, nil
	}
	return "", fmt.Errorf("generate code: %d collisions in a row", codeAttempts)
}

type InviteInput struct {
	Email     string
	Role      models.Role
	ExpiresAt *time.Time
}

func validateEmail(email string) error {
	if !strings.Contains(email, "@") {
		return access.Invalid("email", "must contain @")
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return access.Invalid("email", err.Error())
	}
	return nil
}

// InviteMember creates a pending invite and tells the team about it.
func (s *Service) InviteMember(ctx context.Context, userID, teamID string, in InviteInput) (*Issued, error) {
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, access.Invalid("role", "must be admin, member or viewer")
	}

	now := s.now().UTC()
	expires := in.ExpiresAt
	if expires == nil && s.ttl > 0 {
		t := now.Add(s.ttl)
		expires = &t
	}
	if expires != nil {
		if !expires.After(now) {
			return nil, access.Invalid("expires_at", "must be in the future")
		}
		t := expires.UTC()
		expires = &t
	}

	token, err := s.issuer.Token()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	code, err := s.issuer.Code()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	inv := models.Invite{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		Email:     email,
		Code:      code,
		TokenHash: secrets.HashToken(token),
		Role:      role,
		Status:    models.InviteStatusPending,
		InvitedBy: userID,
		ExpiresAt: expires,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateInvite(ctx, &inv); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{
		"team_id": teamID, "invite_id": inv.ID, "role": role,
	}).Info("invite created")

	s.fanout(ctx, teamID, notify.Template{
		Title:   "New invitation",
		Message: fmt.Sprintf("%s was invited as %s", email, role),
		Metadata: map[string]any{
			"event":     "invite_created",
			"invite_id": inv.ID,
			"email":     email,
			"role":      role,
		},
	})
	return &Issued{Invite: inv, Token: token}, nil
}

// AcceptInviteByToken redeems a single-use invite token for the caller.
func (s *Service) AcceptInviteByToken(ctx context.Context, userID, token string) (*Joined, error) {
	if userID == "" {
		return nil, access.ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, access.Invalid("token", "must not be empty")
	}
	inv, err := s.store.GetInviteByTokenHash(ctx, secrets.HashToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, access.ErrInviteNotValid
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return s.redeem(ctx, userID, inv)
}

// AcceptInviteByCode joins through a team invite code (always as member) or,
// failing that, through a per-invite code. Codes are case-insensitive.
func (s *Service) AcceptInviteByCode(ctx context.Context, userID, code string) (*Joined, error) {
	if userID == "" {
		return nil, access.ErrUnauthorized
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, access.Invalid("code", "must not be empty")
	}

	team, err := s.store.GetTeamByInviteCode(ctx, code)
	switch {
	case err == nil:
		return s.join(ctx, team.ID, userID, models.RoleMember)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("get team by code: %w", err)
	}

	inv, err := s.store.GetInviteByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, access.ErrInviteNotValid
	}
	if err != nil {
		return nil, fmt.Errorf("get invite by code: %w", err)
	}
	return s.redeem(ctx, userID, inv)
}

// redeem accepts a pending, unexpired invite. The status flip is
// conditional, so of two concurrent redemptions only one proceeds.
func (s *Service) redeem(ctx context.Context, userID string, inv *models.Invite) (*Joined, error) {
	now := s.now().UTC()
	if inv.Status != models.InviteStatusPending || access.IsExpired(inv.ExpiresAt, now) {
		return nil, access.ErrInviteNotValid
	}
	ok, err := s.store.TransitionInvite(ctx, inv.ID, models.InviteStatusPending, store.InviteTransition{
		Status:     models.InviteStatusAccepted,
		AcceptedBy: userID,
		At:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	if !ok {
		return nil, access.ErrInviteNotValid
	}

	joined, err := s.join(ctx, inv.TeamID, userID, inv.Role)
	if err != nil {
		if _, rerr := s.store.TransitionInvite(ctx, inv.ID, models.InviteStatusAccepted, store.InviteTransition{
			Status: models.InviteStatusPending,
			At:     now,
		}); rerr != nil {
			logs.Logger.WithField("invite_id", inv.ID).Errorf("revert invite after failed join: %v", rerr)
		}
		return nil, err
	}
	return joined, nil
}

// join inserts the membership unless it exists and announces new members.
func (s *Service) join(ctx context.Context, teamID, userID string, role models.Role) (*Joined, error) {
	m := &models.Membership{
		ID:       uuid.NewString(),
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: s.now().UTC(),
	}
	created, err := s.store.AddMembership(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("add membership: %w", err)
	}
	if !created {
		existing, err := s.store.GetMembership(ctx, teamID, userID)
		if err != nil {
			return nil, fmt.Errorf("get membership: %w", err)
		}
		return &Joined{TeamID: teamID, Role: existing.Role}, nil
	}

	logs.Logger.WithFields(logrus.Fields{
		"team_id": teamID, "user_id": userID, "role": role,
	}).Info("member joined")
	s.fanout(ctx, teamID, notify.Template{
		Title:   "New member joined",
		Message: fmt.Sprintf("A new member joined as %s", role),
		Metadata: map[string]any{
			"event":   "member_joined",
			"user_id": userID,
			"role":    role,
		},
	})
	return &Joined{TeamID: teamID, Role: role, Created: true}, nil
}

// fanout failures never undo the membership change that caused them.
func (s *Service) fanout(ctx context.Context, teamID string, tpl notify.Template) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Fanout(ctx, teamID, tpl); err != nil {
		logs.Logger.WithField("team_id", teamID).Errorf("notification fan-out: %v", err)
		logs.Capture(err, map[string]string{"team_id": teamID})
	}
}

func (s *Service) RevokeInvite(ctx context.Context, userID, inviteID string) error {
	inv, err := s.store.GetInvite(ctx, inviteID)
	if errors.Is(err, store.ErrNotFound) {
		return access.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("get invite: %w", err)
	}
	if err := s.resolver.RequireAdmin(ctx, inv.TeamID, userID); err != nil {
		return err
	}
	ok, err := s.store.TransitionInvite(ctx, inv.ID, models.InviteStatusPending, store.InviteTransition{
		Status: models.InviteStatusRevoked,
		At:     s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	if !ok {
		return access.ErrInviteNotValid
	}
	logs.Logger.WithFields(logrus.Fields{"team_id": inv.TeamID, "invite_id": inv.ID}).Info("invite revoked")
	return nil
}

func (s *Service) ListPendingInvites(ctx context.Context, userID, teamID string) ([]models.Invite, error) {
	if err := s.resolver.RequireAdmin(ctx, teamID, userID); err != nil {
		return nil, err
	}
	invs, err := s.store.ListTeamInvites(ctx, teamID, models.InviteStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invs, nil
}

// PreviewInvite returns nil for unknown, used, revoked and expired tokens
// alike.
func (s *Service) PreviewInvite(ctx context.Context, token string) (*Preview, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	inv, err := s.store.GetInviteByTokenHash(ctx, secrets.HashToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	if inv.Status != models.InviteStatusPending || access.IsExpired(inv.ExpiresAt, s.now().UTC()) {
		return nil, nil
	}
	team, err := s.store.GetTeam(ctx, inv.TeamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &Preview{TeamName: team.Name, Email: inv.Email, Role: inv.Role, ExpiresAt: inv.ExpiresAt}, nil
}
