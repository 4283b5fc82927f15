// Package sharing manages public share links for projects: the owner-side
// toggles and analytics, and the anonymous read path.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vault/internal/access"
	"vault/internal/logs"
	"vault/internal/models"
	"vault/internal/secrets"
	"vault/internal/store"
)

// RecentAccessLimit is how many access log entries analytics returns.
const RecentAccessLimit = 10

type Store interface {
	store.Memberships
	store.Projects
	store.Shares
	store.Profiles
}

type Service struct {
	store    Store
	resolver *access.Resolver
	newToken func() (string, error)
	now      func() time.Time
}

func NewService(s Store, r *access.Resolver, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, resolver: r, newToken: secrets.NewToken, now: now}
}

// PublicUpdate is one project update with its author's public profile.
type PublicUpdate struct {
	models.ProjectUpdate
	Author *models.PublicProfile `json:"author,omitempty"`
}

// PublicProject is what an anonymous share reader receives.
type PublicProject struct {
	Project   models.Project `json:"project"`
	Updates   []PublicUpdate `json:"updates"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

type Analytics struct {
	Total  int64                   `json:"total"`
	Recent []models.ShareAccessLog `json:"recent"`
}

// ownedProject loads a project the caller may manage shares for. Missing
// projects and foreign personal projects are indistinguishable; a team
// member without share rights gets ErrUnauthorized.
func (s *Service) ownedProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	owner := access.ProjectOwner(p)
	ok, err := s.resolver.CanManageShares(ctx, owner, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		return p, nil
	}
	if t, isTeam := owner.(access.TeamOwner); isTeam {
		if _, member, err := s.resolver.ResolveRole(ctx, t.TeamID, userID); err == nil && member {
			return nil, access.ErrUnauthorized
		}
	}
	return nil, access.ErrNotFoundOrUnauthorized
}

func (s *Service) ownedShare(ctx context.Context, userID, shareID string) (*models.PublicShare, error) {
	sh, err := s.store.GetShare(ctx, shareID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, access.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	if _, err := s.ownedProject(ctx, userID, sh.ProjectID); err != nil {
		return nil, err
	}
	return sh, nil
}

// CreateShare enables public access to a project. An existing share row is
// re-enabled with its original token.
func (s *Service) CreateShare(ctx context.Context, userID, projectID string, expiresAt *time.Time) (*models.PublicShare, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if expiresAt != nil {
		if !expiresAt.After(now) {
			return nil, access.Invalid("expires_at", "must be in the future")
		}
		t := expiresAt.UTC()
		expiresAt = &t
	}

	sh, err := s.store.GetShareByProject(ctx, projectID)
	switch {
	case err == nil:
		sh.Enabled = true
		sh.ExpiresAt = expiresAt
		sh.UpdatedAt = now
		if err := s.store.SaveShare(ctx, sh); err != nil {
			return nil, fmt.Errorf("save share: %w", err)
		}
		return sh, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("get share: %w", err)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	sh = &models.PublicShare{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Token:     token,
		Enabled:   true,
		ExpiresAt: expiresAt,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.CreateShare(ctx, sh)
	if errors.Is(err, store.ErrConflict) {
		// lost a race with another enable; take the winner's row
		return s.CreateShare(ctx, userID, projectID, expiresAt)
	}
	if err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{"project_id": projectID, "share_id": sh.ID}).Info("share created")
	return sh, nil
}

// GetShareForProject returns nil while no share was ever enabled.
func (s *Service) GetShareForProject(ctx context.Context, userID, projectID string) (*models.PublicShare, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	sh, err := s.store.GetShareByProject(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	return sh, nil
}

type UpdateInput struct {
	Enabled      *bool
	ExpiresAt    *time.Time
	ClearExpires bool
}

func (s *Service) UpdateShare(ctx context.Context, userID, shareID string, in UpdateInput) (*models.PublicShare, error) {
	sh, err := s.ownedShare(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if in.Enabled != nil {
		sh.Enabled = *in.Enabled
	}
	switch {
	case in.ClearExpires:
		sh.ExpiresAt = nil
	case in.ExpiresAt != nil:
		if !in.ExpiresAt.After(now) {
			return nil, access.Invalid("expires_at", "must be in the future")
		}
		t := in.ExpiresAt.UTC()
		sh.ExpiresAt = &t
	}
	sh.UpdatedAt = now
	if err := s.store.SaveShare(ctx, sh); err != nil {
		return nil, fmt.Errorf("save share: %w", err)
	}
	logs.Logger.WithFields(logrus.Fields{"share_id": sh.ID, "enabled": sh.Enabled}).Info("share updated")
	return sh, nil
}

// validShare resolves a token to a share that is enabled and unexpired.
// Every other outcome, including store errors, is nil.
func (s *Service) validShare(ctx context.Context, token string) *models.PublicShare {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	sh, err := s.store.GetShareByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logs.Logger.Errorf("share lookup: %v", err)
		}
		return nil
	}
	if !sh.Enabled || access.IsExpired(sh.ExpiresAt, s.now().UTC()) {
		return nil
	}
	return sh
}

// GetPublicShareByToken is the anonymous read path. It returns nil for
// unknown, disabled and expired tokens alike and never an error.
func (s *Service) GetPublicShareByToken(ctx context.Context, token string) *PublicProject {
	sh := s.validShare(ctx, token)
	if sh == nil {
		return nil
	}
	p, err := s.store.GetProject(ctx, sh.ProjectID)
	if err != nil {
		return nil
	}
	ups, err := s.store.ListProjectUpdates(ctx, p.ID)
	if err != nil {
		logs.Logger.WithField("share_id", sh.ID).Errorf("list updates: %v", err)
		return nil
	}

	authorIDs := make([]string, 0, len(ups))
	for _, u := range ups {
		authorIDs = append(authorIDs, u.AuthorID)
	}
	profiles, err := s.store.GetProfiles(ctx, authorIDs)
	if err != nil {
		logs.Logger.WithField("share_id", sh.ID).Errorf("get profiles: %v", err)
		return nil
	}
	byID := make(map[string]models.PublicProfile, len(profiles))
	for _, pr := range profiles {
		byID[pr.UserID] = pr.Public()
	}

	out := &PublicProject{Project: *p, Updates: make([]PublicUpdate, 0, len(ups)), ExpiresAt: sh.ExpiresAt}
	for _, u := range ups {
		pu := PublicUpdate{ProjectUpdate: u}
		if pr, ok := byID[u.AuthorID]; ok {
			pu.Author = &pr
		}
		out.Updates = append(out.Updates, pu)
	}
	return out
}

type AccessInput struct {
	ViewerLabel string
	Referrer    string
}

// LogPublicShareAccess appends one access log row when token is valid and
// reports whether it did.
func (s *Service) LogPublicShareAccess(ctx context.Context, token string, in AccessInput) bool {
	sh := s.validShare(ctx, token)
	if sh == nil {
		return false
	}
	l := &models.ShareAccessLog{
		ID:          uuid.NewString(),
		ShareID:     sh.ID,
		AccessedAt:  s.now().UTC(),
		ViewerLabel: truncate(in.ViewerLabel, 255),
		Referrer:    truncate(in.Referrer, 1024),
	}
	if err := s.store.AppendAccessLog(ctx, l); err != nil {
		logs.Logger.WithField("share_id", sh.ID).Errorf("append access log: %v", err)
		return false
	}
	return true
}

func (s *Service) GetShareAnalytics(ctx context.Context, userID, shareID string) (*Analytics, error) {
	sh, err := s.ownedShare(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountAccessLogs(ctx, sh.ID)
	if err != nil {
		return nil, fmt.Errorf("count access: %w", err)
	}
	recent, err := s.store.RecentAccessLogs(ctx, sh.ID, RecentAccessLimit)
	if err != nil {
		return nil, fmt.Errorf("recent access: %w", err)
	}
	return &Analytics{Total: total, Recent: recent}, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
