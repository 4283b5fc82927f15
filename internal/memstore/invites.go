package memstore

import (
	"context"
	"sort"

	"vault/internal/models"
	"vault/internal/store"
)

func cloneInvite(inv models.Invite) *models.Invite {
	inv.ExpiresAt = cloneTime(inv.ExpiresAt)
	inv.AcceptedAt = cloneTime(inv.AcceptedAt)
	return &inv
}

func (s *Store) CreateInvite(_ context.Context, inv *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.invites {
		if ex.ID == inv.ID || ex.TokenHash == inv.TokenHash {
			return store.ErrConflict
		}
	}
	s.invites[inv.ID] = *cloneInvite(*inv)
	return nil
}

func (s *Store) GetInvite(_ context.Context, id string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invites[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneInvite(inv), nil
}

func (s *Store) GetInviteByTokenHash(_ context.Context, hash string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invites {
		if inv.TokenHash == hash {
			return cloneInvite(inv), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetInviteByCode(_ context.Context, code string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Invite
	for _, inv := range s.invites {
		if inv.Code != code {
			continue
		}
		if best == nil {
			best = cloneInvite(inv)
			continue
		}
		bestPending := best.Status == models.InviteStatusPending
		pending := inv.Status == models.InviteStatusPending
		if pending && !bestPending || pending == bestPending && inv.CreatedAt.After(best.CreatedAt) {
			best = cloneInvite(inv)
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (s *Store) ListTeamInvites(_ context.Context, teamID string, status models.InviteStatus) ([]models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Invite{}
	for _, inv := range s.invites {
		if inv.TeamID == teamID && (status == "" || inv.Status == status) {
			out = append(out, *cloneInvite(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) TransitionInvite(_ context.Context, id string, from models.InviteStatus, to store.InviteTransition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if inv.Status != from {
		return false, nil
	}
	inv.Status = to.Status
	inv.UpdatedAt = to.At
	if to.Status == models.InviteStatusAccepted {
		at := to.At
		inv.AcceptedBy = to.AcceptedBy
		inv.AcceptedAt = &at
	} else if to.Status == models.InviteStatusPending {
		inv.AcceptedBy = ""
		inv.AcceptedAt = nil
	}
	s.invites[id] = inv
	return true, nil
}
