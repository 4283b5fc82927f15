package memstore

import (
	"context"
	"sort"

	"vault/internal/models"
	"vault/internal/store"
)

func cloneTeam(t models.Team) *models.Team {
	t.PersonalFor = cloneStr(t.PersonalFor)
	t.InviteCode = cloneStr(t.InviteCode)
	return &t
}

func (s *Store) CreateTeam(_ context.Context, team *models.Team, creator *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team.ID]; ok {
		return store.ErrConflict
	}
	for _, t := range s.teams {
		if team.PersonalFor != nil && t.PersonalFor != nil && *t.PersonalFor == *team.PersonalFor {
			return store.ErrConflict
		}
		if team.InviteCode != nil && t.InviteCode != nil && *t.InviteCode == *team.InviteCode {
			return store.ErrConflict
		}
	}
	s.teams[team.ID] = *cloneTeam(*team)
	if creator != nil {
		s.memberships[creator.ID] = *creator
	}
	return nil
}

func (s *Store) GetTeam(_ context.Context, id string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTeam(t), nil
}

func (s *Store) GetPersonalTeam(_ context.Context, userID string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teams {
		if t.PersonalFor != nil && *t.PersonalFor == userID {
			return cloneTeam(t), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetTeamByInviteCode(_ context.Context, code string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teams {
		if t.InviteCode != nil && *t.InviteCode == code {
			return cloneTeam(t), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListTeams(_ context.Context, ids []string) ([]models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.teams[id]; ok {
			out = append(out, *cloneTeam(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveTeam(_ context.Context, team *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team.ID]; !ok {
		return store.ErrNotFound
	}
	if team.InviteCode != nil {
		for id, t := range s.teams {
			if id != team.ID && t.InviteCode != nil && *t.InviteCode == *team.InviteCode {
				return store.ErrConflict
			}
		}
	}
	s.teams[team.ID] = *cloneTeam(*team)
	return nil
}

func (s *Store) DeleteTeam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.teams, id)
	for k, m := range s.memberships {
		if m.TeamID == id {
			delete(s.memberships, k)
		}
	}
	for k, inv := range s.invites {
		if inv.TeamID == id {
			delete(s.invites, k)
		}
	}
	for k, it := range s.items {
		if it.TeamID != nil && *it.TeamID == id {
			delete(s.items, k)
		}
	}
	for k, p := range s.projects {
		if p.TeamID != nil && *p.TeamID == id {
			s.deleteProjectLocked(k)
		}
	}
	return nil
}

func (s *Store) GetMembership(_ context.Context, teamID, userID string) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			m := m
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetMembershipByID(_ context.Context, id string) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *Store) AddMembership(_ context.Context, m *models.Membership) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.memberships {
		if ex.TeamID == m.TeamID && ex.UserID == m.UserID {
			return false, nil
		}
	}
	s.memberships[m.ID] = *m
	return true, nil
}

func (s *Store) listMemberships(match func(models.Membership) bool) []models.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Membership{}
	for _, m := range s.memberships {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListTeamMembers(_ context.Context, teamID string) ([]models.Membership, error) {
	return s.listMemberships(func(m models.Membership) bool { return m.TeamID == teamID }), nil
}

func (s *Store) ListUserMemberships(_ context.Context, userID string) ([]models.Membership, error) {
	return s.listMemberships(func(m models.Membership) bool { return m.UserID == userID }), nil
}

func (s *Store) SetMembershipRole(_ context.Context, id string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[id]
	if !ok {
		return store.ErrNotFound
	}
	m.Role = role
	s.memberships[id] = m
	return nil
}

func (s *Store) DeleteMembership(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.memberships, id)
	return nil
}

func (s *Store) UpsertProfile(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = *p
	return nil
}

func (s *Store) GetProfiles(_ context.Context, userIDs []string) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Profile{}
	seen := map[string]bool{}
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
