package memstore

import (
	"context"
	"sort"

	"vault/internal/models"
	"vault/internal/store"
)

func cloneShare(sh models.PublicShare) *models.PublicShare {
	sh.ExpiresAt = cloneTime(sh.ExpiresAt)
	return &sh
}

func (s *Store) CreateShare(_ context.Context, sh *models.PublicShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.shares {
		if ex.ID == sh.ID || ex.ProjectID == sh.ProjectID || ex.Token == sh.Token {
			return store.ErrConflict
		}
	}
	s.shares[sh.ID] = *cloneShare(*sh)
	return nil
}

func (s *Store) GetShare(_ context.Context, id string) (*models.PublicShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shares[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneShare(sh), nil
}

func (s *Store) findShare(match func(models.PublicShare) bool) (*models.PublicShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sh := range s.shares {
		if match(sh) {
			return cloneShare(sh), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetShareByProject(_ context.Context, projectID string) (*models.PublicShare, error) {
	return s.findShare(func(sh models.PublicShare) bool { return sh.ProjectID == projectID })
}

func (s *Store) GetShareByToken(_ context.Context, token string) (*models.PublicShare, error) {
	return s.findShare(func(sh models.PublicShare) bool { return sh.Token == token })
}

func (s *Store) SaveShare(_ context.Context, sh *models.PublicShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shares[sh.ID]; !ok {
		return store.ErrNotFound
	}
	s.shares[sh.ID] = *cloneShare(*sh)
	return nil
}

func (s *Store) AppendAccessLog(_ context.Context, l *models.ShareAccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessLogs = append(s.accessLogs, *l)
	return nil
}

func (s *Store) CountAccessLogs(_ context.Context, shareID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, l := range s.accessLogs {
		if l.ShareID == shareID {
			n++
		}
	}
	return n, nil
}

func (s *Store) RecentAccessLogs(_ context.Context, shareID string, limit int) ([]models.ShareAccessLog, error) {
	s.mu.RLock()
	out := []models.ShareAccessLog{}
	for _, l := range s.accessLogs {
		if l.ShareID == shareID {
			out = append(out, l)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].AccessedAt.After(out[j].AccessedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
