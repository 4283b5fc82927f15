package memstore

import (
	"context"
	"sort"

	"vault/internal/models"
	"vault/internal/store"
)

func itemPos(it models.Item) store.Position {
	return store.Position{CreatedAt: it.CreatedAt, ID: it.ID}
}

func projectPos(p models.Project) store.Position {
	return store.Position{CreatedAt: p.CreatedAt, ID: p.ID}
}

func cloneItem(it models.Item) *models.Item {
	it.TeamID = cloneStr(it.TeamID)
	it.Tags = append([]byte(nil), it.Tags...)
	return &it
}

func cloneProject(p models.Project) *models.Project {
	p.TeamID = cloneStr(p.TeamID)
	p.Columns = append([]byte(nil), p.Columns...)
	return &p
}

func (s *Store) CreateItem(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; ok {
		return store.ErrConflict
	}
	s.items[it.ID] = *cloneItem(*it)
	return nil
}

func (s *Store) GetItem(_ context.Context, id string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneItem(it), nil
}

func (s *Store) SaveItem(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return store.ErrNotFound
	}
	s.items[it.ID] = *cloneItem(*it)
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListItems(_ context.Context, f store.ItemFilter, p store.PageRequest) (store.Page[models.Item], error) {
	s.mu.RLock()
	rows := []models.Item{}
	for _, it := range s.items {
		if f.Matches(it.TeamID, it.UserID) && (f.Type == "" || it.Type == f.Type) {
			rows = append(rows, *cloneItem(it))
		}
	}
	s.mu.RUnlock()
	return paginate(rows, p, itemPos)
}

func (s *Store) CountItemsByType(_ context.Context, sc store.Scope) (map[models.ItemType]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[models.ItemType]int64{}
	for _, it := range s.items {
		if sc.Matches(it.TeamID, it.UserID) {
			out[it.Type]++
		}
	}
	return out, nil
}

func (s *Store) AssignLegacyItems(_ context.Context, userID, teamID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, it := range s.items {
		if it.TeamID == nil && it.UserID == userID {
			it.TeamID = strPtr(teamID)
			s.items[id] = it
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return store.ErrConflict
	}
	s.projects[p.ID] = *cloneProject(*p)
	return nil
}

func (s *Store) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneProject(p), nil
}

func (s *Store) SaveProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.projects[p.ID] = *cloneProject(*p)
	return nil
}

func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return store.ErrNotFound
	}
	s.deleteProjectLocked(id)
	return nil
}

// deleteProjectLocked removes a project and everything hanging off it.
func (s *Store) deleteProjectLocked(id string) {
	delete(s.projects, id)
	for k, u := range s.updates {
		if u.ProjectID == id {
			delete(s.updates, k)
		}
	}
	for k, sh := range s.shares {
		if sh.ProjectID != id {
			continue
		}
		delete(s.shares, k)
		kept := s.accessLogs[:0]
		for _, l := range s.accessLogs {
			if l.ShareID != sh.ID {
				kept = append(kept, l)
			}
		}
		s.accessLogs = kept
	}
}

func (s *Store) ListProjects(_ context.Context, f store.ProjectFilter, p store.PageRequest) (store.Page[models.Project], error) {
	s.mu.RLock()
	rows := []models.Project{}
	for _, pr := range s.projects {
		if f.Matches(pr.TeamID, pr.UserID) && (f.IncludeArchived || !pr.Archived) {
			rows = append(rows, *cloneProject(pr))
		}
	}
	s.mu.RUnlock()
	return paginate(rows, p, projectPos)
}

func (s *Store) CountActiveProjects(_ context.Context, sc store.Scope) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.projects {
		if !p.Archived && sc.Matches(p.TeamID, p.UserID) {
			n++
		}
	}
	return n, nil
}

func (s *Store) AssignLegacyProjects(_ context.Context, userID, teamID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.projects {
		if p.TeamID == nil && p.UserID == userID {
			p.TeamID = strPtr(teamID)
			s.projects[id] = p
			n++
		}
	}
	return n, nil
}

func (s *Store) AddProjectUpdate(_ context.Context, u *models.ProjectUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[u.ProjectID]; !ok {
		return store.ErrNotFound
	}
	s.updates[u.ID] = *u
	return nil
}

func (s *Store) ListProjectUpdates(_ context.Context, projectID string) ([]models.ProjectUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ProjectUpdate{}
	for _, u := range s.updates {
		if u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
