package memstore

import (
	"context"

	"vault/internal/models"
	"vault/internal/store"
)

func notificationPos(n models.Notification) store.Position {
	return store.Position{CreatedAt: n.CreatedAt, ID: n.ID}
}

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; ok {
		return store.ErrConflict
	}
	c := *n
	c.TeamID = cloneStr(n.TeamID)
	s.notifications[n.ID] = c
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool, p store.PageRequest) (store.Page[models.Notification], error) {
	s.mu.RLock()
	rows := []models.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			rows = append(rows, n)
		}
	}
	s.mu.RUnlock()
	return paginate(rows, p, notificationPos)
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (s *Store) CountUnreadNotifications(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, x := range s.notifications {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n, nil
}
