package repo

import (
	"context"

	"gorm.io/gorm"

	"vault/internal/models"
	"vault/internal/store"
)

type NotificationStore struct{ db *gorm.DB }

func NewNotificationStore(db *gorm.DB) *NotificationStore { return &NotificationStore{db: db} }

func notificationPos(n models.Notification) store.Position {
	return store.Position{CreatedAt: n.CreatedAt, ID: n.ID}
}

func (s *NotificationStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return mapErr(s.db.WithContext(ctx).Create(n).Error)
}

func (s *NotificationStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, p store.PageRequest) (store.Page[models.Notification], error) {
	q := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	return page(q, p, notificationPos)
}

func (s *NotificationStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return mapErr(err)
	}
	if n.Read {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

func (s *NotificationStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *NotificationStore) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return n, err
}
