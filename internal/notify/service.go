// Package notify writes team notifications and serves them back to their
// recipients.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"vault/internal/logs"
	"vault/internal/models"
	"vault/internal/store"
)

type Store interface {
	store.Notifications
	ListTeamMembers(ctx context.Context, teamID string) ([]models.Membership, error)
}

// Template is the content of one fan-out; every recipient gets a copy.
type Template struct {
	Type     string
	Title    string
	Message  string
	Metadata map[string]any
}

type Service struct {
	store     Store
	publisher Publisher
	now       func() time.Time
}

func NewService(s Store, p Publisher, now func() time.Time) *Service {
	if p == nil {
		p = NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, publisher: p, now: now}
}

// Fanout writes one notification per current member of teamID. Rows are
// independent inserts: a failure for one member does not undo the others,
// and the joined error lists every failed recipient. Publishing is
// best-effort and only logged.
func (s *Service) Fanout(ctx context.Context, teamID string, tpl Template) (int, error) {
	members, err := s.store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("list members: %w", err)
	}
	var meta datatypes.JSON
	if len(tpl.Metadata) > 0 {
		if meta, err = json.Marshal(tpl.Metadata); err != nil {
			return 0, fmt.Errorf("encode metadata: %w", err)
		}
	}
	typ := tpl.Type
	if typ == "" {
		typ = models.NotificationTypeTeam
	}

	now := s.now().UTC()
	var errs []error
	written := 0
	for _, m := range members {
		tid := teamID
		n := &models.Notification{
			ID:        uuid.NewString(),
			UserID:    m.UserID,
			TeamID:    &tid,
			Type:      typ,
			Title:     tpl.Title,
			Message:   tpl.Message,
			Metadata:  meta,
			CreatedAt: now,
		}
		if err := s.store.CreateNotification(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", m.UserID, err))
			continue
		}
		written++
		if err := s.publisher.Publish(ctx, n); err != nil {
			logs.Logger.WithFields(logrus.Fields{
				"user_id": m.UserID,
				"team_id": teamID,
			}).Warnf("publish notification: %v", err)
		}
	}
	return written, errors.Join(errs...)
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, p store.PageRequest) (store.Page[models.Notification], error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly, p)
}

// MarkRead returns store.ErrNotFound for notifications of other users.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}
