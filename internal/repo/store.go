// Package repo implements store.Store on top of gorm.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vault/internal/store"
)

// Store bundles the per-entity stores into one store.Store.
type Store struct {
	*TeamStore
	*InviteStore
	*ResourceStore
	*ShareStore
	*NotificationStore
	*ProfileStore

	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{
		TeamStore:         NewTeamStore(db),
		InviteStore:       NewInviteStore(db),
		ResourceStore:     NewResourceStore(db),
		ShareStore:        NewShareStore(db),
		NotificationStore: NewNotificationStore(db),
		ProfileStore:      NewProfileStore(db),
		db:                db,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrConflict
	}
	return err
}

// scoped applies a store.Scope to a query on items or projects.
func scoped(q *gorm.DB, s store.Scope) *gorm.DB {
	switch {
	case s.TeamID == "":
		return q.Where("team_id IS NULL AND user_id = ?", s.UserID)
	case s.IncludeLegacy:
		return q.Where("(team_id = ? OR (team_id IS NULL AND user_id = ?))", s.TeamID, s.UserID)
	default:
		return q.Where("team_id = ?", s.TeamID)
	}
}

// page runs a keyset query in (created_at desc, id desc) order.
func page[T any](q *gorm.DB, p store.PageRequest, pos func(T) store.Position) (store.Page[T], error) {
	after, err := store.DecodeCursor(p.Cursor)
	if err != nil {
		return store.Page[T]{}, err
	}
	if after != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}
	limit := p.Limit()
	var rows []T
	if err := q.Order("created_at desc, id desc").Limit(limit + 1).Find(&rows).Error; err != nil {
		return store.Page[T]{}, err
	}
	return store.BuildPage(rows, limit, pos), nil
}
