// Package memstore is the in-memory store.Store used when no database driver
// is configured, and by tests. Every call holds one mutex, so each operation
// is atomic on its own; nothing spans calls.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"vault/internal/models"
	"vault/internal/store"
)

type Store struct {
	mu sync.RWMutex

	teams         map[string]models.Team
	memberships   map[string]models.Membership
	invites       map[string]models.Invite
	items         map[string]models.Item
	projects      map[string]models.Project
	updates       map[string]models.ProjectUpdate
	shares        map[string]models.PublicShare
	accessLogs    []models.ShareAccessLog
	notifications map[string]models.Notification
	profiles      map[string]models.Profile
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		teams:         map[string]models.Team{},
		memberships:   map[string]models.Membership{},
		invites:       map[string]models.Invite{},
		items:         map[string]models.Item{},
		projects:      map[string]models.Project{},
		updates:       map[string]models.ProjectUpdate{},
		shares:        map[string]models.PublicShare{},
		notifications: map[string]models.Notification{},
		profiles:      map[string]models.Profile{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func strPtr(v string) *string { return &v }

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	return strPtr(*p)
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	t := *p
	return &t
}

// newestFirst orders rows by (created_at desc, id desc).
func newestFirst[T any](rows []T, pos func(T) store.Position) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := pos(rows[i]), pos(rows[j])
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// paginate sorts rows and cuts the page that follows the request cursor.
func paginate[T any](rows []T, p store.PageRequest, pos func(T) store.Position) (store.Page[T], error) {
	after, err := store.DecodeCursor(p.Cursor)
	if err != nil {
		return store.Page[T]{}, err
	}
	newestFirst(rows, pos)
	limit := p.Limit()
	out := make([]T, 0, limit+1)
	for _, r := range rows {
		if after != nil {
			rp := pos(r)
			if !after.Before(rp.CreatedAt, rp.ID) {
				continue
			}
		}
		out = append(out, r)
		if len(out) > limit {
			break
		}
	}
	return store.BuildPage(out, limit, pos), nil
}
