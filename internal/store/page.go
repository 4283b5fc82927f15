package store

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

var ErrBadCursor = errors.New("malformed cursor")

type PageRequest struct {
	Cursor string
	Size   int
}

// Limit clamps the requested page size.
func (p PageRequest) Limit() int {
	switch {
	case p.Size <= 0:
		return DefaultPageSize
	case p.Size > MaxPageSize:
		return MaxPageSize
	}
	return p.Size
}

type Page[T any] struct {
	Page           []T    `json:"page"`
	IsDone         bool   `json:"is_done"`
	ContinueCursor string `json:"continue_cursor"`
}

// Position is a keyset position in (created_at desc, id desc) order.
type Position struct {
	CreatedAt time.Time
	ID        string
}

// Before reports whether a row at (t, id) sorts after the position, i.e.
// belongs to the next page.
func (p Position) Before(t time.Time, id string) bool {
	if t.Before(p.CreatedAt) {
		return true
	}
	return t.Equal(p.CreatedAt) && id < p.ID
}

func EncodeCursor(pos Position) string {
	raw := strconv.FormatInt(pos.CreatedAt.UTC().UnixNano(), 10) + ":" + pos.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor; the empty cursor means "from the start".
func DecodeCursor(c string) (*Position, error) {
	if c == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c)
	if err != nil {
		return nil, ErrBadCursor
	}
	ns, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return nil, ErrBadCursor
	}
	n, err := strconv.ParseInt(ns, 10, 64)
	if err != nil {
		return nil, ErrBadCursor
	}
	return &Position{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}

// BuildPage turns limit+1 fetched rows into a page. pos extracts the keyset
// position of a row.
func BuildPage[T any](rows []T, limit int, pos func(T) Position) Page[T] {
	if len(rows) <= limit {
		if rows == nil {
			rows = []T{}
		}
		return Page[T]{Page: rows, IsDone: true}
	}
	rows = rows[:limit]
	return Page[T]{Page: rows, ContinueCursor: EncodeCursor(pos(rows[len(rows)-1]))}
}
