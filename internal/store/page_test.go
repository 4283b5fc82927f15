package store

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 30, 0, 123456789, time.UTC)
	c := EncodeCursor(Position{CreatedAt: at, ID: "abc-123"})

	pos, err := DecodeCursor(c)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !pos.CreatedAt.Equal(at) || pos.ID != "abc-123" {
		t.Fatalf("unexpected position %+v", pos)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, c := range []string{"!!!", "bm9jb2xvbg", "eDp5"} {
		if _, err := DecodeCursor(c); err != ErrBadCursor {
			t.Fatalf("cursor %q: expected ErrBadCursor, got %v", c, err)
		}
	}
	pos, err := DecodeCursor("")
	if err != nil || pos != nil {
		t.Fatalf("empty cursor: got %v, %v", pos, err)
	}
}

func TestPageRequestLimit(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, DefaultPageSize},
		{-3, DefaultPageSize},
		{10, 10},
		{MaxPageSize + 1, MaxPageSize},
	}
	for _, tt := range tests {
		if got := (PageRequest{Size: tt.size}).Limit(); got != tt.want {
			t.Fatalf("size %d: expected %d, got %d", tt.size, tt.want, got)
		}
	}
}

func TestBuildPage(t *testing.T) {
	now := time.Now().UTC()
	pos := func(i int) Position { return Position{CreatedAt: now, ID: string(rune('a' + i))} }

	p := BuildPage([]int{0, 1, 2}, 2, pos)
	if p.IsDone || len(p.Page) != 2 || p.ContinueCursor == "" {
		t.Fatalf("expected partial page, got %+v", p)
	}
	p = BuildPage([]int{0, 1}, 2, pos)
	if !p.IsDone || p.ContinueCursor != "" {
		t.Fatalf("expected final page, got %+v", p)
	}
	p = BuildPage[int](nil, 2, pos)
	if p.Page == nil || !p.IsDone {
		t.Fatalf("expected empty final page, got %+v", p)
	}
}

func TestScopeMatches(t *testing.T) {
	team := "t1"
	other := "t2"
	tests := []struct {
		name   string
		scope  Scope
		teamID *string
		userID string
		want   bool
	}{
		{"personal own legacy", Scope{UserID: "u"}, nil, "u", true},
		{"personal other user", Scope{UserID: "u"}, nil, "v", false},
		{"personal excludes team rows", Scope{UserID: "u"}, &team, "u", false},
		{"team row", Scope{TeamID: team, UserID: "u"}, &team, "v", true},
		{"other team row", Scope{TeamID: team, UserID: "u"}, &other, "u", false},
		{"team without legacy", Scope{TeamID: team, UserID: "u"}, nil, "u", false},
		{"team with legacy", Scope{TeamID: team, UserID: "u", IncludeLegacy: true}, nil, "u", true},
		{"legacy of someone else", Scope{TeamID: team, UserID: "u", IncludeLegacy: true}, nil, "v", false},
	}
	for _, tt := range tests {
		if got := tt.scope.Matches(tt.teamID, tt.userID); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
