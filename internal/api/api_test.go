package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"vault/internal/access"
	"vault/internal/invites"
	"vault/internal/memstore"
	"vault/internal/middleware"
	"vault/internal/notify"
	"vault/internal/resources"
	"vault/internal/sharing"
	"vault/internal/teams"
)

// headerAuth trusts X-User. Requests without it pass through anonymously.
func headerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := r.Header.Get("X-User"); u != "" {
			r = r.WithContext(middleware.WithUserID(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ms := memstore.New()
	res := access.NewResolver(ms)
	n := notify.NewService(ms, nil, time.Now)
	h := &Handler{
		Teams:         teams.NewService(ms, res, time.Now),
		Invites:       invites.NewService(ms, res, n, invites.Options{DefaultTTL: 24 * time.Hour}),
		Resources:     resources.NewService(ms, res, time.Now),
		Sharing:       sharing.NewService(ms, res, time.Now),
		Notifications: n,
		PublicOrigin:  "https://vault.test",
	}
	r := mux.NewRouter()
	RegisterRoutes(r, h, headerAuth)
	return r
}

func do(t *testing.T, h http.Handler, method, path, user string, body any) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func mustStatus(t *testing.T, got, want int, body map[string]any) {
	t.Helper()
	if got != want {
		t.Fatalf("status=%d want %d body=%v", got, want, body)
	}
}

func TestTeamInviteFlow(t *testing.T) {
	h := newTestRouter(t)

	code, team := do(t, h, http.MethodPost, "/api/v1/teams", "alice", map[string]any{"name": "Acme"})
	mustStatus(t, code, http.StatusCreated, team)
	teamID := team["id"].(string)

	code, body := do(t, h, http.MethodGet, "/api/v1/teams/"+teamID, "bob", nil)
	mustStatus(t, code, http.StatusNotFound, body)

	code, body = do(t, h, http.MethodPost, "/api/v1/teams/"+teamID+"/invites", "bob",
		map[string]any{"email": "bob@example.com"})
	mustStatus(t, code, http.StatusForbidden, body)

	code, issued := do(t, h, http.MethodPost, "/api/v1/teams/"+teamID+"/invites", "alice",
		map[string]any{"email": "Bob@Example.com", "role": "viewer"})
	mustStatus(t, code, http.StatusCreated, issued)
	token := issued["token"].(string)

	code, preview := do(t, h, http.MethodGet, "/public/invites/"+token, "", nil)
	mustStatus(t, code, http.StatusOK, preview)
	if preview["team_name"] != "Acme" || preview["email"] != "bob@example.com" {
		t.Fatalf("preview=%v", preview)
	}

	code, joined := do(t, h, http.MethodPost, "/api/v1/invites/accept", "bob", map[string]any{"token": token})
	mustStatus(t, code, http.StatusOK, joined)
	if joined["role"] != "viewer" || joined["created"] != true {
		t.Fatalf("joined=%v", joined)
	}

	code, body = do(t, h, http.MethodPost, "/api/v1/invites/accept", "carol", map[string]any{"token": token})
	mustStatus(t, code, http.StatusGone, body)

	code, body = do(t, h, http.MethodGet, "/public/invites/"+token, "", nil)
	mustStatus(t, code, http.StatusNotFound, body)

	// viewers write items but never manage shares
	code, body = do(t, h, http.MethodGet, "/api/v1/teams/"+teamID, "bob", nil)
	mustStatus(t, code, http.StatusOK, body)
	code, body = do(t, h, http.MethodPost, "/api/v1/items", "bob", map[string]any{
		"team_id": teamID, "type": "code", "title": "x",
	})
	mustStatus(t, code, http.StatusCreated, body)
	code, project := do(t, h, http.MethodPost, "/api/v1/projects", "alice", map[string]any{
		"team_id": teamID, "name": "Roadmap",
	})
	mustStatus(t, code, http.StatusCreated, project)
	code, body = do(t, h, http.MethodPost, "/api/v1/projects/"+project["id"].(string)+"/share", "bob", nil)
	mustStatus(t, code, http.StatusForbidden, body)

	code, body = do(t, h, http.MethodGet, "/api/v1/notifications/unread-count", "alice", nil)
	mustStatus(t, code, http.StatusOK, body)
	if body["unread"] != float64(2) {
		t.Fatalf("alice unread=%v, want invite_created and member_joined", body["unread"])
	}
}

func TestJoinByCode(t *testing.T) {
	h := newTestRouter(t)
	_, team := do(t, h, http.MethodPost, "/api/v1/teams", "alice", map[string]any{"name": "Acme"})
	teamID := team["id"].(string)

	code, body := do(t, h, http.MethodGet, "/api/v1/teams/"+teamID+"/invite-code", "alice", nil)
	mustStatus(t, code, http.StatusOK, body)
	inviteCode := body["invite_code"].(string)

	code, joined := do(t, h, http.MethodPost, "/api/v1/invites/accept", "bob",
		map[string]any{"code": strings.ToLower(inviteCode)})
	mustStatus(t, code, http.StatusOK, joined)
	if joined["team_id"] != teamID || joined["role"] != "member" {
		t.Fatalf("joined=%v", joined)
	}

	code, body = do(t, h, http.MethodPost, "/api/v1/invites/accept", "bob", map[string]any{})
	mustStatus(t, code, http.StatusBadRequest, body)
}

func TestValidationProblems(t *testing.T) {
	h := newTestRouter(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   any
		field  string
	}{
		{"missing team name", http.MethodPost, "/api/v1/teams", map[string]any{"description": "d"}, "name"},
		{"unknown field", http.MethodPost, "/api/v1/teams", map[string]any{"name": "a", "nope": 1}, "body"},
		{"bad item type", http.MethodPost, "/api/v1/items", map[string]any{"type": "video", "title": "t"}, "type"},
		{"bad limit", http.MethodGet, "/api/v1/items?limit=-1", nil, "limit"},
		{"bad cursor", http.MethodGet, "/api/v1/items?cursor=%21%21", nil, "cursor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, h, tc.method, tc.path, "alice", tc.body)
			mustStatus(t, code, http.StatusBadRequest, body)
			extra, _ := body["extra"].(map[string]any)
			if extra["field"] != tc.field {
				t.Fatalf("field=%v want %s (body=%v)", extra["field"], tc.field, body)
			}
		})
	}
}

func TestItemsAndPagination(t *testing.T) {
	h := newTestRouter(t)
	for _, title := range []string{"a", "b", "c"} {
		code, body := do(t, h, http.MethodPost, "/api/v1/items", "alice",
			map[string]any{"type": "prompt", "title": title, "tags": []string{"x", "x"}})
		mustStatus(t, code, http.StatusCreated, body)
	}

	code, page := do(t, h, http.MethodGet, "/api/v1/items?limit=2", "alice", nil)
	mustStatus(t, code, http.StatusOK, page)
	if len(page["page"].([]any)) != 2 || page["is_done"] != false {
		t.Fatalf("first page=%v", page)
	}
	cursor := page["continue_cursor"].(string)
	code, page = do(t, h, http.MethodGet, "/api/v1/items?limit=2&cursor="+cursor, "alice", nil)
	mustStatus(t, code, http.StatusOK, page)
	if len(page["page"].([]any)) != 1 || page["is_done"] != true {
		t.Fatalf("second page=%v", page)
	}

	code, page = do(t, h, http.MethodGet, "/api/v1/items", "bob", nil)
	mustStatus(t, code, http.StatusOK, page)
	if len(page["page"].([]any)) != 0 {
		t.Fatalf("bob sees alice's items: %v", page)
	}

	code, stats := do(t, h, http.MethodGet, "/api/v1/stats", "alice", nil)
	mustStatus(t, code, http.StatusOK, stats)
	if stats["prompt"] != float64(3) || stats["total"] != float64(3) {
		t.Fatalf("stats=%v", stats)
	}
}

func TestPublicShareFlow(t *testing.T) {
	h := newTestRouter(t)
	code, project := do(t, h, http.MethodPost, "/api/v1/projects", "alice", map[string]any{"name": "Launch"})
	mustStatus(t, code, http.StatusCreated, project)
	projectID := project["id"].(string)

	code, body := do(t, h, http.MethodGet, "/api/v1/projects/"+projectID+"/share", "alice", nil)
	mustStatus(t, code, http.StatusOK, body)
	if body["share"] != nil {
		t.Fatalf("share before create: %v", body)
	}

	code, body = do(t, h, http.MethodPost, "/api/v1/projects/"+projectID+"/share", "mallory", nil)
	mustStatus(t, code, http.StatusNotFound, body)

	code, share := do(t, h, http.MethodPost, "/api/v1/projects/"+projectID+"/share", "alice", nil)
	mustStatus(t, code, http.StatusOK, share)
	token := share["token"].(string)
	shareID := share["id"].(string)
	urls := share["urls"].(map[string]any)
	if urls["short"] != "https://vault.test/s/"+token {
		t.Fatalf("urls=%v", urls)
	}

	code, body = do(t, h, http.MethodPost, "/api/v1/projects/"+projectID+"/updates", "alice",
		map[string]any{"content": "shipped"})
	mustStatus(t, code, http.StatusCreated, body)

	code, pub := do(t, h, http.MethodGet, "/public/shares/"+token, "", nil)
	mustStatus(t, code, http.StatusOK, pub)
	if len(pub["updates"].([]any)) != 1 {
		t.Fatalf("public=%v", pub)
	}

	code, body = do(t, h, http.MethodPost, "/public/shares/"+token+"/views", "", map[string]any{"viewer_label": "guest"})
	mustStatus(t, code, http.StatusNoContent, body)

	code, body = do(t, h, http.MethodGet, "/api/v1/shares/"+shareID+"/analytics", "alice", nil)
	mustStatus(t, code, http.StatusOK, body)
	if body["total"] != float64(1) {
		t.Fatalf("analytics=%v", body)
	}

	code, body = do(t, h, http.MethodPatch, "/api/v1/shares/"+shareID, "alice", map[string]any{"enabled": false})
	mustStatus(t, code, http.StatusOK, body)

	for _, path := range []string{"/public/shares/" + token, "/public/shares/nope"} {
		code, body = do(t, h, http.MethodGet, path, "", nil)
		mustStatus(t, code, http.StatusNotFound, body)
	}
	code, body = do(t, h, http.MethodPost, "/public/shares/"+token+"/views", "", nil)
	mustStatus(t, code, http.StatusNotFound, body)
}

func TestNotificationsMarkRead(t *testing.T) {
	h := newTestRouter(t)
	_, team := do(t, h, http.MethodPost, "/api/v1/teams", "alice", map[string]any{"name": "Acme"})
	teamID := team["id"].(string)
	do(t, h, http.MethodPost, "/api/v1/teams/"+teamID+"/invites", "alice", map[string]any{"email": "x@example.com"})

	code, page := do(t, h, http.MethodGet, "/api/v1/notifications?unread=true", "alice", nil)
	mustStatus(t, code, http.StatusOK, page)
	items := page["page"].([]any)
	if len(items) != 1 {
		t.Fatalf("notifications=%v", page)
	}
	id := items[0].(map[string]any)["id"].(string)

	code, body := do(t, h, http.MethodPost, "/api/v1/notifications/"+id+"/read", "bob", nil)
	mustStatus(t, code, http.StatusNotFound, body)
	code, body = do(t, h, http.MethodPost, "/api/v1/notifications/"+id+"/read", "alice", nil)
	mustStatus(t, code, http.StatusNoContent, body)

	code, body = do(t, h, http.MethodGet, "/api/v1/notifications/unread-count", "alice", nil)
	mustStatus(t, code, http.StatusOK, body)
	if body["unread"] != float64(0) {
		t.Fatalf("unread=%v", body)
	}
}
