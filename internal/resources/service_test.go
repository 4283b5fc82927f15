package resources

import (
	"context"
	"errors"
	"testing"
	"time"

	"vault/internal/access"
	"vault/internal/memstore"
	"vault/internal/models"
	"vault/internal/store"
	"vault/internal/teams"
)

// ticker hands out strictly increasing timestamps.
type ticker struct{ t time.Time }

func (c *ticker) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	ms    *memstore.Store
	teams *teams.Service
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := memstore.New()
	c := &ticker{t: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	r := access.NewResolver(ms)
	return &fixture{ms: ms, teams: teams.NewService(ms, r, c.Now), svc: NewService(ms, r, c.Now)}
}

func (f *fixture) item(t *testing.T, userID, teamID string, typ models.ItemType, title string) *models.Item {
	t.Helper()
	in := ItemInput{TeamID: teamID, Type: typ, Title: title}
	if typ == models.ItemTypeFile {
		in.StorageID = "blob-" + title
	}
	it, err := f.svc.CreateItem(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("create %s: %v", title, err)
	}
	return it
}

func (f *fixture) addMember(t *testing.T, teamID, userID string, role models.Role) {
	t.Helper()
	if _, err := f.ms.AddMembership(context.Background(), &models.Membership{
		ID: teamID + userID, TeamID: teamID, UserID: userID, Role: role,
	}); err != nil {
		t.Fatal(err)
	}
}

func titles(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReadScopes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.item(t, "alice", "", models.ItemTypeCode, "legacy-1")
	personal, _ := f.teams.EnsurePersonalTeam(ctx, "alice", "Alice")
	startup, _ := f.teams.CreateTeam(ctx, "alice", teams.CreateInput{Name: "Startup"})
	f.item(t, "alice", personal.ID, models.ItemTypePrompt, "personal-1")
	f.item(t, "alice", startup.ID, models.ItemTypeCode, "startup-1")
	f.item(t, "alice", "", models.ItemTypeFile, "legacy-2")
	f.item(t, "bob", "", models.ItemTypeCode, "bob-legacy")

	tests := []struct {
		name   string
		user   string
		teamID string
		want   []string
	}{
		{name: "no team shows legacy only", user: "alice", want: []string{"legacy-2", "legacy-1"}},
		{name: "personal team unions legacy", user: "alice", teamID: personal.ID, want: []string{"legacy-2", "personal-1", "legacy-1"}},
		{name: "regular team", user: "alice", teamID: startup.ID, want: []string{"startup-1"}},
		{name: "non-member sees nothing", user: "bob", teamID: startup.ID, want: []string{}},
		{name: "other user's personal team", user: "bob", teamID: personal.ID, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.ListItems(ctx, tt.user, ListItemsInput{TeamID: tt.teamID})
			if err != nil {
				t.Fatal(err)
			}
			if got := titles(page.Page); !equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if !page.IsDone {
				t.Fatal("expected a single page")
			}
		})
	}
}

func TestPersonalTeamUnionSeenByOtherMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	personal, _ := f.teams.EnsurePersonalTeam(ctx, "alice", "Alice")
	f.addMember(t, personal.ID, "bob", models.RoleViewer)
	f.item(t, "alice", "", models.ItemTypeCode, "alice-legacy")
	f.item(t, "bob", "", models.ItemTypeCode, "bob-legacy")
	f.item(t, "alice", personal.ID, models.ItemTypeCode, "shared")

	page, err := f.svc.ListItems(ctx, "bob", ListItemsInput{TeamID: personal.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(page.Page); !equal(got, []string{"shared"}) {
		t.Fatalf("bob sees %v", got)
	}
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	personal, _ := f.teams.EnsurePersonalTeam(ctx, "alice", "Alice")
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		team := ""
		if title == "b" || title == "d" {
			team = personal.ID
		}
		f.item(t, "alice", team, models.ItemTypeCode, title)
	}

	var got []string
	req := store.PageRequest{Size: 2}
	for i := 0; ; i++ {
		if i > 5 {
			t.Fatal("pagination does not terminate")
		}
		page, err := f.svc.ListItems(ctx, "alice", ListItemsInput{TeamID: personal.ID, Page: req})
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, titles(page.Page)...)
		if page.IsDone {
			break
		}
		req.Cursor = page.ContinueCursor
	}
	if want := []string{"e", "d", "c", "b", "a"}; !equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := f.svc.ListItems(ctx, "alice", ListItemsInput{Page: store.PageRequest{Cursor: "%%%"}}); !errors.Is(err, store.ErrBadCursor) {
		t.Fatalf("bad cursor: %v", err)
	}
}

func TestWriteRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	startup, _ := f.teams.CreateTeam(ctx, "alice", teams.CreateInput{Name: "Startup"})
	f.addMember(t, startup.ID, "vic", models.RoleViewer)

	if _, err := f.svc.CreateItem(ctx, "mallory", ItemInput{TeamID: startup.ID, Type: models.ItemTypeCode, Title: "x"}); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("non-member create: %v", err)
	}
	if _, err := f.svc.CreateItem(ctx, "alice", ItemInput{Type: "video", Title: "x"}); !access.IsValidation(err) {
		t.Fatalf("bad type: %v", err)
	}
	if _, err := f.svc.CreateItem(ctx, "alice", ItemInput{Type: models.ItemTypeFile, Title: "x"}); !access.IsValidation(err) {
		t.Fatalf("file without storage: %v", err)
	}

	teamItem := f.item(t, "alice", startup.ID, models.ItemTypeCode, "team")
	mine := f.item(t, "alice", "", models.ItemTypeCode, "mine")

	renamed := "renamed"
	if _, err := f.svc.UpdateItem(ctx, "vic", teamItem.ID, ItemPatch{Title: &renamed}); err != nil {
		t.Fatalf("viewer update of team item: %v", err)
	}
	if _, err := f.svc.UpdateItem(ctx, "vic", mine.ID, ItemPatch{Title: &renamed}); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("foreign personal update: %v", err)
	}
	if _, err := f.svc.GetItem(ctx, "vic", mine.ID); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("foreign personal get: %v", err)
	}
	if _, err := f.svc.GetItem(ctx, "vic", "missing"); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("missing get: %v", err)
	}
	if err := f.svc.DeleteItem(ctx, "mallory", teamItem.ID); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("non-member delete: %v", err)
	}

	fav := true
	tags := []string{"go", " go ", "", "sql"}
	got, err := f.svc.UpdateItem(ctx, "alice", mine.ID, ItemPatch{Favorite: &fav, Tags: &tags})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Favorite || string(got.Tags) != `["go","sql"]` {
		t.Fatalf("patched = %+v", got)
	}
	if err := f.svc.DeleteItem(ctx, "alice", mine.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteItem(ctx, "alice", mine.ID); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMigrateLegacy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.item(t, "alice", "", models.ItemTypeCode, "a1")
	f.item(t, "alice", "", models.ItemTypePrompt, "a2")
	f.item(t, "bob", "", models.ItemTypeCode, "b1")
	if _, err := f.svc.CreateProject(ctx, "alice", ProjectInput{Name: "board"}); err != nil {
		t.Fatal(err)
	}

	personal, _ := f.teams.EnsurePersonalTeam(ctx, "alice", "Alice")
	startup, _ := f.teams.CreateTeam(ctx, "alice", teams.CreateInput{Name: "Startup"})
	f.addMember(t, startup.ID, "bob", models.RoleAdmin)
	f.addMember(t, startup.ID, "carl", models.RoleMember)

	if _, err := f.svc.MigrateLegacyItemsToTeam(ctx, "carl", startup.ID); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("member migrate: %v", err)
	}
	n, err := f.svc.MigrateLegacyItemsToTeam(ctx, "alice", personal.ID)
	if err != nil || n != 0 {
		t.Fatalf("personal migrate = %d, %v", n, err)
	}

	// any admin may run it; the creator's items move
	n, err = f.svc.MigrateLegacyItemsToTeam(ctx, "bob", startup.ID)
	if err != nil || n != 2 {
		t.Fatalf("migrate = %d, %v", n, err)
	}
	legacy, _ := f.svc.ListItems(ctx, "alice", ListItemsInput{})
	if len(legacy.Page) != 0 {
		t.Fatalf("legacy left: %v", titles(legacy.Page))
	}
	team, _ := f.svc.ListItems(ctx, "carl", ListItemsInput{TeamID: startup.ID})
	if len(team.Page) != 2 {
		t.Fatalf("team items: %v", titles(team.Page))
	}
	for _, it := range team.Page {
		if it.UserID != "alice" {
			t.Fatalf("provenance lost: %+v", it)
		}
	}
	bobs, _ := f.svc.ListItems(ctx, "bob", ListItemsInput{})
	if len(bobs.Page) != 1 {
		t.Fatalf("bob's legacy moved: %v", titles(bobs.Page))
	}

	n, err = f.svc.MigrateLegacyItemsToTeam(ctx, "alice", startup.ID)
	if err != nil || n != 0 {
		t.Fatalf("second migrate = %d, %v", n, err)
	}
	n, err = f.svc.MigrateLegacyProjectsToTeam(ctx, "alice", startup.ID)
	if err != nil || n != 1 {
		t.Fatalf("project migrate = %d, %v", n, err)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	personal, _ := f.teams.EnsurePersonalTeam(ctx, "alice", "Alice")
	f.item(t, "alice", "", models.ItemTypeCode, "c1")
	f.item(t, "alice", personal.ID, models.ItemTypeCode, "c2")
	f.item(t, "alice", personal.ID, models.ItemTypeFile, "f1")
	f.item(t, "alice", "", models.ItemTypePrompt, "p1")
	active, _ := f.svc.CreateProject(ctx, "alice", ProjectInput{Name: "active"})
	archived, _ := f.svc.CreateProject(ctx, "alice", ProjectInput{TeamID: personal.ID, Name: "old"})
	yes := true
	if _, err := f.svc.UpdateProject(ctx, "alice", archived.ID, ProjectPatch{Archived: &yes}); err != nil {
		t.Fatal(err)
	}

	st, err := f.svc.GetStats(ctx, "alice", personal.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Code: 2, Prompt: 1, File: 1, Total: 4, ActiveProjects: 1}
	if *st != want {
		t.Fatalf("stats = %+v, want %+v", *st, want)
	}

	st, _ = f.svc.GetStats(ctx, "mallory", personal.ID)
	if *st != (Stats{}) {
		t.Fatalf("non-member stats = %+v", *st)
	}

	page, _ := f.svc.ListProjects(ctx, "alice", ListProjectsInput{TeamID: personal.ID})
	if len(page.Page) != 1 || page.Page[0].ID != active.ID {
		t.Fatalf("active projects = %+v", page.Page)
	}
	page, _ = f.svc.ListProjects(ctx, "alice", ListProjectsInput{TeamID: personal.ID, IncludeArchived: true})
	if len(page.Page) != 2 {
		t.Fatalf("all projects = %d", len(page.Page))
	}
}

func TestProjectUpdatesAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	startup, _ := f.teams.CreateTeam(ctx, "alice", teams.CreateInput{Name: "Startup"})
	p, _ := f.svc.CreateProject(ctx, "alice", ProjectInput{TeamID: startup.ID, Name: "Roadmap"})

	if _, err := f.svc.AddProjectUpdate(ctx, "mallory", p.ID, "hi"); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("non-member update: %v", err)
	}
	if _, err := f.svc.AddProjectUpdate(ctx, "alice", p.ID, "  "); !access.IsValidation(err) {
		t.Fatalf("empty update: %v", err)
	}
	for _, c := range []string{"first", "second"} {
		if _, err := f.svc.AddProjectUpdate(ctx, "alice", p.ID, c); err != nil {
			t.Fatal(err)
		}
	}
	ups, err := f.svc.ListProjectUpdates(ctx, "alice", p.ID)
	if err != nil || len(ups) != 2 || ups[0].Content != "second" {
		t.Fatalf("updates = %+v, %v", ups, err)
	}

	if err := f.svc.DeleteProject(ctx, "alice", p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetProject(ctx, "alice", p.ID); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("deleted project: %v", err)
	}
	left, _ := f.ms.ListProjectUpdates(ctx, p.ID)
	if len(left) != 0 {
		t.Fatalf("updates survived: %d", len(left))
	}
}
