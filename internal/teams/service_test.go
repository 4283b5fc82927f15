package teams

import (
	"context"
	"errors"
	"testing"
	"time"

	"vault/internal/access"
	"vault/internal/memstore"
	"vault/internal/models"
)

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	ms := memstore.New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewService(ms, access.NewResolver(ms), func() time.Time { return now }), ms
}

func addMember(t *testing.T, ms *memstore.Store, id, teamID, userID string, role models.Role) {
	t.Helper()
	if _, err := ms.AddMembership(context.Background(), &models.Membership{
		ID: id, TeamID: teamID, UserID: userID, Role: role,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestCreateTeamMakesCreatorAdmin(t *testing.T) {
	ctx := context.Background()
	svc, ms := newService(t)

	if _, err := svc.CreateTeam(ctx, "alice", CreateInput{Name: "   "}); !access.IsValidation(err) {
		t.Fatalf("empty name: %v", err)
	}

	team, err := svc.CreateTeam(ctx, "alice", CreateInput{Name: " Startup "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if team.Name != "Startup" || team.IsPersonal || team.CreatedBy != "alice" {
		t.Fatalf("team = %+v", team)
	}
	m, err := ms.GetMembership(ctx, team.ID, "alice")
	if err != nil || m.Role != models.RoleAdmin {
		t.Fatalf("creator membership = %+v, %v", m, err)
	}
}

func TestEnsurePersonalTeamIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, ms := newService(t)

	first, err := svc.EnsurePersonalTeam(ctx, "alice", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.EnsurePersonalTeam(ctx, "alice", "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID || !first.IsPersonal || first.Name != "Alice" {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	members, _ := ms.ListTeamMembers(ctx, first.ID)
	if len(members) != 1 || members[0].Role != models.RoleAdmin {
		t.Fatalf("members = %+v", members)
	}
}

func TestListMyTeamsPersonalFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.CreateTeam(ctx, "alice", CreateInput{Name: "beta"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTeam(ctx, "alice", CreateInput{Name: "Alpha"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.EnsurePersonalTeam(ctx, "alice", "Alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTeam(ctx, "bob", CreateInput{Name: "Other"}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ListMyTeams(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Alice", "Alpha", "beta"}
	if len(got) != len(want) {
		t.Fatalf("got %d teams", len(got))
	}
	for i, name := range want {
		if got[i].Name != name || got[i].Role != models.RoleAdmin {
			t.Fatalf("teams[%d] = %+v, want %s", i, got[i], name)
		}
	}
}

func TestGetTeamHidesFromNonMembers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	team, _ := svc.CreateTeam(ctx, "alice", CreateInput{Name: "Startup"})

	if _, err := svc.GetTeam(ctx, "mallory", team.ID); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("non-member: %v", err)
	}
	if _, err := svc.GetTeam(ctx, "alice", "missing"); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("missing: %v", err)
	}
	got, err := svc.GetTeam(ctx, "alice", team.ID)
	if err != nil || got.Role != models.RoleAdmin {
		t.Fatalf("get = %+v, %v", got, err)
	}
}

func TestUpdateAndDeleteRequireAdmin(t *testing.T) {
	ctx := context.Background()
	svc, ms := newService(t)
	team, _ := svc.CreateTeam(ctx, "alice", CreateInput{Name: "Startup"})
	addMember(t, ms, "m-bob", team.ID, "bob", models.RoleMember)

	name := "Renamed"
	if _, err := svc.UpdateTeam(ctx, "bob", team.ID, UpdateInput{Name: &name}); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("member update: %v", err)
	}
	got, err := svc.UpdateTeam(ctx, "alice", team.ID, UpdateInput{Name: &name})
	if err != nil || got.Name != "Renamed" {
		t.Fatalf("admin update = %+v, %v", got, err)
	}

	if err := svc.DeleteTeam(ctx, "bob", team.ID); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("member delete: %v", err)
	}
	if err := svc.DeleteTeam(ctx, "alice", team.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ms.GetMembership(ctx, team.ID, "bob"); err == nil {
		t.Fatal("membership survived team deletion")
	}

	personal, _ := svc.EnsurePersonalTeam(ctx, "alice", "Alice")
	if err := svc.DeleteTeam(ctx, "alice", personal.ID); !access.IsValidation(err) {
		t.Fatalf("delete personal: %v", err)
	}
}

func TestMemberAdministration(t *testing.T) {
	ctx := context.Background()
	svc, ms := newService(t)
	team, _ := svc.CreateTeam(ctx, "alice", CreateInput{Name: "Startup"})
	other, _ := svc.CreateTeam(ctx, "zoe", CreateInput{Name: "Other"})
	addMember(t, ms, "m-bob", team.ID, "bob", models.RoleMember)
	addMember(t, ms, "m-zed", other.ID, "zed", models.RoleMember)
	alice, _ := ms.GetMembership(ctx, team.ID, "alice")

	tests := []struct {
		name         string
		actor        string
		membershipID string
		role         models.Role
		wantErr      error
		wantInvalid  bool
	}{
		{name: "member cannot change roles", actor: "bob", membershipID: "m-bob", role: models.RoleAdmin, wantErr: access.ErrUnauthorized},
		{name: "membership of another team", actor: "alice", membershipID: "m-zed", role: models.RoleViewer, wantErr: access.ErrNotFoundOrUnauthorized},
		{name: "unknown membership", actor: "alice", membershipID: "nope", role: models.RoleViewer, wantErr: access.ErrNotFoundOrUnauthorized},
		{name: "bad role", actor: "alice", membershipID: "m-bob", role: "owner", wantInvalid: true},
		{name: "last admin cannot demote", actor: "alice", membershipID: alice.ID, role: models.RoleMember, wantInvalid: true},
		{name: "promote", actor: "alice", membershipID: "m-bob", role: models.RoleAdmin},
		{name: "demote with another admin", actor: "alice", membershipID: alice.ID, role: models.RoleViewer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := svc.UpdateMemberRole(ctx, tt.actor, team.ID, tt.membershipID, tt.role)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.wantInvalid:
				if !access.IsValidation(err) {
					t.Fatalf("err = %v, want validation", err)
				}
			default:
				if err != nil || m.Role != tt.role {
					t.Fatalf("got %+v, %v", m, err)
				}
			}
		})
	}

	// bob is now the only admin
	if err := svc.RemoveMember(ctx, "bob", team.ID, "m-bob"); !access.IsValidation(err) {
		t.Fatalf("remove last admin: %v", err)
	}
	if err := svc.RemoveMember(ctx, "bob", team.ID, alice.ID); err != nil {
		t.Fatalf("remove alice: %v", err)
	}
	if _, err := ms.GetMembership(ctx, team.ID, "alice"); err == nil {
		t.Fatal("alice still a member")
	}
}

func TestLeaveTeam(t *testing.T) {
	ctx := context.Background()
	svc, ms := newService(t)
	team, _ := svc.CreateTeam(ctx, "alice", CreateInput{Name: "Startup"})
	addMember(t, ms, "m-bob", team.ID, "bob", models.RoleViewer)
	personal, _ := svc.EnsurePersonalTeam(ctx, "bob", "Bob")

	if err := svc.LeaveTeam(ctx, "alice", team.ID); !access.IsValidation(err) {
		t.Fatalf("last admin leave: %v", err)
	}
	if err := svc.LeaveTeam(ctx, "bob", personal.ID); !access.IsValidation(err) {
		t.Fatalf("leave personal: %v", err)
	}
	if err := svc.LeaveTeam(ctx, "mallory", team.ID); !errors.Is(err, access.ErrNotFoundOrUnauthorized) {
		t.Fatalf("non-member leave: %v", err)
	}
	if err := svc.LeaveTeam(ctx, "bob", team.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
}

func TestListMembersWithProfiles(t *testing.T) {
	ctx := context.Background()
	svc, ms := newService(t)
	team, _ := svc.CreateTeam(ctx, "alice", CreateInput{Name: "Startup"})
	addMember(t, ms, "m-bob", team.ID, "bob", models.RoleMember)
	if _, err := svc.UpsertProfile(ctx, "alice", ProfileInput{Name: "Alice", Email: "a@x.com"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ListMembers(ctx, "mallory", team.ID); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("non-member list: %v", err)
	}
	members, err := svc.ListMembers(ctx, "bob", team.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %+v", members)
	}
	var withProfile int
	for _, m := range members {
		if m.Profile != nil {
			withProfile++
			if m.Profile.Name != "Alice" {
				t.Fatalf("profile = %+v", m.Profile)
			}
		}
	}
	if withProfile != 1 {
		t.Fatalf("profiles attached = %d", withProfile)
	}
}
