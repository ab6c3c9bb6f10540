package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newUser(t *testing.T, store *sqlite.SQLiteStore, name string) *models.User {
	t.Helper()
	u := models.NewUser(name, strings.ToLower(name)+"@example.com", "hash")
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return u
}

// sequence returns a generator yielding codes in order, repeating the last one.
func sequence(codes ...string) CodeGenerator {
	var (
		mu sync.Mutex
		i  int
	)
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[min(i, len(codes)-1)]
		i++
		return c, nil
	}
}

func TestCreateGroup(t *testing.T) {
	store := newTestStore(t)
	reg := New(store, WithRetry(DefaultCodeAttempts, 0))
	ctx := context.Background()

	asha := newUser(t, store, "Asha")
	group, err := reg.CreateGroup(ctx, asha.ID, "")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if group.Name != "Asha's Group" {
		t.Errorf("Expected default name, got %q", group.Name)
	}
	if _, err := NormalizeCode(group.Code); err != nil || group.Code != strings.ToUpper(group.Code) {
		t.Errorf("Generated code %q is not a valid code: %v", group.Code, err)
	}
	if len(group.Members) != 1 || group.Members[0].UserID != asha.ID {
		t.Errorf("Expected representative as the only member, got %+v", group.Members)
	}

	user, err := store.GetUserByID(ctx, asha.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if user.GroupID != group.ID || user.Role != models.RoleRepresentative {
		t.Errorf("Expected user linked as representative, got group=%q role=%q", user.GroupID, user.Role)
	}

	_, err = reg.CreateGroup(ctx, asha.ID, "Second")
	if !errors.Is(err, apperr.ErrAlreadyInGroup) {
		t.Errorf("Expected ErrAlreadyInGroup, got %v", err)
	}
}

func TestCreateGroupCodeCollisions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := New(store, WithCodeGenerator(sequence("AAAAAA")))
	a := newUser(t, store, "A")
	if _, err := first.CreateGroup(ctx, a.ID, ""); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("regenerates after a collision", func(t *testing.T) {
		reg := New(store, WithCodeGenerator(sequence("AAAAAA", "AAAAAA", "BBBBBB")), WithRetry(DefaultCodeAttempts, 0))
		b := newUser(t, store, "B")
		group, err := reg.CreateGroup(ctx, b.ID, "")
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.Code != "BBBBBB" {
			t.Errorf("Expected BBBBBB, got %s", group.Code)
		}
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		calls := 0
		gen := func() (string, error) {
			calls++
			return "AAAAAA", nil
		}
		reg := New(store, WithCodeGenerator(gen), WithRetry(DefaultCodeAttempts, 0))
		c := newUser(t, store, "C")
		_, err := reg.CreateGroup(ctx, c.ID, "")
		if !errors.Is(err, apperr.ErrCodeSpaceExhausted) {
			t.Fatalf("Expected ErrCodeSpaceExhausted, got %v", err)
		}
		if calls != DefaultCodeAttempts {
			t.Errorf("Expected %d attempts, got %d", DefaultCodeAttempts, calls)
		}
		user, _ := store.GetUserByID(ctx, c.ID)
		if user.InGroup() {
			t.Error("Expected user to stay without a group")
		}
	})
}

func TestJoinGroup(t *testing.T) {
	store := newTestStore(t)
	var rec broadcast.Recorder
	reg := New(store, WithCodeGenerator(sequence("K3F9QZ")), WithBroadcast(&rec))
	ctx := context.Background()

	rep := newUser(t, store, "Rep")
	group, err := reg.CreateGroup(ctx, rep.ID, "Flat 4B")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	mate := newUser(t, store, "Mate")
	view, err := reg.JoinGroup(ctx, mate.ID, "  k3f9qz ")
	if err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if len(view.Members) != 2 || view.Members[1].UserID != mate.ID || view.Members[1].Name != "Mate" {
		t.Errorf("Unexpected members %+v", view.Members)
	}
	if view.Representative.ID != rep.ID || view.Representative.Name != "Rep" {
		t.Errorf("Unexpected representative %+v", view.Representative)
	}
	if events := rec.Events(group.ID); len(events) != 1 || events[0] != broadcast.EventNewMember {
		t.Errorf("Expected one new-member event, got %v", events)
	}

	linked, _ := store.GetUserByID(ctx, mate.ID)
	if linked.GroupID != group.ID || linked.Role != models.RoleRoommate {
		t.Errorf("Expected mate linked as roommate, got group=%q role=%q", linked.GroupID, linked.Role)
	}

	tests := []struct {
		name    string
		userID  string
		code    string
		wantErr error
		kind    apperr.Kind
	}{
		{"malformed code", mate.ID, "K3F9", nil, apperr.KindValidation},
		{"bad characters", mate.ID, "K3F9-Z", nil, apperr.KindValidation},
		{"unknown code", mate.ID, "ZZZZZZ", apperr.ErrGroupNotFound, apperr.KindNotFound},
		{"already in a group", mate.ID, "K3F9QZ", apperr.ErrAlreadyInGroup, apperr.KindConflict},
		{"representative rejoining", rep.ID, "K3F9QZ", apperr.ErrAlreadyInGroup, apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.JoinGroup(ctx, tt.userID, tt.code)
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("Expected kind %s, got %s (%v)", tt.kind, apperr.KindOf(err), err)
			}
		})
	}

	t.Run("group full", func(t *testing.T) {
		for i := 0; i < models.MaxGroupMembers-2; i++ {
			u := newUser(t, store, fmt.Sprintf("Filler%d", i))
			if _, err := reg.JoinGroup(ctx, u.ID, "K3F9QZ"); err != nil {
				t.Fatalf("JoinGroup failed: %v", err)
			}
		}
		late := newUser(t, store, "Late")
		_, err := reg.JoinGroup(ctx, late.ID, "K3F9QZ")
		if !errors.Is(err, apperr.ErrGroupFull) {
			t.Errorf("Expected ErrGroupFull, got %v", err)
		}
	})
}

func TestJoinGroupConcurrentCap(t *testing.T) {
	store := newTestStore(t)
	reg := New(store, WithCodeGenerator(sequence("CAP123")))
	ctx := context.Background()

	rep := newUser(t, store, "Rep")
	if _, err := reg.CreateGroup(ctx, rep.ID, ""); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	const joiners = 12
	users := make([]*models.User, joiners)
	for i := range users {
		users[i] = newUser(t, store, fmt.Sprintf("Joiner%d", i))
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
		other  []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := reg.JoinGroup(ctx, id, "cap123")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, apperr.ErrGroupFull):
				full++
			default:
				other = append(other, err)
			}
		}(u.ID)
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("Unexpected errors: %v", other)
	}
	if joined != models.MaxGroupMembers-1 || full != joiners-joined {
		t.Errorf("Expected %d joins and %d full, got %d and %d", models.MaxGroupMembers-1, joiners-models.MaxGroupMembers+1, joined, full)
	}

	group, err := store.GetGroupByCode(ctx, "CAP123")
	if err != nil {
		t.Fatalf("GetGroupByCode failed: %v", err)
	}
	if len(group.Members) != models.MaxGroupMembers {
		t.Errorf("Expected %d members, got %d", models.MaxGroupMembers, len(group.Members))
	}
}

func TestResolveUserRepairsLink(t *testing.T) {
	store := newTestStore(t)
	reg := New(store, WithCodeGenerator(sequence("FIX000")))
	ctx := context.Background()

	rep := newUser(t, store, "Rep")
	group, err := reg.CreateGroup(ctx, rep.ID, "")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	// Roster append succeeded but the user write was lost.
	orphan := newUser(t, store, "Orphan")
	if err := store.AppendMember(ctx, group.ID, models.GroupMember{UserID: orphan.ID}, models.MaxGroupMembers); err != nil {
		t.Fatalf("AppendMember failed: %v", err)
	}

	resolved, err := reg.ResolveUser(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("ResolveUser failed: %v", err)
	}
	if resolved.GroupID != group.ID {
		t.Errorf("Expected repaired group %s, got %q", group.ID, resolved.GroupID)
	}
	stored, _ := store.GetUserByID(ctx, orphan.ID)
	if stored.GroupID != group.ID {
		t.Error("Expected repaired link to be persisted")
	}

	_, err = reg.JoinGroup(ctx, orphan.ID, "FIX000")
	if !errors.Is(err, apperr.ErrAlreadyInGroup) {
		t.Errorf("Expected ErrAlreadyInGroup after repair, got %v", err)
	}

	if _, err := reg.ResolveUser(ctx, "missing"); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestGroupLookups(t *testing.T) {
	store := newTestStore(t)
	reg := New(store, WithCodeGenerator(sequence("LOOK42")))
	ctx := context.Background()

	rep := newUser(t, store, "Rep")
	loner := newUser(t, store, "Loner")

	if _, err := reg.GetMyGroup(ctx, loner.ID); !errors.Is(err, apperr.ErrNotInGroup) {
		t.Errorf("Expected ErrNotInGroup, got %v", err)
	}

	group, err := reg.CreateGroup(ctx, rep.ID, "Home")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	summary, err := reg.GetGroupByCode(ctx, "look42")
	if err != nil {
		t.Fatalf("GetGroupByCode failed: %v", err)
	}
	want := models.GroupSummary{
		ID:             group.ID,
		Name:           "Home",
		Code:           "LOOK42",
		MemberCount:    1,
		MaxMembers:     models.MaxGroupMembers,
		Representative: models.PersonRef{ID: rep.ID, Name: "Rep"},
	}
	if summary != want {
		t.Errorf("GetGroupByCode = %+v, want %+v", summary, want)
	}

	view, err := reg.GetMyGroup(ctx, rep.ID)
	if err != nil {
		t.Fatalf("GetMyGroup failed: %v", err)
	}
	if view.Group.ID != group.ID || view.Members[0].Role != models.RoleRepresentative {
		t.Errorf("Unexpected view %+v", view)
	}
}

func TestEnsureGroupForRepresentative(t *testing.T) {
	store := newTestStore(t)
	reg := New(store, WithCodeGenerator(sequence("ENS001", "ENS002")))
	ctx := context.Background()

	rep := newUser(t, store, "Rep")
	group, created, err := reg.EnsureGroupForRepresentative(ctx, rep.ID)
	if err != nil || !created {
		t.Fatalf("Expected new group, got created=%v err=%v", created, err)
	}

	again, created, err := reg.EnsureGroupForRepresentative(ctx, rep.ID)
	if err != nil || created || again.ID != group.ID {
		t.Errorf("Expected existing group, got created=%v err=%v", created, err)
	}

	mate := newUser(t, store, "Mate")
	if _, err := reg.JoinGroup(ctx, mate.ID, "ENS001"); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if _, _, err := reg.EnsureGroupForRepresentative(ctx, mate.ID); !errors.Is(err, apperr.ErrAlreadyInGroup) {
		t.Errorf("Expected ErrAlreadyInGroup for a roommate, got %v", err)
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"k3f9qz", "K3F9QZ", false},
		{"  AbC123 ", "ABC123", false},
		{"", "", true},
		{"ABC12", "", true},
		{"ABC1234", "", true},
		{"ABC 12", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeCode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRandomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := RandomCode()
		if err != nil {
			t.Fatalf("RandomCode failed: %v", err)
		}
		if _, err := NormalizeCode(code); err != nil || code != strings.ToUpper(code) {
			t.Fatalf("Invalid code %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Errorf("Expected mostly distinct codes, got %d unique of 200", len(seen))
	}
}
