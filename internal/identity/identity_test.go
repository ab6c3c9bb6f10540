package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/auth"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/notify"
	"github.com/Atmakurhemanthkumar/splitmate/internal/registry"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage/sqlite"
)

type fixture struct {
	svc    *Service
	reg    *registry.Registry
	jwt    *auth.JWTManager
	outbox *notify.Outbox
}

func newFixture(t *testing.T, opts ...registry.Option) *fixture {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		reg:    registry.New(store, opts...),
		jwt:    auth.NewJWTManager("test-secret", time.Hour),
		outbox: &notify.Outbox{},
	}
	f.svc = New(store, f.reg, f.jwt,
		WithHasher(&auth.BcryptHasher{Cost: bcrypt.MinCost}),
		WithMailer(f.outbox),
	)
	return f
}

func (f *fixture) register(t *testing.T, name string, role models.Role) *Session {
	t.Helper()
	sess, err := f.svc.Register(context.Background(), Registration{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret1",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return sess
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	rep := f.register(t, "alice", models.RoleRepresentative)
	if rep.User.Role != models.RoleRepresentative {
		t.Errorf("Expected representative, got %s", rep.User.Role)
	}
	if rep.Group == nil || rep.User.GroupID != rep.Group.ID {
		t.Fatalf("Expected a group linked to the representative, got %+v", rep.Group)
	}
	if rep.Group.Name != "alice's Group" || len(rep.Group.Code) != models.GroupCodeLength {
		t.Errorf("Unexpected group %+v", rep.Group)
	}
	claims, err := f.jwt.Validate(rep.Token)
	if err != nil || claims.UserID != rep.User.ID {
		t.Errorf("Expected a valid token for the user, got %v", err)
	}

	mate := f.register(t, "bob", "")
	if mate.User.Role != models.RoleRoommate || mate.Group != nil || mate.User.InGroup() {
		t.Errorf("Expected a roommate without a group, got %+v", mate.User)
	}
	if mate.User.PasswordHash == "secret1" {
		t.Error("Expected the password to be hashed")
	}

	f.svc.Wait()
	sent := f.outbox.Sent()
	if len(sent) != 2 {
		t.Fatalf("Expected 2 welcome emails, got %d", len(sent))
	}
	if sent[0].To != "alice@example.com" && sent[1].To != "alice@example.com" {
		t.Errorf("Expected a welcome email to alice, got %+v", sent)
	}
}

func TestRegisterRepresentativeKeepsAccountWhenGroupFails(t *testing.T) {
	next := "AAAAAA"
	gen := func() (string, error) { return next, nil }
	f := newFixture(t, registry.WithCodeGenerator(gen), registry.WithRetry(2, 0))
	ctx := context.Background()

	f.register(t, "alice", models.RoleRepresentative)

	bob := f.register(t, "bob", models.RoleRepresentative)
	if bob.Group != nil || bob.User.Role != models.RoleRoommate || bob.User.InGroup() {
		t.Fatalf("Expected bob without a group, got role %s group %+v", bob.User.Role, bob.Group)
	}
	if _, err := f.jwt.Validate(bob.Token); err != nil {
		t.Errorf("Expected a usable token, got %v", err)
	}

	_, err := f.svc.Register(ctx, Registration{Name: "bob", Email: "bob@example.com", Password: "secret1"})
	if !errors.Is(err, apperr.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists on re-register, got %v", err)
	}

	next = "BBBBBB"
	res, err := f.svc.UpdateRole(ctx, bob.User.ID, models.RoleRepresentative)
	if err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	if res.Change != PromotedWithNewGroup || res.Group.Code != "BBBBBB" {
		t.Errorf("Expected a new group BBBBBB, got %s %+v", res.Change, res.Group)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "taken", "")

	tests := []struct {
		name    string
		reg     Registration
		kind    apperr.Kind
		wantErr error
	}{
		{"short name", Registration{Name: "A", Email: "a@example.com", Password: "secret1"}, apperr.KindValidation, nil},
		{"markup-only name", Registration{Name: "<b></b>", Email: "a@example.com", Password: "secret1"}, apperr.KindValidation, nil},
		{"bad email", Registration{Name: "Ann", Email: "not-an-email", Password: "secret1"}, apperr.KindValidation, nil},
		{"display name email", Registration{Name: "Ann", Email: "Ann <ann@example.com>", Password: "secret1"}, apperr.KindValidation, nil},
		{"short password", Registration{Name: "Ann", Email: "ann@example.com", Password: "12345"}, apperr.KindValidation, nil},
		{"bad role", Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: "admin"}, apperr.KindValidation, nil},
		{"email exists", Registration{Name: "Ann", Email: " TAKEN@example.com ", Password: "secret1"}, apperr.KindConflict, apperr.ErrEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.reg)
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("Expected kind %s, got %v", tt.kind, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.register(t, "carol", models.RoleRepresentative)

	sess, err := f.svc.Login(ctx, "  CAROL@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if sess.User.ID != rep.User.ID || sess.Group == nil || sess.Group.Code != rep.Group.Code {
		t.Errorf("Expected carol with her group, got %+v", sess)
	}
	if sess.Token == "" {
		t.Error("Expected a token")
	}

	for _, tc := range []struct{ email, password string }{
		{"carol@example.com", "wrong-password"},
		{"nobody@example.com", "secret1"},
	} {
		if _, err := f.svc.Login(ctx, tc.email, tc.password); !errors.Is(err, apperr.ErrInvalidCredentials) {
			t.Errorf("Login(%s) expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.register(t, "dave", models.RoleRepresentative)
	mate := f.register(t, "erin", "")

	sess, err := f.svc.Me(ctx, mate.User.ID)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if sess.Group != nil || sess.Token != "" {
		t.Errorf("Expected no group and no token, got %+v", sess)
	}

	if _, err := f.reg.JoinGroup(ctx, mate.User.ID, rep.Group.Code); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	sess, err = f.svc.Me(ctx, mate.User.ID)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if sess.Group == nil || sess.Group.ID != rep.Group.ID || len(sess.Group.Members) != 2 {
		t.Errorf("Expected the joined group, got %+v", sess.Group)
	}

	if _, err := f.svc.Me(ctx, "missing"); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "frank", "")
	b := f.register(t, "grace", "")

	name := "  Frank <script>x</script>Smith "
	phone := "555-0100"
	profile, err := f.svc.UpdateProfile(ctx, a.User.ID, "", models.ProfileUpdate{Name: &name, Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if profile.Name != "Frank Smith" && profile.Name != "Frank xSmith" {
		t.Errorf("Expected sanitized name, got %q", profile.Name)
	}
	if profile.Phone != phone || profile.Email != "frank@example.com" {
		t.Errorf("Unexpected profile %+v", profile)
	}

	got, err := f.svc.GetProfile(ctx, a.User.ID, a.User.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Phone != phone {
		t.Errorf("Expected phone to persist, got %q", got.Phone)
	}

	if _, err := f.svc.GetProfile(ctx, a.User.ID, b.User.ID); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized reading another profile, got %v", err)
	}
	if _, err := f.svc.UpdateProfile(ctx, a.User.ID, b.User.ID, models.ProfileUpdate{Phone: &phone}); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized updating another profile, got %v", err)
	}

	short := "x"
	if _, err := f.svc.UpdateProfile(ctx, a.User.ID, "", models.ProfileUpdate{Name: &short}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestAssignRole(t *testing.T) {
	rep := &models.User{ID: "r", Role: models.RoleRepresentative, GroupID: "g"}
	mate := &models.User{ID: "m", Role: models.RoleRoommate}

	tests := []struct {
		name    string
		user    *models.User
		role    models.Role
		want    RoleChange
		wantErr error
	}{
		{"same role", mate, models.RoleRoommate, NoChange, nil},
		{"promote", mate, models.RoleRepresentative, Promoted, nil},
		{"demote is refused", rep, models.RoleRoommate, NoChange, apperr.ErrRoleSticky},
		{"representative again", rep, models.RoleRepresentative, NoChange, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssignRole(tt.user, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := AssignRole(mate, "owner"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error for unknown role, got %v", err)
	}
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	solo := f.register(t, "henry", "")
	res, err := f.svc.UpdateRole(ctx, solo.User.ID, models.RoleRepresentative)
	if err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	if res.Change != PromotedWithNewGroup || res.Group == nil || res.Group.RepresentativeID != solo.User.ID {
		t.Fatalf("Expected promotion with a new group, got %+v", res)
	}
	me, _ := f.svc.Me(ctx, solo.User.ID)
	if me.User.Role != models.RoleRepresentative || me.User.GroupID != res.Group.ID {
		t.Errorf("Expected user linked as representative, got %+v", me.User)
	}

	res, err = f.svc.UpdateRole(ctx, solo.User.ID, models.RoleRepresentative)
	if err != nil || res.Change != NoChange {
		t.Errorf("Expected NoChange, got %+v, %v", res, err)
	}
	if _, err := f.svc.UpdateRole(ctx, solo.User.ID, models.RoleRoommate); !errors.Is(err, apperr.ErrRoleSticky) {
		t.Errorf("Expected ErrRoleSticky, got %v", err)
	}

	mate := f.register(t, "iris", "")
	if _, err := f.reg.JoinGroup(ctx, mate.User.ID, res.Group.Code); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if _, err := f.svc.UpdateRole(ctx, mate.User.ID, models.RoleRepresentative); !errors.Is(err, apperr.ErrAlreadyInGroup) {
		t.Errorf("Expected ErrAlreadyInGroup for a roommate of another group, got %v", err)
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user+tag@example.com", true},
		{"a@b.co", true},
		{"", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user..name@example.com", false},
		{"user@example..com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
		{"user@localhost", false},
		{"user@example.c", false},
		{".user@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ValidEmail(tt.email); got != tt.want {
				t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
