package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Atmakurhemanthkumar/splitmate/internal/auth"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/identity"
	"github.com/Atmakurhemanthkumar/splitmate/internal/ledger"
	"github.com/Atmakurhemanthkumar/splitmate/internal/middleware"
	"github.com/Atmakurhemanthkumar/splitmate/internal/notify"
	"github.com/Atmakurhemanthkumar/splitmate/internal/proofs"
	"github.com/Atmakurhemanthkumar/splitmate/internal/registry"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage/sqlite"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api/apiconnect"
)

type testEnv struct {
	auth     apiconnect.AuthServiceClient
	users    apiconnect.UserServiceClient
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
	payments apiconnect.PaymentServiceClient

	events *broadcast.Recorder
	outbox *notify.Outbox
}

// firstCode makes the first generated group code predictable.
func firstCode(code string) registry.CodeGenerator {
	used := false
	return func() (string, error) {
		if !used {
			used = true
			return code, nil
		}
		return registry.RandomCode()
	}
}

// setupTestServer wires every service over a temp SQLite store.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	env := &testEnv{events: &broadcast.Recorder{}, outbox: &notify.Outbox{}}
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	reg := registry.New(store,
		registry.WithCodeGenerator(firstCode("K3F9QZ")),
		registry.WithBroadcast(env.events),
	)
	ident := identity.New(store, reg, tokens,
		identity.WithHasher(&auth.BcryptHasher{Cost: bcrypt.MinCost}),
		identity.WithMailer(env.outbox),
	)
	led := ledger.New(store, reg, ledger.WithBroadcast(env.events), ledger.WithMailer(env.outbox))
	bridge := proofs.New(store, proofs.WithBroadcast(env.events))

	public := connect.WithInterceptors(middleware.OptionalAuth(tokens), middleware.LoggingInterceptor(nil))
	private := connect.WithInterceptors(middleware.RequireAuth(tokens), middleware.LoggingInterceptor(nil))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(ident), public))
	mux.Handle(apiconnect.NewUserServiceHandler(NewUserService(ident), private))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(reg), private))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(led), private))
	mux.Handle(apiconnect.NewPaymentServiceHandler(NewPaymentService(bridge), private))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		ident.Wait()
		store.Close()
	})

	env.auth = apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL)
	env.users = apiconnect.NewUserServiceClient(http.DefaultClient, server.URL)
	env.groups = apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL)
	env.expenses = apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL)
	env.payments = apiconnect.NewPaymentServiceClient(http.DefaultClient, server.URL)
	return env
}

// as builds a request authenticated with token.
func as[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func (env *testEnv) register(t *testing.T, name, role string) *api.AuthResponse {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret1",
		Role:     role,
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return resp.Msg
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error with code %v, got %v", want, err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected code %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}

func TestRoommateScenario(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice", "representative")
	if alice.Group == nil || alice.Group.Code != "K3F9QZ" {
		t.Fatalf("expected group K3F9QZ, got %+v", alice.Group)
	}
	if alice.User.Role != "representative" || alice.Token == "" {
		t.Errorf("unexpected registration %+v", alice.User)
	}

	bob := env.register(t, "bob", "")
	preview, err := env.groups.GetGroupByCode(ctx, as(bob.Token, &api.GetGroupByCodeRequest{Code: "k3f9qz"}))
	if err != nil {
		t.Fatalf("GetGroupByCode failed: %v", err)
	}
	if preview.Msg.Group.MemberCount != 1 || preview.Msg.Group.Representative.Name != "alice" {
		t.Errorf("unexpected preview %+v", preview.Msg.Group)
	}

	joined, err := env.groups.JoinGroup(ctx, as(bob.Token, &api.JoinGroupRequest{Code: " k3f9qz "}))
	if err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if len(joined.Msg.Group.Members) != 2 || joined.Msg.Group.Members[1].Name != "bob" {
		t.Fatalf("expected bob as second member, got %+v", joined.Msg.Group.Members)
	}

	created, err := env.expenses.CreateExpense(ctx, as(alice.Token, &api.CreateExpenseRequest{
		Title:       "Rent",
		TotalAmount: decimal.NewFromInt(1000),
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	rent := created.Msg.Expense
	if rent.TotalAmount != "1000.00" || rent.PaymentStatus != "pending" || rent.SplitType != "equal" {
		t.Errorf("unexpected expense %+v", rent)
	}
	for _, m := range rent.Members {
		if m.Amount != "500.00" || m.Status != "pending" {
			t.Errorf("expected 500.00 pending for %s, got %s %s", m.UserID, m.Amount, m.Status)
		}
	}

	_, err = env.expenses.CreateExpense(ctx, as(bob.Token, &api.CreateExpenseRequest{
		Title:       "Snacks",
		TotalAmount: decimal.NewFromInt(10),
	}))
	assertCode(t, err, connect.CodePermissionDenied)

	paid, err := env.expenses.UpdatePaymentStatus(ctx, as(bob.Token, &api.UpdatePaymentStatusRequest{
		ExpenseID:    rent.ID,
		PaymentProof: "https://img.example.com/bob.png",
	}))
	if err != nil {
		t.Fatalf("UpdatePaymentStatus failed: %v", err)
	}
	if paid.Msg.Expense.PaymentStatus != "partial" || paid.Msg.Expense.PaidCount != 1 {
		t.Errorf("expected partial with one paid, got %+v", paid.Msg.Expense)
	}

	_, err = env.expenses.UpdatePaymentStatus(ctx, as(bob.Token, &api.UpdatePaymentStatusRequest{
		ExpenseID: rent.ID,
		MemberID:  alice.User.ID,
	}))
	assertCode(t, err, connect.CodePermissionDenied)

	settled, err := env.expenses.UpdatePaymentStatus(ctx, as(alice.Token, &api.UpdatePaymentStatusRequest{ExpenseID: rent.ID}))
	if err != nil {
		t.Fatalf("UpdatePaymentStatus failed: %v", err)
	}
	if settled.Msg.Expense.PaymentStatus != "settled" {
		t.Errorf("expected settled, got %s", settled.Msg.Expense.PaymentStatus)
	}

	// Proofs are listed by presence, not by paid status.
	list, err := env.payments.ListProofs(ctx, as(alice.Token, &api.ListProofsRequest{ExpenseID: rent.ID}))
	if err != nil {
		t.Fatalf("ListProofs failed: %v", err)
	}
	if len(list.Msg.Proofs) != 1 || list.Msg.Proofs[0].UserID != bob.User.ID || list.Msg.Proofs[0].PaidAt == nil {
		t.Errorf("expected only bob's proof, got %+v", list.Msg.Proofs)
	}
	_, err = env.payments.ListProofs(ctx, as(bob.Token, &api.ListProofsRequest{ExpenseID: rent.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	totals, err := env.expenses.GetGroupTotals(ctx, as(bob.Token, &api.GetGroupTotalsRequest{}))
	if err != nil {
		t.Fatalf("GetGroupTotals failed: %v", err)
	}
	if len(totals.Msg.Totals) != 2 || totals.Msg.Totals[1].Paid != "500.00" || totals.Msg.Totals[1].Pending != "0.00" {
		t.Errorf("unexpected totals %+v", totals.Msg.Totals)
	}

	events := env.events.Events(rent.GroupID)
	want := []broadcast.Event{
		broadcast.EventNewMember,
		broadcast.EventNewExpense,
		broadcast.EventPaymentStatusChanged,
		broadcast.EventPaymentStatusChanged,
	}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("expected events %v, got %v", want, events)
	}
}

func TestAuthService(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	carol := env.register(t, "carol", "")

	_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Name: "Carol", Email: "CAROL@example.com", Password: "secret1",
	}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Name: "Dan", Email: "dan@example.com", Password: "123",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "carol@example.com", Password: "nope!!"}))
	assertCode(t, err, connect.CodePermissionDenied)

	login, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "carol@example.com", Password: "secret1"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	me, err := env.auth.Me(ctx, as(login.Msg.Token, &api.MeRequest{}))
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if me.Msg.User.ID != carol.User.ID || me.Msg.Token != "" || me.Msg.Group != nil {
		t.Errorf("unexpected me response %+v", me.Msg)
	}

	_, err = env.auth.Me(ctx, connect.NewRequest(&api.MeRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestRequiresAuthentication(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.groups.GetMyGroup(ctx, connect.NewRequest(&api.GetMyGroupRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = env.expenses.ListExpenses(ctx, as("not-a-token", &api.ListExpensesRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestUserService(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	erin := env.register(t, "erin", "")
	fred := env.register(t, "fred", "")

	phone := "555-0101"
	updated, err := env.users.UpdateProfile(ctx, as(erin.Token, &api.UpdateProfileRequest{Phone: &phone}))
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Msg.User.Phone != phone || updated.Msg.User.Name != "erin" {
		t.Errorf("unexpected profile %+v", updated.Msg.User)
	}

	_, err = env.users.GetProfile(ctx, as(erin.Token, &api.GetProfileRequest{UserID: fred.User.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	role, err := env.users.UpdateRole(ctx, as(erin.Token, &api.UpdateRoleRequest{Role: "representative"}))
	if err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	if role.Msg.Change != "promoted_with_new_group" || role.Msg.Group == nil || role.Msg.User.Role != "representative" {
		t.Errorf("unexpected role change %+v", role.Msg)
	}
	if role.Msg.User.GroupID != role.Msg.Group.ID {
		t.Errorf("expected user linked to the new group")
	}

	_, err = env.users.UpdateRole(ctx, as(erin.Token, &api.UpdateRoleRequest{Role: "roommate"}))
	assertCode(t, err, connect.CodeFailedPrecondition)
}

func TestGroupServiceErrors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	rep := env.register(t, "gina", "representative")

	tests := []struct {
		name string
		code string
		want connect.Code
	}{
		{"malformed code", "K3F", connect.CodeInvalidArgument},
		{"unknown code", "ZZZZZZ", connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.groups.JoinGroup(ctx, as(rep.Token, &api.JoinGroupRequest{Code: tt.code}))
			assertCode(t, err, tt.want)
		})
	}

	_, err := env.groups.JoinGroup(ctx, as(rep.Token, &api.JoinGroupRequest{Code: rep.Group.Code}))
	assertCode(t, err, connect.CodeAlreadyExists)

	for i := 0; i < 4; i++ {
		mate := env.register(t, fmt.Sprintf("mate%d", i), "")
		if _, err := env.groups.JoinGroup(ctx, as(mate.Token, &api.JoinGroupRequest{Code: rep.Group.Code})); err != nil {
			t.Fatalf("JoinGroup(mate%d) failed: %v", i, err)
		}
	}
	late := env.register(t, "late", "")
	_, err = env.groups.JoinGroup(ctx, as(late.Token, &api.JoinGroupRequest{Code: rep.Group.Code}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = env.groups.GetMyGroup(ctx, as(late.Token, &api.GetMyGroupRequest{}))
	assertCode(t, err, connect.CodeNotFound)

	mine, err := env.groups.GetMyGroup(ctx, as(rep.Token, &api.GetMyGroupRequest{}))
	if err != nil {
		t.Fatalf("GetMyGroup failed: %v", err)
	}
	if len(mine.Msg.Group.Members) != 5 || mine.Msg.Group.Members[0].Role != "representative" {
		t.Errorf("unexpected group %+v", mine.Msg.Group)
	}
}

func TestRemindPendingAndVerify(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	rep := env.register(t, "hana", "representative")
	mate := env.register(t, "ivan", "")
	if _, err := env.groups.JoinGroup(ctx, as(mate.Token, &api.JoinGroupRequest{Code: rep.Group.Code})); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	created, err := env.expenses.CreateExpense(ctx, as(rep.Token, &api.CreateExpenseRequest{
		Title:       "Internet",
		TotalAmount: decimal.RequireFromString("59.99"),
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if created.Msg.Expense.Members[0].Amount != "30.00" || created.Msg.Expense.Members[1].Amount != "29.99" {
		t.Errorf("expected remainder on the representative, got %+v", created.Msg.Expense.Members)
	}

	reminded, err := env.expenses.RemindPending(ctx, as(rep.Token, &api.RemindPendingRequest{ExpenseID: created.Msg.Expense.ID}))
	if err != nil {
		t.Fatalf("RemindPending failed: %v", err)
	}
	if reminded.Msg.Reminded != 1 {
		t.Errorf("expected 1 reminder, got %d", reminded.Msg.Reminded)
	}
	_, err = env.expenses.RemindPending(ctx, as(mate.Token, &api.RemindPendingRequest{ExpenseID: created.Msg.Expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.payments.VerifyProof(ctx, as(mate.Token, &api.VerifyProofRequest{ExpenseID: created.Msg.Expense.ID}))
	assertCode(t, err, connect.CodeUnavailable)

	attached, err := env.payments.AttachProof(ctx, as(mate.Token, &api.AttachProofRequest{
		ExpenseID: created.Msg.Expense.ID,
		ProofURL:  "https://img.example.com/ivan.png",
	}))
	if err != nil {
		t.Fatalf("AttachProof failed: %v", err)
	}
	if attached.Msg.Expense.Members[1].PaymentProof == "" || attached.Msg.Expense.Members[1].Status != "pending" {
		t.Errorf("expected proof attached without status change, got %+v", attached.Msg.Expense.Members[1])
	}

	_, err = env.expenses.GetExpense(ctx, as(mate.Token, &api.GetExpenseRequest{ExpenseID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}
