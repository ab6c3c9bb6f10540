// Package storage provides abstractions for persistent data storage.
//
// Backends give per-record atomicity only. The operations that must hold under
// concurrent callers (unique group codes, the member cap, one group per user)
// are enforced by the backend in a single write, never by a read-then-write pair.
package storage

import (
	"context"
	"errors"

	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateCode is returned when a group code is already taken.
	ErrDuplicateCode = errors.New("group code already taken")
	// ErrGroupFull is returned when an append would exceed the member cap.
	ErrGroupFull = errors.New("group is at capacity")
	// ErrAlreadyMember is returned when the user is already on this group's roster.
	ErrAlreadyMember = errors.New("user already in this group")
	// ErrUserInGroup is returned when the user is on another group's roster.
	ErrUserInGroup = errors.New("user already in another group")
	// ErrNotMember is returned when an expense has no entry for the user.
	ErrNotMember = errors.New("user not part of expense")
)

// UserStore persists user records.
type UserStore interface {
	// CreateUser persists a new user. The user.ID field is populated if empty.
	// Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail returns ErrNotFound if no user has this (normalized) email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to user. Missing users are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// UpdateProfile applies the non-nil fields of update.
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)

	// SetUserGroup sets the user's group and role. Idempotent.
	SetUserGroup(ctx context.Context, userID, groupID string, role models.Role) error
}

// GroupStore persists groups and their rosters.
type GroupStore interface {
	// CreateGroup inserts the group with its initial roster in one write.
	// Returns ErrDuplicateCode on a code collision and ErrUserInGroup if an
	// initial member is already on another roster.
	CreateGroup(ctx context.Context, group *models.Group) error

	GetGroupByID(ctx context.Context, id string) (*models.Group, error)

	// GetGroupByCode looks up an already normalized (uppercase) code.
	GetGroupByCode(ctx context.Context, code string) (*models.Group, error)

	// FindGroupByMember returns the group whose roster contains userID.
	FindGroupByMember(ctx context.Context, userID string) (*models.Group, error)

	// AppendMember atomically appends member if the roster is shorter than max.
	// Returns ErrGroupFull, ErrAlreadyMember or ErrUserInGroup otherwise.
	AppendMember(ctx context.Context, groupID string, member models.GroupMember, max int) error
}

// ExpenseStore persists expenses and their frozen member entries.
type ExpenseStore interface {
	// CreateExpense persists the expense and all of its member entries in one write.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// ListExpensesByGroup returns active expenses, newest first by creation time.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// UpdateExpenseMember atomically patches the entry of userID.
	// Returns ErrNotFound if the expense is missing and ErrNotMember if the
	// user has no entry.
	UpdateExpenseMember(ctx context.Context, expenseID, userID string, patch models.MemberPatch) (*models.Expense, error)
}

// Store combines all persistence operations.
// This abstraction allows swapping storage backends (SQLite, MongoDB)
// without changing the core packages.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
