package models

import (
	"strings"
	"time"
)

// Role is the part a user plays in a group.
type Role string

const (
	RoleRepresentative Role = "representative"
	RoleRoommate       Role = "roommate"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRepresentative || r == RoleRoommate
}

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique, stored lowercased).
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Role is sticky: once a user becomes representative they stay one.
	Role Role

	// GroupID is the group the user belongs to, empty if none.
	// The group's member list is authoritative; see registry.ResolveUser.
	GroupID string

	Phone       string
	Avatar      string
	Description string

	// IsActive is the soft-delete flag. Users are never hard-deleted.
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InGroup reports whether the user currently belongs to a group.
func (u *User) InGroup() bool {
	return u.GroupID != ""
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a roommate account with the given credentials hash.
func NewUser(name, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleRoommate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Profile is the public view of a user, without credentials.
type Profile struct {
	ID          string
	Name        string
	Email       string
	Role        Role
	GroupID     string
	Phone       string
	Avatar      string
	Description string
}

// Profile returns the credential-free projection of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		GroupID:     u.GroupID,
		Phone:       u.Phone,
		Avatar:      u.Avatar,
		Description: u.Description,
	}
}

// ProfileUpdate carries the self-service editable profile fields.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name        *string
	Phone       *string
	Description *string
	Avatar      *string
}
