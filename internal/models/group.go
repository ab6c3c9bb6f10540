package models

import "time"

// MaxGroupMembers is the hard cap on group size.
const MaxGroupMembers = 5

// GroupCodeLength is the length of a group join code.
const GroupCodeLength = 6

// GroupMember is one entry of a group's roster.
type GroupMember struct {
	UserID   string
	JoinedAt time.Time
}

// Group represents a roommate group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Alice's Group").
	Name string

	// Code is the unique 6-character uppercase join code.
	Code string

	// RepresentativeID is the user who owns the group. Immutable.
	RepresentativeID string

	// Members is the roster in join order; the representative is first.
	Members []GroupMember

	// MaxMembers is always MaxGroupMembers in this version.
	MaxMembers int

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMember reports whether userID is on the roster. Rosters hold at most
// MaxGroupMembers entries, so this is a linear scan; uniqueness of a user
// across rosters is enforced by the store.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the roster user IDs in join order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// Full reports whether the group has reached its capacity.
func (g *Group) Full() bool {
	return len(g.Members) >= g.MaxMembers
}

// PersonRef is a minimal public reference to a user.
type PersonRef struct {
	ID     string
	Name   string
	Avatar string
}

// GroupSummary is the public projection used by join previews.
type GroupSummary struct {
	ID             string
	Name           string
	Code           string
	MemberCount    int
	MaxMembers     int
	Representative PersonRef
}

// Summary builds the public projection of the group.
func (g *Group) Summary(rep PersonRef) GroupSummary {
	return GroupSummary{
		ID:             g.ID,
		Name:           g.Name,
		Code:           g.Code,
		MemberCount:    len(g.Members),
		MaxMembers:     g.MaxMembers,
		Representative: rep,
	}
}
