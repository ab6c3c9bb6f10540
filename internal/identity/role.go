package identity

import (
	"context"
	"log/slog"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
)

// RoleChange tags the outcome of a role update.
type RoleChange int

const (
	NoChange RoleChange = iota
	Promoted
	PromotedWithNewGroup
)

func (c RoleChange) String() string {
	switch c {
	case Promoted:
		return "promoted"
	case PromotedWithNewGroup:
		return "promoted_with_new_group"
	default:
		return "no_change"
	}
}

// RoleChangeResult is returned by UpdateRole. Group is set unless Change is NoChange.
type RoleChangeResult struct {
	Change RoleChange
	Group  *models.Group
}

// AssignRole decides what moving user to role means, without side effects.
// Representatives stay representatives. Whether a promoted user may own a
// group is left to the registry.
func AssignRole(user *models.User, role models.Role) (RoleChange, error) {
	if !role.Valid() {
		return NoChange, apperr.Validation("role must be either representative or roommate")
	}
	switch {
	case user.Role == role:
		return NoChange, nil
	case user.Role == models.RoleRepresentative:
		return NoChange, apperr.ErrRoleSticky
	default:
		return Promoted, nil
	}
}

// UpdateRole applies AssignRole and, on promotion, ensures the actor
// represents a group. A roommate of someone else's group gets
// apperr.ErrAlreadyInGroup.
func (s *Service) UpdateRole(ctx context.Context, actorID string, role models.Role) (RoleChangeResult, error) {
	user, err := s.groups.ResolveUser(ctx, actorID)
	if err != nil {
		return RoleChangeResult{}, err
	}
	change, err := AssignRole(user, role)
	if err != nil || change == NoChange {
		return RoleChangeResult{Change: change}, err
	}

	group, created, err := s.groups.EnsureGroupForRepresentative(ctx, user.ID)
	if err != nil {
		return RoleChangeResult{}, err
	}
	if created {
		change = PromotedWithNewGroup
	} else if err := s.store.SetUserGroup(ctx, user.ID, group.ID, models.RoleRepresentative); err != nil {
		return RoleChangeResult{}, apperr.Unavailable("update role", err)
	}

	slog.Info("Role updated", "user_id", user.ID, "change", change, "group_id", group.ID)
	return RoleChangeResult{Change: change, Group: group}, nil
}
