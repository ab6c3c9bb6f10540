// Package policy is the single authorization gate consulted before every
// state transition. It is pure: callers load the actor and target first.
package policy

import (
	"fmt"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
)

// Op names a gated operation.
type Op int

const (
	OpUnknown Op = iota
	// OpCreateExpense is allowed for the target group's representative.
	OpCreateExpense
	// OpMutatePayment covers status and proof changes; owner of the entry only.
	OpMutatePayment
	// OpJoinGroup is allowed when the actor has no group.
	OpJoinGroup
	// OpAccessProfile covers profile read and write; self only.
	OpAccessProfile
	// OpListProofs is allowed for the representative of the expense's group.
	OpListProofs
	// OpRemindPending follows the proof listing rule.
	OpRemindPending
)

func (o Op) String() string {
	switch o {
	case OpCreateExpense:
		return "create_expense"
	case OpMutatePayment:
		return "mutate_payment"
	case OpJoinGroup:
		return "join_group"
	case OpAccessProfile:
		return "access_profile"
	case OpListProofs:
		return "list_proofs"
	case OpRemindPending:
		return "remind_pending"
	default:
		return "unknown"
	}
}

// Actor is the authenticated caller, resolved from storage.
type Actor struct {
	UserID  string
	GroupID string
	Role    models.Role
}

// ActorFrom builds an Actor from a resolved user.
func ActorFrom(u *models.User) Actor {
	return Actor{UserID: u.ID, GroupID: u.GroupID, Role: u.Role}
}

// Target carries whichever facts the operation is judged on.
type Target struct {
	// GroupID and RepresentativeID describe the group involved.
	GroupID          string
	RepresentativeID string

	// OwnerID is the user a payment entry or profile belongs to.
	OwnerID string
}

// CanPerform reports whether actor may perform op on target.
// Unknown operations are denied.
func CanPerform(actor Actor, op Op, target Target) bool {
	if actor.UserID == "" {
		return false
	}
	switch op {
	case OpCreateExpense:
		return target.RepresentativeID == actor.UserID && target.GroupID != "" && actor.GroupID == target.GroupID
	case OpMutatePayment:
		return target.OwnerID == actor.UserID
	case OpJoinGroup:
		return actor.GroupID == ""
	case OpAccessProfile:
		return target.OwnerID == actor.UserID
	case OpListProofs, OpRemindPending:
		return target.RepresentativeID == actor.UserID
	default:
		return false
	}
}

// Check is CanPerform returning apperr.ErrNotAuthorized on denial.
func Check(actor Actor, op Op, target Target) error {
	if CanPerform(actor, op, target) {
		return nil
	}
	return fmt.Errorf("%s: %w", op, apperr.ErrNotAuthorized)
}
