package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of one member's share.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// AggregateStatus summarizes all members' payment states of an expense.
type AggregateStatus string

const (
	AggregatePending AggregateStatus = "pending"
	AggregatePartial AggregateStatus = "partial"
	AggregateSettled AggregateStatus = "settled"
)

// SplitEqual is the only split type modeled.
const SplitEqual = "equal"

// ExpenseMember is one member's entry in an expense's frozen split.
type ExpenseMember struct {
	UserID string

	// Amount is this member's share.
	Amount decimal.Decimal

	Status PaymentStatus

	// PaidAt is set when Status is paid.
	PaidAt *time.Time

	// PaymentProof is an opaque reference (URL), empty if none attached.
	PaymentProof string
}

// Expense represents a shared expense logged by a group's representative.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	Title       string
	Description string

	// TotalAmount is always positive and equals the sum of member amounts.
	TotalAmount decimal.Decimal

	// Date is the user-supplied expense date.
	Date time.Time

	GroupID   string
	CreatedBy string
	SplitType string

	// Members is a copy of the group roster at creation time.
	Members []ExpenseMember

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member returns the entry for userID, or nil if the user is not part of the
// expense. The snapshot is at most MaxGroupMembers long; this is a linear scan.
func (e *Expense) Member(userID string) *ExpenseMember {
	for i := range e.Members {
		if e.Members[i].UserID == userID {
			return &e.Members[i]
		}
	}
	return nil
}

// PaidCount returns how many members have paid.
func (e *Expense) PaidCount() int {
	n := 0
	for _, m := range e.Members {
		if m.Status == StatusPaid {
			n++
		}
	}
	return n
}

// PaymentStatus derives the aggregate status from the member entries.
func (e *Expense) PaymentStatus() AggregateStatus {
	paid := e.PaidCount()
	switch {
	case paid == 0:
		return AggregatePending
	case paid == len(e.Members):
		return AggregateSettled
	default:
		return AggregatePartial
	}
}

// MemberPatch describes an update to one expense member entry.
type MemberPatch struct {
	// Status, when non-nil, replaces the status and PaidAt together.
	// PaidAt nil clears the timestamp.
	Status *PaymentStatus
	PaidAt *time.Time

	// Proof replaces the payment proof when non-nil.
	Proof *string
}

// PaymentProof is the representative's view of one attached proof.
type PaymentProof struct {
	UserID   string
	ProofURL string
	PaidAt   *time.Time
}

// Apply applies the patch to m.
func (p MemberPatch) Apply(m *ExpenseMember) {
	if p.Status != nil {
		m.Status = *p.Status
		m.PaidAt = p.PaidAt
	}
	if p.Proof != nil {
		m.PaymentProof = *p.Proof
	}
}
