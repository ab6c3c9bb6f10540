// Package models defines the core domain models for SplitMate.
//
// # Models
//
//   - User: a registered account, optionally belonging to one group
//   - Group: a roommate group of at most MaxGroupMembers users, owned by a representative
//   - Expense: a shared expense with a frozen per-member split
//   - ExpenseMember: one member's share and payment state inside an expense
//
// # Design Principles
//
//  1. **IDs, not pointers**: relationships are expressed with ID strings
//  2. **Frozen snapshots**: an Expense copies the group roster at creation time and
//     never follows later roster changes
//  3. **Projections for the outside**: Profile and GroupSummary never carry
//     credentials or financial data
//  4. **Money is decimal**: amounts use shopspring/decimal, never float64
package models
