package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EntryForTotals is one member entry of an expense, reduced to what the totals need.
type EntryForTotals struct {
	UserID string
	Amount decimal.Decimal
	Paid   bool
}

// ExpenseForTotals represents an expense with the minimal information needed for totals.
type ExpenseForTotals struct {
	Entries []EntryForTotals
}

// MemberTotals aggregates one member's shares across a group's expenses.
type MemberTotals struct {
	UserID       string
	TotalShare   decimal.Decimal // Sum of all shares
	Paid         decimal.Decimal // Sum of shares marked paid
	Pending      decimal.Decimal // Sum of shares still pending
	PendingCount int
}

// CalculateGroupTotals computes per-member totals across expenses.
//
// Members are returned in roster order. Anyone who appears in an expense but is
// no longer on the roster is appended after the roster, sorted by user ID.
func CalculateGroupTotals(roster []string, expenses []ExpenseForTotals) []MemberTotals {
	totals := make(map[string]*MemberTotals, len(roster))
	get := func(userID string) *MemberTotals {
		t, ok := totals[userID]
		if !ok {
			t = &MemberTotals{
				UserID:     userID,
				TotalShare: decimal.Zero,
				Paid:       decimal.Zero,
				Pending:    decimal.Zero,
			}
			totals[userID] = t
		}
		return t
	}

	for _, userID := range roster {
		get(userID)
	}

	for _, exp := range expenses {
		for _, entry := range exp.Entries {
			t := get(entry.UserID)
			t.TotalShare = t.TotalShare.Add(entry.Amount)
			if entry.Paid {
				t.Paid = t.Paid.Add(entry.Amount)
			} else {
				t.Pending = t.Pending.Add(entry.Amount)
				t.PendingCount++
			}
		}
	}

	result := make([]MemberTotals, 0, len(totals))
	seen := make(map[string]bool, len(roster))
	for _, userID := range roster {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		result = append(result, *totals[userID])
	}

	var extra []string
	for userID := range totals {
		if !seen[userID] {
			extra = append(extra, userID)
		}
	}
	sort.Strings(extra)
	for _, userID := range extra {
		result = append(result, *totals[userID])
	}

	return result
}
