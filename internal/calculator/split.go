package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of fractional digits a stored share may carry.
const CurrencyPlaces = 2

var (
	ErrNoMembers        = errors.New("must have at least one member")
	ErrNonPositiveTotal = errors.New("total amount must be greater than 0")
	ErrTooPrecise       = errors.New("total amount must have at most 2 decimal places")
)

// Share is one member's portion of an expense.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// SplitEqual divides total equally among members, in the order given.
//
// The division happens in whole cents: every member gets floor(total/n) and the
// leftover cents go to members[0], so the shares always sum to total exactly.
// Callers pass the group roster, whose first entry is the representative.
func SplitEqual(total decimal.Decimal, members []string) ([]Share, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}

	cents := total.Shift(CurrencyPlaces)
	if !cents.IsInteger() {
		return nil, ErrTooPrecise
	}

	n := decimal.NewFromInt(int64(len(members)))
	per, rem := cents.QuoRem(n, 0)

	shares := make([]Share, len(members))
	for i, userID := range members {
		amount := per
		if i == 0 {
			amount = amount.Add(rem)
		}
		shares[i] = Share{
			UserID: userID,
			Amount: amount.Shift(-CurrencyPlaces),
		}
	}
	return shares, nil
}

// Sum adds up the share amounts.
func Sum(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}
	return total
}
