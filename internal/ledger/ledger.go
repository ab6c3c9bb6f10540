// Package ledger records group expenses and each member's payment state.
//
// An expense's member entries are a snapshot of the roster at creation time;
// later joins never change an existing expense.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/calculator"
	"github.com/Atmakurhemanthkumar/splitmate/internal/metrics"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/notify"
	"github.com/Atmakurhemanthkumar/splitmate/internal/policy"
	"github.com/Atmakurhemanthkumar/splitmate/internal/sanitize"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

// MinTitleLength is the shortest accepted expense title, after trimming.
const MinTitleLength = 2

// Directory resolves users and their groups. *registry.Registry implements it.
type Directory interface {
	ResolveUser(ctx context.Context, userID string) (*models.User, error)
	GroupOf(ctx context.Context, userID string) (*models.Group, error)
}

// Ledger implements the expense operations.
type Ledger struct {
	store   storage.Store
	dir     Directory
	sink    broadcast.Sink
	mailer  notify.Mailer
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithBroadcast(s broadcast.Sink) Option {
	return func(l *Ledger) { l.sink = s }
}

func WithMailer(m notify.Mailer) Option {
	return func(l *Ledger) { l.mailer = m }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger.
func New(store storage.Store, dir Directory, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		dir:    dir,
		sink:   broadcast.Nop{},
		mailer: notify.LogMailer{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewExpense is the input to CreateExpense.
type NewExpense struct {
	Title       string
	Description string
	TotalAmount decimal.Decimal
	// Date defaults to now when zero.
	Date time.Time
}

// PaymentUpdate is the input to UpdatePaymentStatus.
type PaymentUpdate struct {
	// Status defaults to paid when nil.
	Status *models.PaymentStatus
	// Proof, when non-empty, replaces the entry's payment proof.
	Proof string
	// MemberID, when set, must be the actor.
	MemberID string
}

// CreateExpense records an expense in groupID (the actor's group when empty),
// splitting the total equally across the current roster.
func (l *Ledger) CreateExpense(ctx context.Context, actorID, groupID string, in NewExpense) (*models.Expense, error) {
	title := sanitize.Text(in.Title)
	if utf8.RuneCountInString(title) < MinTitleLength {
		return nil, apperr.Validation("title must be at least %d characters", MinTitleLength)
	}
	if err := validateAmount(in.TotalAmount); err != nil {
		return nil, err
	}

	actor, err := l.dir.ResolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		groupID = actor.GroupID
	}
	if groupID == "" {
		return nil, apperr.ErrNotInGroup
	}

	// Read the roster fresh; the snapshot is whatever this read returns.
	group, err := l.store.GetGroupByID(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrGroupNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("load group", err)
	}

	target := policy.Target{GroupID: group.ID, RepresentativeID: group.RepresentativeID}
	if err := policy.Check(policy.ActorFrom(actor), policy.OpCreateExpense, target); err != nil {
		return nil, err
	}

	shares, err := calculator.SplitEqual(in.TotalAmount, group.MemberIDs())
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	now := l.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	expense := &models.Expense{
		Title:       title,
		Description: sanitize.Text(in.Description),
		TotalAmount: in.TotalAmount,
		Date:        date.UTC(),
		GroupID:     group.ID,
		CreatedBy:   actor.ID,
		SplitType:   models.SplitEqual,
		Members:     make([]models.ExpenseMember, len(shares)),
		IsActive:    true,
		CreatedAt:   now,
	}
	for i, s := range shares {
		expense.Members[i] = models.ExpenseMember{
			UserID: s.UserID,
			Amount: s.Amount,
			Status: models.StatusPending,
		}
	}

	if err := l.store.CreateExpense(ctx, expense); err != nil {
		return nil, apperr.Unavailable("create expense", err)
	}

	l.metrics.ExpenseCreated()
	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"total", expense.TotalAmount.StringFixed(2),
		"members", len(expense.Members),
	)
	l.sink.Publish(group.ID, broadcast.EventNewExpense, map[string]string{
		"expense_id": expense.ID,
		"title":      expense.Title,
		"total":      expense.TotalAmount.StringFixed(2),
	})
	return expense, nil
}

// ListExpenses returns the actor's group expenses, newest first.
func (l *Ledger) ListExpenses(ctx context.Context, actorID string) ([]*models.Expense, error) {
	group, err := l.dir.GroupOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, apperr.Unavailable("list expenses", err)
	}
	return expenses, nil
}

// GetExpense returns an expense of the actor's group.
func (l *Ledger) GetExpense(ctx context.Context, actorID, expenseID string) (*models.Expense, error) {
	expense, err := l.loadExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	actor, err := l.dir.ResolveUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.GroupID != expense.GroupID {
		return nil, apperr.ErrNotAuthorized
	}
	return expense, nil
}

// UpdatePaymentStatus sets the actor's own entry to paid (default) or pending.
// Marking paid from pending stamps PaidAt; reverting to pending clears it but
// keeps any proof.
func (l *Ledger) UpdatePaymentStatus(ctx context.Context, actorID, expenseID string, upd PaymentUpdate) (*models.Expense, error) {
	status := models.StatusPaid
	if upd.Status != nil {
		status = *upd.Status
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid payment status %q", status)
	}

	expense, err := l.loadExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	entry := expense.Member(actorID)
	if entry == nil {
		return nil, apperr.ErrNotPartOfExpense
	}

	owner := actorID
	if upd.MemberID != "" {
		owner = upd.MemberID
	}
	if err := policy.Check(policy.Actor{UserID: actorID}, policy.OpMutatePayment, policy.Target{OwnerID: owner}); err != nil {
		return nil, err
	}

	patch := models.MemberPatch{Status: &status}
	switch {
	case status == models.StatusPending:
		patch.PaidAt = nil
	case entry.Status == models.StatusPaid:
		patch.PaidAt = entry.PaidAt
	default:
		now := l.now().UTC()
		patch.PaidAt = &now
	}
	if upd.Proof != "" {
		patch.Proof = &upd.Proof
	}

	updated, err := l.store.UpdateExpenseMember(ctx, expenseID, actorID, patch)
	if err != nil {
		return nil, entryErr(err)
	}

	l.metrics.PaymentStatusChanged(string(status))
	slog.Info("Payment status updated",
		"expense_id", expenseID,
		"user_id", actorID,
		"from", entry.Status,
		"to", status,
	)
	l.sink.Publish(updated.GroupID, broadcast.EventPaymentStatusChanged, map[string]string{
		"expense_id": expenseID,
		"user_id":    actorID,
		"status":     string(status),
	})
	return updated, nil
}

// GroupTotals aggregates every member's shares across the actor's group expenses.
func (l *Ledger) GroupTotals(ctx context.Context, actorID string) ([]calculator.MemberTotals, error) {
	group, err := l.dir.GroupOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, apperr.Unavailable("list expenses", err)
	}

	input := make([]calculator.ExpenseForTotals, len(expenses))
	for i, e := range expenses {
		entries := make([]calculator.EntryForTotals, len(e.Members))
		for j, m := range e.Members {
			entries[j] = calculator.EntryForTotals{
				UserID: m.UserID,
				Amount: m.Amount,
				Paid:   m.Status == models.StatusPaid,
			}
		}
		input[i] = calculator.ExpenseForTotals{Entries: entries}
	}
	return calculator.CalculateGroupTotals(group.MemberIDs(), input), nil
}

func (l *Ledger) loadExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := l.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrExpenseNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("load expense", err)
	}
	return expense, nil
}

func validateAmount(total decimal.Decimal) error {
	if !total.IsPositive() {
		return apperr.Validation("amount must be greater than 0")
	}
	if !total.Shift(calculator.CurrencyPlaces).IsInteger() {
		return apperr.Validation("amount must have at most %d decimal places", calculator.CurrencyPlaces)
	}
	return nil
}

func entryErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.ErrExpenseNotFound
	case errors.Is(err, storage.ErrNotMember):
		return apperr.ErrNotPartOfExpense
	default:
		return apperr.Unavailable("update payment", err)
	}
}
