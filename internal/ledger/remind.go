package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/notify"
	"github.com/Atmakurhemanthkumar/splitmate/internal/policy"
)

const reminderTimeout = 10 * time.Second

// RemindPending emails every member whose entry is still pending, except the
// actor. Only the group's representative may send reminders. The returned
// count is the number of members addressed; delivery failures are logged.
func (l *Ledger) RemindPending(ctx context.Context, actorID, expenseID string) (int, error) {
	expense, err := l.loadExpense(ctx, expenseID)
	if err != nil {
		return 0, err
	}
	group, err := l.store.GetGroupByID(ctx, expense.GroupID)
	if err != nil {
		return 0, apperr.Unavailable("load group", err)
	}
	target := policy.Target{GroupID: group.ID, RepresentativeID: group.RepresentativeID}
	if err := policy.Check(policy.Actor{UserID: actorID}, policy.OpRemindPending, target); err != nil {
		return 0, err
	}

	var pending []models.ExpenseMember
	ids := make([]string, 0, len(expense.Members))
	for _, m := range expense.Members {
		if m.Status == models.StatusPending && m.UserID != actorID {
			pending = append(pending, m)
			ids = append(ids, m.UserID)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	users, err := l.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return 0, apperr.Unavailable("load members", err)
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reminderTimeout)
	defer cancel()

	sent := 0
	for _, m := range pending {
		u, ok := users[m.UserID]
		if !ok {
			continue
		}
		email := notify.BuildReminderEmail(u.Email, notify.ReminderData{
			Name:         u.Name,
			ExpenseTitle: expense.Title,
			Amount:       m.Amount.StringFixed(2),
			GroupName:    group.Name,
		})
		err := l.mailer.Send(sendCtx, email)
		l.metrics.EmailSent("reminder", err)
		if err != nil {
			slog.Error("failed to send payment reminder", "expense_id", expenseID, "user_id", u.ID, "error", err)
			continue
		}
		sent++
	}

	slog.Info("Payment reminders sent", "expense_id", expenseID, "pending", len(pending), "sent", sent)
	return len(pending), nil
}
