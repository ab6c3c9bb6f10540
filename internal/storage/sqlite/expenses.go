package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/storage"
)

const expenseColumns = `id, title, description, total_amount, date, group_id, created_by, split_type, is_active, created_at, updated_at`

// CreateExpense inserts an expense and all of its member entries in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	if expense.SplitType == "" {
		expense.SplitType = models.SplitEqual
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Title, expense.Description, expense.TotalAmount.String(),
		toNanos(expense.Date), expense.GroupID, expense.CreatedBy, expense.SplitType,
		boolToInt(expense.IsActive), toNanos(expense.CreatedAt), toNanos(expense.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, m := range expense.Members {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_members (expense_id, user_id, position, amount, status, paid_at, payment_proof)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, m.UserID, i, m.Amount.StringFixed(2), string(m.Status),
			nullableNanos(m.PaidAt), m.PaymentProof,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense with its member entries.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	return getExpense(ctx, s.db, id)
}

// ListExpensesByGroup returns a group's active expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE group_id = ? AND is_active = 1
		 ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	// Read every row before loading members; the pool has one connection.
	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	rows.Close()

	for _, e := range expenses {
		members, err := getExpenseMembers(ctx, s.db, e.ID)
		if err != nil {
			return nil, err
		}
		e.Members = members
	}

	return expenses, nil
}

// UpdateExpenseMember patches one member entry and returns the updated expense.
func (s *SQLiteStore) UpdateExpenseMember(ctx context.Context, expenseID, userID string, patch models.MemberPatch) (*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expense, err := getExpense(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}
	entry := expense.Member(userID)
	if entry == nil {
		return nil, storage.ErrNotMember
	}
	patch.Apply(entry)

	_, err = tx.ExecContext(ctx,
		`UPDATE expense_members SET status = ?, paid_at = ?, payment_proof = ?
		 WHERE expense_id = ? AND user_id = ?`,
		string(entry.Status), nullableNanos(entry.PaidAt), entry.PaymentProof, expenseID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense member: %w", err)
	}

	expense.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `UPDATE expenses SET updated_at = ? WHERE id = ?`, toNanos(expense.UpdatedAt), expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to touch expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return expense, nil
}

func getExpense(ctx context.Context, q querier, id string) (*models.Expense, error) {
	row := q.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	members, err := getExpenseMembers(ctx, q, id)
	if err != nil {
		return nil, err
	}
	expense.Members = members

	return expense, nil
}

func getExpenseMembers(ctx context.Context, q querier, expenseID string) ([]models.ExpenseMember, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id, amount, status, paid_at, payment_proof
		 FROM expense_members WHERE expense_id = ? ORDER BY position`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense members: %w", err)
	}
	defer rows.Close()

	var members []models.ExpenseMember
	for rows.Next() {
		var (
			m      models.ExpenseMember
			amount string
			status string
			paidAt sql.NullInt64
		)
		if err := rows.Scan(&m.UserID, &amount, &status, &paidAt, &m.PaymentProof); err != nil {
			return nil, fmt.Errorf("failed to scan expense member: %w", err)
		}
		m.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		m.Status = models.PaymentStatus(status)
		if paidAt.Valid {
			t := fromNanos(paidAt.Int64)
			m.PaidAt = &t
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense members: %w", err)
	}

	return members, nil
}

func scanExpense(row scanner) (*models.Expense, error) {
	var (
		e        models.Expense
		total    string
		date     int64
		isActive int
		created  int64
		updated  int64
	)
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&total,
		&date,
		&e.GroupID,
		&e.CreatedBy,
		&e.SplitType,
		&isActive,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	e.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
	}
	e.Date = fromNanos(date)
	e.IsActive = isActive != 0
	e.CreatedAt = fromNanos(created)
	e.UpdatedAt = fromNanos(updated)
	return &e, nil
}

func nullableNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toNanos(*t)
}
