package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/internal/ledger"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	ledger *ledger.Ledger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(l *ledger.Ledger) *ExpenseService {
	return &ExpenseService{ledger: l}
}

// CreateExpense records an expense split equally across the group.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateExpense request received",
		"user_id", userID,
		"title", req.Msg.Title,
		"total_amount", req.Msg.TotalAmount,
	)

	in := ledger.NewExpense{
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		TotalAmount: req.Msg.TotalAmount,
	}
	if req.Msg.Date != nil {
		in.Date = *req.Msg.Date
	}

	expense, err := s.ledger.CreateExpense(ctx, userID, req.Msg.GroupID, in)
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: ExpenseToAPI(expense)}), nil
}

// ListExpenses returns the caller's group expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.ledger.ListExpenses(ctx, userID)
	if err != nil {
		return nil, toConnectError("ListExpenses", err)
	}

	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = ExpenseToAPI(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.ledger.GetExpense(ctx, userID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("GetExpense", err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: ExpenseToAPI(expense)}), nil
}

// GetGroupTotals returns per-member totals across the caller's group.
func (s *ExpenseService) GetGroupTotals(ctx context.Context, req *connect.Request[api.GetGroupTotalsRequest]) (*connect.Response[api.GetGroupTotalsResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.ledger.GroupTotals(ctx, userID)
	if err != nil {
		return nil, toConnectError("GetGroupTotals", err)
	}

	out := make([]api.MemberTotals, len(totals))
	for i, t := range totals {
		out[i] = toAPITotals(t)
	}
	return connect.NewResponse(&api.GetGroupTotalsResponse{Totals: out}), nil
}

// UpdatePaymentStatus marks the caller's own share paid or pending.
func (s *ExpenseService) UpdatePaymentStatus(ctx context.Context, req *connect.Request[api.UpdatePaymentStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}

	upd := ledger.PaymentUpdate{
		Proof:    req.Msg.PaymentProof,
		MemberID: req.Msg.MemberID,
	}
	if req.Msg.Status != "" {
		status := models.PaymentStatus(req.Msg.Status)
		upd.Status = &status
	}

	expense, err := s.ledger.UpdatePaymentStatus(ctx, userID, req.Msg.ExpenseID, upd)
	if err != nil {
		return nil, toConnectError("UpdatePaymentStatus", err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: ExpenseToAPI(expense)}), nil
}

// RemindPending emails members who have not paid yet.
func (s *ExpenseService) RemindPending(ctx context.Context, req *connect.Request[api.RemindPendingRequest]) (*connect.Response[api.RemindPendingResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.ledger.RemindPending(ctx, userID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("RemindPending", err)
	}
	return connect.NewResponse(&api.RemindPendingResponse{Reminded: n}), nil
}
