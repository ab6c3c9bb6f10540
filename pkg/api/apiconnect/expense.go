package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "splitmate.v1.ExpenseService"

// Procedure names of the ExpenseService service.
const (
	ExpenseServiceCreateExpenseProcedure       = "/splitmate.v1.ExpenseService/CreateExpense"
	ExpenseServiceListExpensesProcedure        = "/splitmate.v1.ExpenseService/ListExpenses"
	ExpenseServiceGetExpenseProcedure          = "/splitmate.v1.ExpenseService/GetExpense"
	ExpenseServiceGetGroupTotalsProcedure      = "/splitmate.v1.ExpenseService/GetGroupTotals"
	ExpenseServiceUpdatePaymentStatusProcedure = "/splitmate.v1.ExpenseService/UpdatePaymentStatus"
	ExpenseServiceRemindPendingProcedure       = "/splitmate.v1.ExpenseService/RemindPending"
)

// ExpenseServiceClient records expenses and payment states.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	GetGroupTotals(context.Context, *connect.Request[api.GetGroupTotalsRequest]) (*connect.Response[api.GetGroupTotalsResponse], error)
	UpdatePaymentStatus(context.Context, *connect.Request[api.UpdatePaymentStatusRequest]) (*connect.Response[api.ExpenseResponse], error)
	// RemindPending emails every member whose share is still pending.
	RemindPending(context.Context, *connect.Request[api.RemindPendingRequest]) (*connect.Response[api.RemindPendingResponse], error)
}

// NewExpenseServiceClient returns a client for the ExpenseService service at baseURL
// (e.g. http://localhost:8080).
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &expenseServiceClient{
		createExpense:       connect.NewClient[api.CreateExpenseRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		listExpenses:        connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		getExpense:          connect.NewClient[api.GetExpenseRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		getGroupTotals:      connect.NewClient[api.GetGroupTotalsRequest, api.GetGroupTotalsResponse](httpClient, baseURL+ExpenseServiceGetGroupTotalsProcedure, opts...),
		updatePaymentStatus: connect.NewClient[api.UpdatePaymentStatusRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceUpdatePaymentStatusProcedure, opts...),
		remindPending:       connect.NewClient[api.RemindPendingRequest, api.RemindPendingResponse](httpClient, baseURL+ExpenseServiceRemindPendingProcedure, opts...),
	}
}

type expenseServiceClient struct {
	createExpense       *connect.Client[api.CreateExpenseRequest, api.ExpenseResponse]
	listExpenses        *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	getExpense          *connect.Client[api.GetExpenseRequest, api.ExpenseResponse]
	getGroupTotals      *connect.Client[api.GetGroupTotalsRequest, api.GetGroupTotalsResponse]
	updatePaymentStatus *connect.Client[api.UpdatePaymentStatusRequest, api.ExpenseResponse]
	remindPending       *connect.Client[api.RemindPendingRequest, api.RemindPendingResponse]
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetGroupTotals(ctx context.Context, req *connect.Request[api.GetGroupTotalsRequest]) (*connect.Response[api.GetGroupTotalsResponse], error) {
	return c.getGroupTotals.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdatePaymentStatus(ctx context.Context, req *connect.Request[api.UpdatePaymentStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.updatePaymentStatus.CallUnary(ctx, req)
}

func (c *expenseServiceClient) RemindPending(ctx context.Context, req *connect.Request[api.RemindPendingRequest]) (*connect.Response[api.RemindPendingResponse], error) {
	return c.remindPending.CallUnary(ctx, req)
}

// ExpenseServiceHandler is implemented by the server side of the ExpenseService service.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	GetGroupTotals(context.Context, *connect.Request[api.GetGroupTotalsRequest]) (*connect.Response[api.GetGroupTotalsResponse], error)
	UpdatePaymentStatus(context.Context, *connect.Request[api.UpdatePaymentStatusRequest]) (*connect.Response[api.ExpenseResponse], error)
	RemindPending(context.Context, *connect.Request[api.RemindPendingRequest]) (*connect.Response[api.RemindPendingResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createExpenseHandler := connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...)
	listExpensesHandler := connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...)
	getExpenseHandler := connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...)
	getGroupTotalsHandler := connect.NewUnaryHandler(ExpenseServiceGetGroupTotalsProcedure, svc.GetGroupTotals, opts...)
	updatePaymentStatusHandler := connect.NewUnaryHandler(ExpenseServiceUpdatePaymentStatusProcedure, svc.UpdatePaymentStatus, opts...)
	remindPendingHandler := connect.NewUnaryHandler(ExpenseServiceRemindPendingProcedure, svc.RemindPending, opts...)
	return "/" + ExpenseServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceCreateExpenseProcedure:
			createExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceListExpensesProcedure:
			listExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseProcedure:
			getExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceGetGroupTotalsProcedure:
			getGroupTotalsHandler.ServeHTTP(w, r)
		case ExpenseServiceUpdatePaymentStatusProcedure:
			updatePaymentStatusHandler.ServeHTTP(w, r)
		case ExpenseServiceRemindPendingProcedure:
			remindPendingHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
