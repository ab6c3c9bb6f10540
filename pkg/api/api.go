// Package api defines the wire messages of the splitmate.v1 services.
//
// Messages are plain structs encoded as JSON. Money travels as decimal
// strings with two fractional digits; timestamps as RFC 3339.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a credential-free user record.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	GroupID     string `json:"group_id,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description,omitempty"`
}

type PersonRef struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// GroupSummary is the public preview of a group.
type GroupSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	MemberCount    int       `json:"member_count"`
	MaxMembers     int       `json:"max_members"`
	Representative PersonRef `json:"representative"`
}

type GroupMember struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	Description string    `json:"description,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Group is a group with member details, visible to its members.
type Group struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Code           string        `json:"code"`
	Representative PersonRef     `json:"representative"`
	Members        []GroupMember `json:"members"`
	MaxMembers     int           `json:"max_members"`
	CreatedAt      time.Time     `json:"created_at"`
}

type ExpenseMember struct {
	UserID       string     `json:"user_id"`
	Amount       string     `json:"amount"`
	Status       string     `json:"status"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	PaymentProof string     `json:"payment_proof,omitempty"`
}

type Expense struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	TotalAmount   string          `json:"total_amount"`
	Date          time.Time       `json:"date"`
	GroupID       string          `json:"group_id"`
	CreatedBy     string          `json:"created_by"`
	SplitType     string          `json:"split_type"`
	Members       []ExpenseMember `json:"members"`
	PaymentStatus string          `json:"payment_status"`
	PaidCount     int             `json:"paid_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

type MemberTotals struct {
	UserID       string `json:"user_id"`
	TotalShare   string `json:"total_share"`
	Paid         string `json:"paid"`
	Pending      string `json:"pending"`
	PendingCount int    `json:"pending_count"`
}

type PaymentProof struct {
	UserID   string     `json:"user_id"`
	ProofURL string     `json:"proof_url"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
}

type Verification struct {
	ExtractedAmount string `json:"extracted_amount,omitempty"`
	ExtractedDate   string `json:"extracted_date,omitempty"`
	AmountMatches   bool   `json:"amount_matches"`
	DateMatches     bool   `json:"date_matches"`
	Confidence      string `json:"confidence,omitempty"`
	Verified        bool   `json:"verified"`
}

// AuthService

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description,omitempty"`
	Role        string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MeRequest struct{}

// AuthResponse answers Register, Login and Me. Token is empty for Me.
type AuthResponse struct {
	Token string        `json:"token,omitempty"`
	User  User          `json:"user"`
	Group *GroupSummary `json:"group,omitempty"`
}

// UserService

type GetProfileRequest struct {
	// UserID defaults to the caller.
	UserID string `json:"user_id,omitempty"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	UserID      string  `json:"user_id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Description *string `json:"description,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
}

type ProfileResponse struct {
	User User `json:"user"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type UpdateRoleResponse struct {
	// Change is no_change, promoted or promoted_with_new_group.
	Change string        `json:"change"`
	User   User          `json:"user"`
	Group  *GroupSummary `json:"group,omitempty"`
}

// GroupService

type JoinGroupRequest struct {
	Code string `json:"code"`
}

type GetMyGroupRequest struct{}

type GroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupByCodeRequest struct {
	Code string `json:"code"`
}

type GroupSummaryResponse struct {
	Group GroupSummary `json:"group"`
}

// ExpenseService

type CreateExpenseRequest struct {
	// GroupID defaults to the caller's group.
	GroupID     string          `json:"group_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Date        *time.Time      `json:"date,omitempty"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListExpensesRequest struct{}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetGroupTotalsRequest struct{}

type GetGroupTotalsResponse struct {
	Totals []MemberTotals `json:"totals"`
}

type UpdatePaymentStatusRequest struct {
	ExpenseID string `json:"expense_id"`
	// Status defaults to paid.
	Status       string `json:"status,omitempty"`
	PaymentProof string `json:"payment_proof,omitempty"`
	MemberID     string `json:"member_id,omitempty"`
}

type RemindPendingRequest struct {
	ExpenseID string `json:"expense_id"`
}

type RemindPendingResponse struct {
	Reminded int `json:"reminded"`
}

// PaymentService

type AttachProofRequest struct {
	ExpenseID string `json:"expense_id"`
	ProofURL  string `json:"proof_url"`
}

type ListProofsRequest struct {
	ExpenseID string `json:"expense_id"`
}

type ListProofsResponse struct {
	Proofs []PaymentProof `json:"proofs"`
}

type VerifyProofRequest struct {
	ExpenseID string `json:"expense_id"`
	// ProofURL defaults to the caller's attached proof.
	ProofURL string `json:"proof_url,omitempty"`
}

type VerifyProofResponse struct {
	Verification Verification `json:"verification"`
}

// UploadProofResponse is the body of POST /uploads/proofs/{expenseID}.
type UploadProofResponse struct {
	ProofURL string  `json:"proof_url"`
	Expense  Expense `json:"expense"`
}
