package mongostore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
)

// Documents mirror the models with bson tags. Amounts are stored as decimal
// strings so no precision is lost to float64.

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	GroupID      string    `bson:"group_id,omitempty"`
	Phone        string    `bson:"phone,omitempty"`
	Avatar       string    `bson:"avatar,omitempty"`
	Description  string    `bson:"description,omitempty"`
	IsActive     bool      `bson:"is_active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		GroupID:      u.GroupID,
		Phone:        u.Phone,
		Avatar:       u.Avatar,
		Description:  u.Description,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.Role(d.Role),
		GroupID:      d.GroupID,
		Phone:        d.Phone,
		Avatar:       d.Avatar,
		Description:  d.Description,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type memberDoc struct {
	UserID   string    `bson:"user_id"`
	JoinedAt time.Time `bson:"joined_at"`
}

type groupDoc struct {
	ID               string      `bson:"_id"`
	Name             string      `bson:"name"`
	Code             string      `bson:"code"`
	RepresentativeID string      `bson:"representative_id"`
	Members          []memberDoc `bson:"members"`
	MaxMembers       int         `bson:"max_members"`
	IsActive         bool        `bson:"is_active"`
	CreatedAt        time.Time   `bson:"created_at"`
	UpdatedAt        time.Time   `bson:"updated_at"`
}

func toGroupDoc(g *models.Group) groupDoc {
	members := make([]memberDoc, len(g.Members))
	for i, m := range g.Members {
		members[i] = memberDoc{UserID: m.UserID, JoinedAt: m.JoinedAt}
	}
	return groupDoc{
		ID:               g.ID,
		Name:             g.Name,
		Code:             g.Code,
		RepresentativeID: g.RepresentativeID,
		Members:          members,
		MaxMembers:       g.MaxMembers,
		IsActive:         g.IsActive,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

func (d groupDoc) model() *models.Group {
	members := make([]models.GroupMember, len(d.Members))
	for i, m := range d.Members {
		members[i] = models.GroupMember{UserID: m.UserID, JoinedAt: m.JoinedAt.UTC()}
	}
	return &models.Group{
		ID:               d.ID,
		Name:             d.Name,
		Code:             d.Code,
		RepresentativeID: d.RepresentativeID,
		Members:          members,
		MaxMembers:       d.MaxMembers,
		IsActive:         d.IsActive,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

type entryDoc struct {
	UserID       string     `bson:"user_id"`
	Amount       string     `bson:"amount"`
	Status       string     `bson:"status"`
	PaidAt       *time.Time `bson:"paid_at"`
	PaymentProof string     `bson:"payment_proof"`
}

type expenseDoc struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description,omitempty"`
	TotalAmount string     `bson:"total_amount"`
	Date        time.Time  `bson:"date"`
	GroupID     string     `bson:"group_id"`
	CreatedBy   string     `bson:"created_by"`
	SplitType   string     `bson:"split_type"`
	Members     []entryDoc `bson:"members"`
	IsActive    bool       `bson:"is_active"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func toExpenseDoc(e *models.Expense) expenseDoc {
	entries := make([]entryDoc, len(e.Members))
	for i, m := range e.Members {
		entries[i] = entryDoc{
			UserID:       m.UserID,
			Amount:       m.Amount.StringFixed(2),
			Status:       string(m.Status),
			PaidAt:       m.PaidAt,
			PaymentProof: m.PaymentProof,
		}
	}
	return expenseDoc{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		TotalAmount: e.TotalAmount.String(),
		Date:        e.Date,
		GroupID:     e.GroupID,
		CreatedBy:   e.CreatedBy,
		SplitType:   e.SplitType,
		Members:     entries,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (d expenseDoc) model() (*models.Expense, error) {
	total, err := decimal.NewFromString(d.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored total %q: %w", d.TotalAmount, err)
	}
	members := make([]models.ExpenseMember, len(d.Members))
	for i, m := range d.Members {
		amount, err := decimal.NewFromString(m.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", m.Amount, err)
		}
		var paidAt *time.Time
		if m.PaidAt != nil {
			t := m.PaidAt.UTC()
			paidAt = &t
		}
		members[i] = models.ExpenseMember{
			UserID:       m.UserID,
			Amount:       amount,
			Status:       models.PaymentStatus(m.Status),
			PaidAt:       paidAt,
			PaymentProof: m.PaymentProof,
		}
	}
	return &models.Expense{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		TotalAmount: total,
		Date:        d.Date.UTC(),
		GroupID:     d.GroupID,
		CreatedBy:   d.CreatedBy,
		SplitType:   d.SplitType,
		Members:     members,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}
