package service

import (
	"github.com/Atmakurhemanthkumar/splitmate/internal/calculator"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/internal/proofs"
	"github.com/Atmakurhemanthkumar/splitmate/internal/registry"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

func toAPIUser(u *models.User) api.User {
	return toAPIProfile(u.Profile())
}

func toAPIProfile(p models.Profile) api.User {
	return api.User{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        string(p.Role),
		GroupID:     p.GroupID,
		Phone:       p.Phone,
		Avatar:      p.Avatar,
		Description: p.Description,
	}
}

func toAPIPerson(p models.PersonRef) api.PersonRef {
	return api.PersonRef{ID: p.ID, Name: p.Name, Avatar: p.Avatar}
}

func toAPISummary(s models.GroupSummary) api.GroupSummary {
	return api.GroupSummary{
		ID:             s.ID,
		Name:           s.Name,
		Code:           s.Code,
		MemberCount:    s.MemberCount,
		MaxMembers:     s.MaxMembers,
		Representative: toAPIPerson(s.Representative),
	}
}

// summaryFor builds the group preview shown to user, who may be its representative.
func summaryFor(g *models.Group, user *models.User) *api.GroupSummary {
	if g == nil {
		return nil
	}
	rep := models.PersonRef{ID: g.RepresentativeID}
	if user != nil && user.ID == g.RepresentativeID {
		rep = models.PersonRef{ID: user.ID, Name: user.Name, Avatar: user.Avatar}
	}
	s := toAPISummary(g.Summary(rep))
	return &s
}

func toAPIGroup(v *registry.GroupView) api.Group {
	members := make([]api.GroupMember, len(v.Members))
	for i, m := range v.Members {
		members[i] = api.GroupMember{
			UserID:      m.UserID,
			Name:        m.Name,
			Avatar:      m.Avatar,
			Description: m.Description,
			Phone:       m.Phone,
			Role:        string(m.Role),
			JoinedAt:    m.JoinedAt,
		}
	}
	return api.Group{
		ID:             v.Group.ID,
		Name:           v.Group.Name,
		Code:           v.Group.Code,
		Representative: toAPIPerson(v.Representative),
		Members:        members,
		MaxMembers:     v.Group.MaxMembers,
		CreatedAt:      v.Group.CreatedAt,
	}
}

// ExpenseToAPI converts an expense to its wire form. Amounts carry two decimals.
func ExpenseToAPI(e *models.Expense) api.Expense {
	members := make([]api.ExpenseMember, len(e.Members))
	for i, m := range e.Members {
		members[i] = api.ExpenseMember{
			UserID:       m.UserID,
			Amount:       m.Amount.StringFixed(2),
			Status:       string(m.Status),
			PaidAt:       m.PaidAt,
			PaymentProof: m.PaymentProof,
		}
	}
	return api.Expense{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		TotalAmount:   e.TotalAmount.StringFixed(2),
		Date:          e.Date,
		GroupID:       e.GroupID,
		CreatedBy:     e.CreatedBy,
		SplitType:     e.SplitType,
		Members:       members,
		PaymentStatus: string(e.PaymentStatus()),
		PaidCount:     e.PaidCount(),
		CreatedAt:     e.CreatedAt,
	}
}

func toAPITotals(t calculator.MemberTotals) api.MemberTotals {
	return api.MemberTotals{
		UserID:       t.UserID,
		TotalShare:   t.TotalShare.StringFixed(2),
		Paid:         t.Paid.StringFixed(2),
		Pending:      t.Pending.StringFixed(2),
		PendingCount: t.PendingCount,
	}
}

func toAPIProof(p models.PaymentProof) api.PaymentProof {
	return api.PaymentProof{UserID: p.UserID, ProofURL: p.ProofURL, PaidAt: p.PaidAt}
}

func toAPIVerification(v proofs.Verification) api.Verification {
	out := api.Verification{
		ExtractedDate: v.ExtractedDate,
		AmountMatches: v.AmountMatches,
		DateMatches:   v.DateMatches,
		Confidence:    v.Confidence,
		Verified:      v.Verified,
	}
	if v.ExtractedAmount != nil {
		out.ExtractedAmount = v.ExtractedAmount.StringFixed(2)
	}
	return out
}
