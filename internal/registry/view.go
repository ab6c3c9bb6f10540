package registry

import (
	"context"
	"time"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
)

// MemberDetail is a roster entry joined with the member's public profile.
type MemberDetail struct {
	UserID      string
	Name        string
	Avatar      string
	Description string
	Phone       string
	Role        models.Role
	JoinedAt    time.Time
}

// GroupView is a group with its roster resolved to member details.
type GroupView struct {
	Group          *models.Group
	Representative models.PersonRef
	Members        []MemberDetail
}

func (r *Registry) view(ctx context.Context, group *models.Group) (*GroupView, error) {
	users, err := r.store.GetUsersByIDs(ctx, group.MemberIDs())
	if err != nil {
		return nil, apperr.Unavailable("load members", err)
	}

	v := &GroupView{
		Group:          group,
		Representative: models.PersonRef{ID: group.RepresentativeID},
		Members:        make([]MemberDetail, 0, len(group.Members)),
	}
	for _, m := range group.Members {
		d := MemberDetail{UserID: m.UserID, JoinedAt: m.JoinedAt}
		if u, ok := users[m.UserID]; ok {
			d.Name = u.Name
			d.Avatar = u.Avatar
			d.Description = u.Description
			d.Phone = u.Phone
			d.Role = u.Role
		}
		if m.UserID == group.RepresentativeID {
			v.Representative = models.PersonRef{ID: m.UserID, Name: d.Name, Avatar: d.Avatar}
		}
		v.Members = append(v.Members, d)
	}
	return v, nil
}
