package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/internal/identity"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// UserService implements the Connect UserService.
type UserService struct {
	identity *identity.Service
}

// NewUserService creates a new UserService.
func NewUserService(id *identity.Service) *UserService {
	return &UserService{identity: id}
}

func (s *UserService) GetProfile(ctx context.Context, req *connect.Request[api.GetProfileRequest]) (*connect.Response[api.ProfileResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.identity.GetProfile(ctx, userID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError("GetProfile", err)
	}
	return connect.NewResponse(&api.ProfileResponse{User: toAPIProfile(profile)}), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.identity.UpdateProfile(ctx, userID, req.Msg.UserID, models.ProfileUpdate{
		Name:        req.Msg.Name,
		Phone:       req.Msg.Phone,
		Description: req.Msg.Description,
		Avatar:      req.Msg.Avatar,
	})
	if err != nil {
		return nil, toConnectError("UpdateProfile", err)
	}
	return connect.NewResponse(&api.ProfileResponse{User: toAPIProfile(profile)}), nil
}

// UpdateRole promotes the caller. The response carries the fresh user.
func (s *UserService) UpdateRole(ctx context.Context, req *connect.Request[api.UpdateRoleRequest]) (*connect.Response[api.UpdateRoleResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.identity.UpdateRole(ctx, userID, models.Role(req.Msg.Role))
	if err != nil {
		return nil, toConnectError("UpdateRole", err)
	}
	sess, err := s.identity.Me(ctx, userID)
	if err != nil {
		return nil, toConnectError("UpdateRole", err)
	}

	group := res.Group
	if group == nil {
		group = sess.Group
	}
	return connect.NewResponse(&api.UpdateRoleResponse{
		Change: res.Change.String(),
		User:   toAPIUser(sess.User),
		Group:  summaryFor(group, sess.User),
	}), nil
}
