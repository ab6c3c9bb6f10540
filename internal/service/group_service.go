package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Atmakurhemanthkumar/splitmate/internal/registry"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	registry *registry.Registry
}

// NewGroupService creates a new GroupService.
func NewGroupService(reg *registry.Registry) *GroupService {
	return &GroupService{registry: reg}
}

// JoinGroup adds the caller to the group with the given code.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("JoinGroup request received", "user_id", userID, "code", req.Msg.Code)

	view, err := s.registry.JoinGroup(ctx, userID, req.Msg.Code)
	if err != nil {
		return nil, toConnectError("JoinGroup", err)
	}
	return connect.NewResponse(&api.GroupResponse{Group: toAPIGroup(view)}), nil
}

// GetMyGroup returns the caller's group with member details.
func (s *GroupService) GetMyGroup(ctx context.Context, req *connect.Request[api.GetMyGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := actorID(ctx)
	if err != nil {
		return nil, err
	}
	view, err := s.registry.GetMyGroup(ctx, userID)
	if err != nil {
		return nil, toConnectError("GetMyGroup", err)
	}
	return connect.NewResponse(&api.GroupResponse{Group: toAPIGroup(view)}), nil
}

// GetGroupByCode previews a group.
func (s *GroupService) GetGroupByCode(ctx context.Context, req *connect.Request[api.GetGroupByCodeRequest]) (*connect.Response[api.GroupSummaryResponse], error) {
	if _, err := actorID(ctx); err != nil {
		return nil, err
	}
	summary, err := s.registry.GetGroupByCode(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError("GetGroupByCode", err)
	}
	return connect.NewResponse(&api.GroupSummaryResponse{Group: toAPISummary(summary)}), nil
}
